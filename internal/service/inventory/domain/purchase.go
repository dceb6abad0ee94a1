package domain

import "time"

// DateLayout 是采购日期的存储格式，只有日期没有时间。
const DateLayout = "2006-01-02"

// Purchase 是一次装饰采购：对某个产品在某天消耗掉一定数量的库存。
// 取消采购会整行删除并把数量还回库存，不保留已取消的痕迹。
type Purchase struct {
	ID           int64
	ProductID    int64
	Quantity     int
	PurchaseDate time.Time

	// ProductName 只在联表查询的读路径上填充
	ProductName string
}

// NewPurchase 校验输入并构造采购记录，ID 由存储分配。
func NewPurchase(productID int64, quantity int, purchaseDate string) (*Purchase, error) {
	if productID <= 0 {
		return nil, ErrProductNotFound
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	date, err := time.Parse(DateLayout, purchaseDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &Purchase{
		ProductID:    productID,
		Quantity:     quantity,
		PurchaseDate: date,
	}, nil
}
