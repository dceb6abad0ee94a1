package infrastructure

import (
	"context"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"dekor/internal/service/inventory/domain"
)

// MySQL 唯一键冲突的错误码
const mysqlErrDuplicateEntry = 1062

// GormProductRepository 是 ProductRepository 的 GORM 实现。
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	model := toProductModel(product)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrNameTaken
		}
		return errors.Wrap(err, "insert product")
	}
	product.ID = model.ID
	return nil
}

func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	var model ProductModel
	err := dbFrom(ctx, r.db).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "find product by name")
	}
	return toDomainProduct(&model), nil
}

// ListWithStock 用 LEFT JOIN 保证没有库存行的产品也出现在列表里，quantity 记 0。
func (r *GormProductRepository) ListWithStock(ctx context.Context) ([]domain.ProductSummary, error) {
	var summaries []domain.ProductSummary
	err := dbFrom(ctx, r.db).
		Table("products").
		Select("products.id, products.name, COALESCE(stocks.quantity, 0) AS quantity").
		Joins("LEFT JOIN stocks ON stocks.product_id = products.id").
		Order("products.id").
		Scan(&summaries).Error
	if err != nil {
		return nil, errors.Wrap(err, "list products with stock")
	}
	return summaries, nil
}

// GormStockRepository 是库存台账的 GORM 实现。
// Reserve 用单条条件 UPDATE 扣减，在任何隔离级别下都不会把并发扣减
// 变成丢失更新：两个事务同时扣同一行时，后到的会看到前者已提交的余量。
type GormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) TopUp(ctx context.Context, productID int64, quantity int) (int, error) {
	db := dbFrom(ctx, r.db)

	// 和唯一索引配合的原子 upsert，沿用库存行累加语义
	err := db.Exec(
		"INSERT INTO stocks (product_id, quantity) VALUES (?, ?) ON DUPLICATE KEY UPDATE quantity = quantity + ?",
		productID, quantity, quantity,
	).Error
	if err != nil {
		return 0, errors.Wrap(err, "upsert stock")
	}

	var current int
	err = db.Model(&StockModel{}).
		Select("quantity").
		Where("product_id = ?", productID).
		Scan(&current).Error
	if err != nil {
		return 0, errors.Wrap(err, "read stock after top up")
	}
	return current, nil
}

func (r *GormStockRepository) Reserve(ctx context.Context, productID int64, quantity int) error {
	db := dbFrom(ctx, r.db)

	res := db.Model(&StockModel{}).
		Where("product_id = ? AND quantity >= ?", productID, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return errors.Wrap(res.Error, "reserve stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// 零行生效：要么没有库存行，要么余量不足，补一次读区分两种拒绝
	var count int64
	if err := db.Model(&StockModel{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return errors.Wrap(err, "check stock row")
	}
	if count == 0 {
		return domain.ErrProductNotStocked
	}
	return domain.ErrInsufficientStock
}

func (r *GormStockRepository) Release(ctx context.Context, productID int64, quantity int) error {
	res := dbFrom(ctx, r.db).Model(&StockModel{}).
		Where("product_id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity))
	if res.Error != nil {
		return errors.Wrap(res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotStocked
	}
	return nil
}

// GormPurchaseRepository 是采购记录的 GORM 实现。
type GormPurchaseRepository struct {
	db *gorm.DB
}

func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

func (r *GormPurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	model := toPurchaseModel(purchase)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return errors.Wrap(err, "insert purchase")
	}
	purchase.ID = model.ID
	return nil
}

func (r *GormPurchaseRepository) FindByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	var model PurchaseModel
	err := dbFrom(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, errors.Wrap(err, "find purchase")
	}
	return toDomainPurchase(&model), nil
}

func (r *GormPurchaseRepository) Delete(ctx context.Context, id int64) error {
	res := dbFrom(ctx, r.db).Delete(&PurchaseModel{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete purchase")
	}
	if res.RowsAffected == 0 {
		return domain.ErrPurchaseNotFound
	}
	return nil
}

// ListWithProduct 用 INNER JOIN 内联产品名。
func (r *GormPurchaseRepository) ListWithProduct(ctx context.Context) ([]domain.Purchase, error) {
	type row struct {
		ID           int64
		ProductID    int64
		Quantity     int
		PurchaseDate string
		ProductName  string
	}
	var rows []row
	err := dbFrom(ctx, r.db).
		Table("purchases").
		Select("purchases.id, purchases.product_id, purchases.quantity, DATE_FORMAT(purchases.purchase_date, '%Y-%m-%d') AS purchase_date, products.name AS product_name").
		Joins("JOIN products ON products.id = purchases.product_id").
		Order("purchases.id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list purchases with product")
	}

	purchases := make([]domain.Purchase, 0, len(rows))
	for _, rw := range rows {
		p := domain.Purchase{
			ID:          rw.ID,
			ProductID:   rw.ProductID,
			Quantity:    rw.Quantity,
			ProductName: rw.ProductName,
		}
		if date, err := parseDate(rw.PurchaseDate); err == nil {
			p.PurchaseDate = date
		}
		purchases = append(purchases, p)
	}
	return purchases, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}

var (
	_ domain.ProductRepository  = (*GormProductRepository)(nil)
	_ domain.StockRepository    = (*GormStockRepository)(nil)
	_ domain.PurchaseRepository = (*GormPurchaseRepository)(nil)
)
