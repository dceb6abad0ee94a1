package application

// AddProductResult 返回补货后的最终库存量，前端据此刷新列表不用再查一次。
type AddProductResult struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreatePurchaseResult 携带新采购的存储分配 ID。
type CreatePurchaseResult struct {
	PurchaseID int64 `json:"id"`
}
