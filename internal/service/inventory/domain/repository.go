package domain

import "context"

// ProductRepository 管理产品行。Create 在名字撞上唯一索引时返回 ErrNameTaken。
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByName(ctx context.Context, name string) (*Product, error)
	// ListWithStock 返回产品和当前库存量，没有库存行的产品 quantity 为 0
	ListWithStock(ctx context.Context) ([]ProductSummary, error)
}

// StockRepository 是库存台账的三个原语。Reserve/Release 必须在
// TxManager 的事务内调用；Reserve 必须是条件更新，零行生效视为拒绝，
// 这样并发扣减同一产品时不会把库存扣成负数。
type StockRepository interface {
	// TopUp 补货：没有库存行则创建，有则累加，返回补货后的数量
	TopUp(ctx context.Context, productID int64, quantity int) (int, error)
	// Reserve 扣减库存。库存行不存在返回 ErrProductNotStocked，
	// 余量不足返回 ErrInsufficientStock
	Reserve(ctx context.Context, productID int64, quantity int) error
	// Release 把数量还回库存。库存行不存在返回 ErrProductNotStocked
	Release(ctx context.Context, productID int64, quantity int) error
}

// PurchaseRepository 管理采购行。Delete 删除不存在的行返回 ErrPurchaseNotFound，
// 这同时挡住了并发重复取消。
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *Purchase) error
	FindByID(ctx context.Context, id int64) (*Purchase, error)
	Delete(ctx context.Context, id int64) error
	// ListWithProduct 内联产品名，产品不存在的采购行（I3 下不可能出现）被静默省略
	ListWithProduct(ctx context.Context) ([]Purchase, error)
}

// TxManager 把 fn 里的所有仓储操作包进一个原子单元。
// fn 返回错误或 panic 时整体回滚，不留下任何部分效果。
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher 在事务提交后发布库存变动事件。发布失败不影响业务结果。
type EventPublisher interface {
	Publish(ctx context.Context, movement StockMovement) error
}
