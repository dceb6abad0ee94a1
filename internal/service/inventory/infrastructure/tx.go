package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"dekor/internal/service/inventory/domain"
)

type txKey struct{}

// GormTxManager 是 domain.TxManager 的 GORM 实现。
// 事务句柄通过 context 传给同一单元内的仓储调用，fn 返回错误即整体回滚。
type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom 取出当前事务句柄；不在事务里就用基础连接。
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

var _ domain.TxManager = (*GormTxManager)(nil)
