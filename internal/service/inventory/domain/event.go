package domain

import (
	"time"

	"github.com/google/uuid"
)

// MovementType 标识一次库存变动的方向。
type MovementType string

const (
	MovementToppedUp MovementType = "stock.topped_up"
	MovementReserved MovementType = "stock.reserved"
	MovementReleased MovementType = "stock.released"
)

// StockMovement 是事务提交之后对外广播的库存变动事件。
// 只用于下游消费（看板实时刷新、外部订阅），不参与一致性保证。
type StockMovement struct {
	EventID    string       `json:"event_id"`
	Type       MovementType `json:"type"`
	ProductID  int64        `json:"product_id"`
	Quantity   int          `json:"quantity"`
	PurchaseID int64        `json:"purchase_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func NewStockMovement(t MovementType, productID int64, quantity int, purchaseID int64) StockMovement {
	return StockMovement{
		EventID:    uuid.New().String(),
		Type:       t,
		ProductID:  productID,
		Quantity:   quantity,
		PurchaseID: purchaseID,
		OccurredAt: time.Now().UTC(),
	}
}
