package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dekor/internal/pkg/logger"
	"dekor/internal/service/inventory/domain"
)

// PurchaseService 是采购事务的协调者：建购把"扣库存 + 插采购行"、
// 取消把"删采购行 + 还库存"各自包进一个原子单元，要么全部生效要么全部回滚。
type PurchaseService struct {
	purchases domain.PurchaseRepository
	stocks    domain.StockRepository
	tx        domain.TxManager
	publisher domain.EventPublisher
	tracer    trace.Tracer
}

func NewPurchaseService(
	purchases domain.PurchaseRepository,
	stocks domain.StockRepository,
	tx domain.TxManager,
	publisher domain.EventPublisher,
	tracer trace.Tracer,
) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		stocks:    stocks,
		tx:        tx,
		publisher: publisher,
		tracer:    tracer,
	}
}

// CreatePurchase 记录一次装饰采购。库存不足或产品没有库存行时整个单元中止，
// 不留下任何可见的部分效果。
func (s *PurchaseService) CreatePurchase(ctx context.Context, productID int64, quantity int, purchaseDate string) (*CreatePurchaseResult, error) {
	ctx, span := s.tracer.Start(ctx, "purchase.CreatePurchase")
	defer span.End()

	// 校验在事务之前完成，坏输入不开事务
	purchase, err := domain.NewPurchase(productID, quantity, purchaseDate)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("purchase.quantity", quantity),
	)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// 条件扣减：并发建购同一产品时由存储保证不超卖
		if err := s.stocks.Reserve(ctx, purchase.ProductID, purchase.Quantity); err != nil {
			return err
		}
		if err := s.purchases.Create(ctx, purchase); err != nil {
			return errors.Wrap(err, "insert purchase")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.publish(ctx, domain.NewStockMovement(domain.MovementReserved, purchase.ProductID, purchase.Quantity, purchase.ID))

	logger.Ctx(ctx).Info().
		Int64("purchase_id", purchase.ID).
		Int64("product_id", purchase.ProductID).
		Int("quantity", purchase.Quantity).
		Msg("purchase created")
	return &CreatePurchaseResult{PurchaseID: purchase.ID}, nil
}

// CancelPurchase 是 CreatePurchase 的补偿操作：删除采购行并把数量还回库存。
// 采购行是取消的唯一凭证，删掉之后不再保留任何历史。
func (s *PurchaseService) CancelPurchase(ctx context.Context, purchaseID int64) error {
	ctx, span := s.tracer.Start(ctx, "purchase.CancelPurchase")
	defer span.End()

	span.SetAttributes(attribute.Int64("purchase.id", purchaseID))

	purchase, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// Delete 以行数判断存在性，并发重复取消只会有一个赢家
		if err := s.purchases.Delete(ctx, purchase.ID); err != nil {
			return err
		}
		if err := s.stocks.Release(ctx, purchase.ProductID, purchase.Quantity); err != nil {
			// I3 成立时不应该走到这里，但台账仍然要求库存行存在
			return err
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.publish(ctx, domain.NewStockMovement(domain.MovementReleased, purchase.ProductID, purchase.Quantity, purchase.ID))

	logger.Ctx(ctx).Info().
		Int64("purchase_id", purchase.ID).
		Int64("product_id", purchase.ProductID).
		Int("quantity", purchase.Quantity).
		Msg("purchase cancelled")
	return nil
}

// ListPurchases 返回全部采购记录，内联产品名。
func (s *PurchaseService) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	ctx, span := s.tracer.Start(ctx, "purchase.ListPurchases")
	defer span.End()

	purchases, err := s.purchases.ListWithProduct(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "list purchases")
	}
	return purchases, nil
}

func (s *PurchaseService) publish(ctx context.Context, movement domain.StockMovement) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, movement); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("event", string(movement.Type)).
			Msg("failed to publish stock movement")
	}
}
