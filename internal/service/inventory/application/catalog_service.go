package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dekor/internal/pkg/logger"
	"dekor/internal/service/inventory/domain"
)

// CatalogService 负责产品目录：按名 upsert 建品、补货、产品列表。
type CatalogService struct {
	products  domain.ProductRepository
	stocks    domain.StockRepository
	tx        domain.TxManager
	publisher domain.EventPublisher
	tracer    trace.Tracer
}

func NewCatalogService(
	products domain.ProductRepository,
	stocks domain.StockRepository,
	tx domain.TxManager,
	publisher domain.EventPublisher,
	tracer trace.Tracer,
) *CatalogService {
	return &CatalogService{
		products:  products,
		stocks:    stocks,
		tx:        tx,
		publisher: publisher,
		tracer:    tracer,
	}
}

// AddProduct 按名字 upsert 产品并追加库存。
// 同名并发调用不会产生两行产品：插入撞上唯一索引时回查拿到赢家的 ID，
// 在同一个事务里继续给它补货。
func (s *CatalogService) AddProduct(ctx context.Context, name string, incomingStock int) (*AddProductResult, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.AddProduct")
	defer span.End()

	product, err := domain.NewProduct(name)
	if err != nil {
		return nil, err
	}
	if incomingStock <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	span.SetAttributes(
		attribute.String("product.name", product.Name),
		attribute.Int("stock.incoming", incomingStock),
	)

	var result AddProductResult
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		resolved, err := s.resolveProduct(ctx, product)
		if err != nil {
			return err
		}

		quantity, err := s.stocks.TopUp(ctx, resolved.ID, incomingStock)
		if err != nil {
			return errors.Wrap(err, "top up stock")
		}

		result = AddProductResult{ProductID: resolved.ID, Quantity: quantity}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.publish(ctx, domain.NewStockMovement(domain.MovementToppedUp, result.ProductID, incomingStock, 0))

	logger.Ctx(ctx).Info().
		Str("name", product.Name).
		Int64("product_id", result.ProductID).
		Int("quantity", result.Quantity).
		Msg("product stocked")
	return &result, nil
}

// resolveProduct 实现"查-插-回查"：没有就建，建的时候输掉并发竞争就用赢家的行。
func (s *CatalogService) resolveProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	existing, err := s.products.FindByName(ctx, product.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrProductNotFound) {
		return nil, errors.Wrap(err, "find product by name")
	}

	if err := s.products.Create(ctx, product); err == nil {
		return product, nil
	} else if !errors.Is(err, domain.ErrNameTaken) {
		return nil, errors.Wrap(err, "create product")
	}

	// 唯一索引拦下了我们的插入，回查一定能看到赢家。看不到说明
	// 隔离级别把并发插入的行藏了起来，只能把竞争暴露给调用方重试。
	existing, err = s.products.FindByName(ctx, product.Name)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.ErrDuplicateNameRace
		}
		return nil, errors.Wrap(err, "find product after duplicate insert")
	}
	return existing, nil
}

// ListProducts 返回全部产品和当前库存量。
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.ProductSummary, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.ListProducts")
	defer span.End()

	summaries, err := s.products.ListWithStock(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "list products")
	}
	return summaries, nil
}

func (s *CatalogService) publish(ctx context.Context, movement domain.StockMovement) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, movement); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("event", string(movement.Type)).
			Msg("failed to publish stock movement")
	}
}
