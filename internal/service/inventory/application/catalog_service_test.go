package application

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"

	"dekor/internal/service/inventory/domain"
	"dekor/internal/service/inventory/infrastructure/memory"
)

func newCatalog(store *memory.Store) *CatalogService {
	return NewCatalogService(store.Products(), store.Stocks(), store.Tx(), nil, otel.Tracer("test"))
}

func TestAddProductCreatesProductAndStock(t *testing.T) {
	store := memory.NewStore()
	svc := newCatalog(store)

	result, err := svc.AddProduct(context.Background(), "Balon", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Quantity != 10 {
		t.Fatalf("expected quantity 10, got %d", result.Quantity)
	}

	summaries, err := svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 product, got %d", len(summaries))
	}
	if summaries[0].Name != "Balon" || summaries[0].Quantity != 10 {
		t.Fatalf("unexpected summary: %+v", summaries[0])
	}
}

func TestAddProductSameNameAccumulates(t *testing.T) {
	store := memory.NewStore()
	svc := newCatalog(store)

	if _, err := svc.AddProduct(context.Background(), "Balon", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := svc.AddProduct(context.Background(), "Balon", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Quantity != 17 {
		t.Fatalf("expected accumulated quantity 17, got %d", result.Quantity)
	}

	summaries, _ := svc.ListProducts(context.Background())
	if len(summaries) != 1 {
		t.Fatalf("expected exactly one product row, got %d", len(summaries))
	}
}

func TestAddProductValidation(t *testing.T) {
	store := memory.NewStore()
	svc := newCatalog(store)

	if _, err := svc.AddProduct(context.Background(), "", 5); !errors.Is(err, domain.ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if _, err := svc.AddProduct(context.Background(), "Balon", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.AddProduct(context.Background(), "Balon", -3); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	// 校验失败不留下任何行
	summaries, _ := svc.ListProducts(context.Background())
	if len(summaries) != 0 {
		t.Fatalf("expected no products, got %d", len(summaries))
	}
}

// racingProductRepo 模拟并发建品输掉竞争：第一次查不到、插入撞唯一索引、
// 回查时赢家的行已经可见。
type racingProductRepo struct {
	domain.ProductRepository
	winner *domain.Product
	looked bool
}

func (r *racingProductRepo) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	if !r.looked {
		r.looked = true
		return nil, domain.ErrProductNotFound
	}
	return r.winner, nil
}

func (r *racingProductRepo) Create(ctx context.Context, product *domain.Product) error {
	return domain.ErrNameTaken
}

func TestAddProductLosingRaceFallsBackToWinner(t *testing.T) {
	store := memory.NewStore()
	winner := &domain.Product{ID: 42, Name: "Balon"}
	repo := &racingProductRepo{ProductRepository: store.Products(), winner: winner}

	svc := NewCatalogService(repo, store.Stocks(), store.Tx(), nil, otel.Tracer("test"))

	result, err := svc.AddProduct(context.Background(), "Balon", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProductID != 42 {
		t.Fatalf("expected winner's product id 42, got %d", result.ProductID)
	}
	if result.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", result.Quantity)
	}
}

// blindProductRepo 模拟隔离级别把并发插入的行藏起来：插入冲突但回查也看不到。
type blindProductRepo struct {
	domain.ProductRepository
}

func (r *blindProductRepo) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}

func (r *blindProductRepo) Create(ctx context.Context, product *domain.Product) error {
	return domain.ErrNameTaken
}

func TestAddProductUnresolvableRaceSurfaces(t *testing.T) {
	store := memory.NewStore()
	repo := &blindProductRepo{ProductRepository: store.Products()}
	svc := NewCatalogService(repo, store.Stocks(), store.Tx(), nil, otel.Tracer("test"))

	_, err := svc.AddProduct(context.Background(), "Balon", 5)
	if !errors.Is(err, domain.ErrDuplicateNameRace) {
		t.Fatalf("expected ErrDuplicateNameRace, got %v", err)
	}
}
