package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"

	"dekor/internal/service/inventory/domain"
	"dekor/internal/service/inventory/infrastructure/memory"
)

func newServices(store *memory.Store) (*CatalogService, *PurchaseService) {
	tracer := otel.Tracer("test")
	catalog := NewCatalogService(store.Products(), store.Stocks(), store.Tx(), nil, tracer)
	purchases := NewPurchaseService(store.Purchases(), store.Stocks(), store.Tx(), nil, tracer)
	return catalog, purchases
}

func stockOf(t *testing.T, catalog *CatalogService, productID int64) int {
	t.Helper()
	summaries, err := catalog.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	for _, s := range summaries {
		if s.ID == productID {
			return s.Quantity
		}
	}
	t.Fatalf("product %d not found", productID)
	return 0
}

// 覆盖完整的看板场景：补货、采购、超量拒绝、取消后库存复原。
func TestPurchaseLifecycle(t *testing.T) {
	store := memory.NewStore()
	catalog, purchases := newServices(store)
	ctx := context.Background()

	added, err := catalog.AddProduct(ctx, "Balon", 10)
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	balonID := added.ProductID

	created, err := purchases.CreatePurchase(ctx, balonID, 4, "2024-01-01")
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if got := stockOf(t, catalog, balonID); got != 6 {
		t.Fatalf("expected stock 6 after purchase, got %d", got)
	}

	if _, err := purchases.CreatePurchase(ctx, balonID, 10, "2024-01-02"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := stockOf(t, catalog, balonID); got != 6 {
		t.Fatalf("rejected purchase must not change stock, got %d", got)
	}

	if err := purchases.CancelPurchase(ctx, created.PurchaseID); err != nil {
		t.Fatalf("cancel purchase: %v", err)
	}
	if got := stockOf(t, catalog, balonID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}

	list, err := purchases.ListPurchases(ctx)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	for _, p := range list {
		if p.ID == created.PurchaseID {
			t.Fatalf("cancelled purchase still listed: %+v", p)
		}
	}
}

func TestCreatePurchaseUnknownProduct(t *testing.T) {
	store := memory.NewStore()
	_, purchases := newServices(store)

	_, err := purchases.CreatePurchase(context.Background(), 999, 1, "2024-01-01")
	if !errors.Is(err, domain.ErrProductNotStocked) {
		t.Fatalf("expected ErrProductNotStocked, got %v", err)
	}

	list, _ := purchases.ListPurchases(context.Background())
	if len(list) != 0 {
		t.Fatalf("failed purchase must not leave rows, got %d", len(list))
	}
}

func TestCancelPurchaseNotFound(t *testing.T) {
	store := memory.NewStore()
	catalog, purchases := newServices(store)
	ctx := context.Background()

	added, _ := catalog.AddProduct(ctx, "Balon", 10)
	created, _ := purchases.CreatePurchase(ctx, added.ProductID, 2, "2024-01-01")

	if err := purchases.CancelPurchase(ctx, 777); !errors.Is(err, domain.ErrPurchaseNotFound) {
		t.Fatalf("expected ErrPurchaseNotFound, got %v", err)
	}

	// 第二次取消同一单也必须是 NotFound，且库存不再变化
	if err := purchases.CancelPurchase(ctx, created.PurchaseID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := purchases.CancelPurchase(ctx, created.PurchaseID); !errors.Is(err, domain.ErrPurchaseNotFound) {
		t.Fatalf("expected ErrPurchaseNotFound on double cancel, got %v", err)
	}
	if got := stockOf(t, catalog, added.ProductID); got != 10 {
		t.Fatalf("expected stock 10, got %d", got)
	}
}

func TestCreatePurchaseValidation(t *testing.T) {
	store := memory.NewStore()
	_, purchases := newServices(store)
	ctx := context.Background()

	if _, err := purchases.CreatePurchase(ctx, 1, 0, "2024-01-01"); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := purchases.CreatePurchase(ctx, 1, 1, "not-a-date"); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

// failingPurchaseRepo 让插入采购行失败，用来验证扣掉的库存会随事务回滚。
type failingPurchaseRepo struct {
	domain.PurchaseRepository
}

func (r *failingPurchaseRepo) Create(ctx context.Context, purchase *domain.Purchase) error {
	return errors.New("storage: insert failed")
}

func TestCreatePurchaseRollsBackReserveOnInsertFailure(t *testing.T) {
	store := memory.NewStore()
	catalog, _ := newServices(store)
	ctx := context.Background()

	added, _ := catalog.AddProduct(ctx, "Balon", 10)

	purchases := NewPurchaseService(
		&failingPurchaseRepo{PurchaseRepository: store.Purchases()},
		store.Stocks(), store.Tx(), nil, otel.Tracer("test"),
	)

	if _, err := purchases.CreatePurchase(ctx, added.ProductID, 4, "2024-01-01"); err == nil {
		t.Fatal("expected insert failure to surface")
	}
	if got := stockOf(t, catalog, added.ProductID); got != 10 {
		t.Fatalf("reserve must roll back with the unit, stock = %d", got)
	}
}

// 并发建购同一产品：成功的总量不能超过库存，库存永不为负。
func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	store := memory.NewStore()
	catalog, purchases := newServices(store)
	ctx := context.Background()

	added, _ := catalog.AddProduct(ctx, "Balon", 50)

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := purchases.CreatePurchase(ctx, added.ProductID, 5, "2024-01-01")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 10 {
		t.Fatalf("expected exactly 10 purchases of 5 against stock 50, got %d", succeeded)
	}
	if got := stockOf(t, catalog, added.ProductID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}

	list, _ := purchases.ListPurchases(ctx)
	if len(list) != succeeded {
		t.Fatalf("purchase rows (%d) must match successful reserves (%d)", len(list), succeeded)
	}
}
