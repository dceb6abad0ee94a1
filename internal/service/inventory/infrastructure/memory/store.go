// Package memory 提供仓储端口的内存实现。
// 语义对齐 GORM 实现：条件扣减原子执行、删除以行数判断存在性、
// 事务失败时整体回滚。主要用于测试和本地无依赖启动。
package memory

import (
	"context"
	"sort"
	"sync"

	"dekor/internal/service/inventory/domain"
)

type Store struct {
	mu sync.Mutex
	// txMu 串行化事务单元，保证快照/回滚不会交错
	txMu sync.Mutex

	products       map[int64]domain.Product
	productByName  map[string]int64
	nextProductID  int64
	stocks         map[int64]int
	purchases      map[int64]domain.Purchase
	nextPurchaseID int64
}

func NewStore() *Store {
	return &Store{
		products:      make(map[int64]domain.Product),
		productByName: make(map[string]int64),
		stocks:        make(map[int64]int),
		purchases:     make(map[int64]domain.Purchase),
	}
}

func (s *Store) Products() domain.ProductRepository   { return &productRepo{s} }
func (s *Store) Stocks() domain.StockRepository       { return &stockRepo{s} }
func (s *Store) Purchases() domain.PurchaseRepository { return &purchaseRepo{s} }
func (s *Store) Tx() domain.TxManager                 { return &txManager{s} }

// snapshot/restore 是内存版的回滚机制
func (s *Store) snapshot() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := NewStore()
	snap.nextProductID = s.nextProductID
	snap.nextPurchaseID = s.nextPurchaseID
	for id, p := range s.products {
		snap.products[id] = p
	}
	for name, id := range s.productByName {
		snap.productByName[name] = id
	}
	for id, q := range s.stocks {
		snap.stocks[id] = q
	}
	for id, p := range s.purchases {
		snap.purchases[id] = p
	}
	return snap
}

func (s *Store) restore(snap *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextProductID = snap.nextProductID
	s.nextPurchaseID = snap.nextPurchaseID
	s.products = snap.products
	s.productByName = snap.productByName
	s.stocks = snap.stocks
	s.purchases = snap.purchases
}

type txManager struct{ s *Store }

func (m *txManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	snap := m.s.snapshot()
	if err := fn(ctx); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.productByName[product.Name]; ok {
		return domain.ErrNameTaken
	}
	r.s.nextProductID++
	product.ID = r.s.nextProductID
	r.s.products[product.ID] = *product
	r.s.productByName[product.Name] = product.ID
	return nil
}

func (r *productRepo) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.productByName[name]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	product := r.s.products[id]
	return &product, nil
}

func (r *productRepo) ListWithStock(ctx context.Context) ([]domain.ProductSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	summaries := make([]domain.ProductSummary, 0, len(r.s.products))
	for id, p := range r.s.products {
		summaries = append(summaries, domain.ProductSummary{
			ID:       id,
			Name:     p.Name,
			Quantity: r.s.stocks[id],
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

type stockRepo struct{ s *Store }

func (r *stockRepo) TopUp(ctx context.Context, productID int64, quantity int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stocks[productID] += quantity
	return r.s.stocks[productID], nil
}

// Reserve 在同一把锁下完成检查和扣减，对齐 SQL 条件更新的原子性
func (r *stockRepo) Reserve(ctx context.Context, productID int64, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.stocks[productID]
	if !ok {
		return domain.ErrProductNotStocked
	}
	if current < quantity {
		return domain.ErrInsufficientStock
	}
	r.s.stocks[productID] = current - quantity
	return nil
}

func (r *stockRepo) Release(ctx context.Context, productID int64, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.stocks[productID]; !ok {
		return domain.ErrProductNotStocked
	}
	r.s.stocks[productID] += quantity
	return nil
}

type purchaseRepo struct{ s *Store }

func (r *purchaseRepo) Create(ctx context.Context, purchase *domain.Purchase) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextPurchaseID++
	purchase.ID = r.s.nextPurchaseID
	r.s.purchases[purchase.ID] = *purchase
	return nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	purchase, ok := r.s.purchases[id]
	if !ok {
		return nil, domain.ErrPurchaseNotFound
	}
	return &purchase, nil
}

func (r *purchaseRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.purchases[id]; !ok {
		return domain.ErrPurchaseNotFound
	}
	delete(r.s.purchases, id)
	return nil
}

func (r *purchaseRepo) ListWithProduct(ctx context.Context) ([]domain.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	purchases := make([]domain.Purchase, 0, len(r.s.purchases))
	for _, p := range r.s.purchases {
		product, ok := r.s.products[p.ProductID]
		if !ok {
			// 内联失败的行按 JOIN 语义省略
			continue
		}
		p.ProductName = product.Name
		purchases = append(purchases, p)
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].ID < purchases[j].ID })
	return purchases, nil
}
