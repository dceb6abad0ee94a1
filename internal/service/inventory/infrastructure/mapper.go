package infrastructure

import (
	"time"

	"dekor/internal/service/inventory/domain"
)

// Mapper：数据库模型和领域模型之间的转换，保持两侧互不感知。

func toDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:   m.ID,
		Name: m.Name,
	}
}

func toProductModel(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:   p.ID,
		Name: p.Name,
	}
}

func toDomainPurchase(m *PurchaseModel) *domain.Purchase {
	return &domain.Purchase{
		ID:           m.ID,
		ProductID:    m.ProductID,
		Quantity:     m.Quantity,
		PurchaseDate: m.PurchaseDate,
	}
}

func toPurchaseModel(p *domain.Purchase) *PurchaseModel {
	return &PurchaseModel{
		ID:           p.ID,
		ProductID:    p.ProductID,
		Quantity:     p.Quantity,
		PurchaseDate: p.PurchaseDate,
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(domain.DateLayout, s)
}
