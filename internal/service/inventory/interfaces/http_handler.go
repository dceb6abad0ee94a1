package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"dekor/internal/service/inventory/application"
	"dekor/internal/service/inventory/domain"
)

// InventoryHandler 封装了库存看板的 HTTP 处理器。
type InventoryHandler struct {
	catalog   *application.CatalogService
	purchases *application.PurchaseService
}

func NewInventoryHandler(catalog *application.CatalogService, purchases *application.PurchaseService) *InventoryHandler {
	return &InventoryHandler{catalog: catalog, purchases: purchases}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("POST /api/products", h.handleAddProduct)
	mux.HandleFunc("GET /api/decorations", h.handleListPurchases)
	mux.HandleFunc("POST /api/decorations", h.handleCreatePurchase)
	mux.HandleFunc("DELETE /api/decorations/{id}", h.handleCancelPurchase)
}

type addProductRequest struct {
	ProductName string `json:"productName"`
	Stock       int    `json:"stock"`
}

func (h *InventoryHandler) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.catalog.AddProduct(ctx, req.ProductName, req.Stock)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"product_id": result.ProductID,
		"quantity":   result.Quantity,
	})
}

func (h *InventoryHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	summaries, err := h.catalog.ListProducts(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

type createPurchaseRequest struct {
	ProductID    int64  `json:"productId"`
	Quantity     int    `json:"quantity"`
	PurchaseDate string `json:"purchaseDate"`
}

func (h *InventoryHandler) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req createPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.purchases.CreatePurchase(ctx, req.ProductID, req.Quantity, req.PurchaseDate)
	if err != nil {
		observePurchase("create", err)
		writeDomainError(w, err)
		return
	}
	observePurchase("create", nil)

	writeJSON(w, http.StatusOK, result)
}

type purchaseResponse struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	Quantity     int    `json:"quantity"`
	PurchaseDate string `json:"purchase_date"`
	ProductName  string `json:"product_name"`
}

func (h *InventoryHandler) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	purchases, err := h.purchases.ListPurchases(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		resp = append(resp, purchaseResponse{
			ID:           p.ID,
			ProductID:    p.ProductID,
			Quantity:     p.Quantity,
			PurchaseDate: p.PurchaseDate.Format(domain.DateLayout),
			ProductName:  p.ProductName,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) handleCancelPurchase(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid purchase id", http.StatusBadRequest)
		return
	}

	if err := h.purchases.CancelPurchase(ctx, id); err != nil {
		observePurchase("cancel", err)
		writeDomainError(w, err)
		return
	}
	observePurchase("cancel", nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// writeDomainError 把领域错误映射到 HTTP 状态码。
func writeDomainError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidDate):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrPurchaseNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrProductNotStocked):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrDuplicateNameRace):
		// 请求有效但被业务规则拒绝
		statusCode = http.StatusConflict
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// extract 从请求头恢复上游传来的链路上下文。
func extract(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}
