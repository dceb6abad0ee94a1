package interfaces

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"dekor/internal/service/inventory/domain"
)

var (
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	purchaseOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_operations_total",
			Help: "Outcomes of purchase create/cancel operations.",
		},
		[]string{"operation", "outcome"},
	)
)

// RegisterMetrics 注册本包的指标，main 启动时调用一次。
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(requestDuration, purchaseOutcomes)
}

// observePurchase 按结果分类计数，库存不足单独一个 outcome 方便告警。
func observePurchase(operation string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInsufficientStock):
		outcome = "insufficient_stock"
	case errors.Is(err, domain.ErrProductNotStocked):
		outcome = "not_stocked"
	case errors.Is(err, domain.ErrPurchaseNotFound):
		outcome = "not_found"
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrProductNotFound):
		outcome = "invalid_input"
	default:
		outcome = "error"
	}
	purchaseOutcomes.WithLabelValues(operation, outcome).Inc()
}
