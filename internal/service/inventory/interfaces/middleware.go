package interfaces

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"dekor/internal/pkg/logger"
)

// statusRecorder 记录写出的状态码供访问日志和指标使用。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument 给处理器套上请求 ID、访问日志和时延指标。
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		// 取消接口带 id 后缀，归并到固定标签避免指标基数膨胀
		path := r.URL.Path
		if r.Method == http.MethodDelete && strings.HasPrefix(path, "/api/decorations/") {
			path = "/api/decorations/{id}"
		}
		requestDuration.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Observe(elapsed.Seconds())

		logger.Ctx(r.Context()).Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("http request")
	})
}
