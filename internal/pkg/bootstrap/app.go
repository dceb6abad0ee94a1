// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"dekor/internal/pkg/logger"
	"dekor/internal/tracing"
)

type AppCtx struct {
	Mux *http.ServeMux
}

// AppInfo 包含了启动服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	JaegerEnabled    bool
	JaegerEndpoint   string
	RegisterHandlers func(appCtx AppCtx)
	// Cleanups 在关停时按注册顺序的逆序执行（后进先出）
	Cleanups []func(ctx context.Context) error
}

// StartService 封装了服务的通用启动和优雅关停逻辑。
// 阻塞直到收到退出信号或 HTTP 服务器异常退出。
func StartService(info AppInfo) error {
	var tracerShutdown func(ctx context.Context) error
	if info.JaegerEnabled {
		tp, err := tracing.InitTracerProvider(info.ServiceName, info.JaegerEndpoint)
		if err != nil {
			return err
		}
		tracerShutdown = tp.Shutdown
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.L().Info().
			Str("addr", server.Addr).
			Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L().Error().Err(err).Msg("http server shutdown error")
		}

		// 清理动作按后进先出执行，和资源建立顺序相反
		for i := len(info.Cleanups) - 1; i >= 0; i-- {
			if err := info.Cleanups[i](shutdownCtx); err != nil {
				logger.L().Error().Err(err).Msg("cleanup error")
			}
		}

		// 最后关 tracer，保证前面清理动作的 Span 也被冲刷出去
		if tracerShutdown != nil {
			if err := tracerShutdown(shutdownCtx); err != nil {
				logger.L().Error().Err(err).Msg("tracer shutdown error")
			}
		}
		return nil
	})

	err := g.Wait()
	logger.L().Info().Msg("service stopped")
	return err
}

// getEnv 从环境变量读取配置，带默认值。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
