// cmd/dashboard/main.go
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"dekor/internal/pkg/bootstrap"
	"dekor/internal/pkg/config"
	"dekor/internal/pkg/httpclient"
	"dekor/internal/pkg/logger"
	"dekor/internal/pkg/mq"
	"dekor/internal/pkg/mysql"
	"dekor/internal/pkg/redis"
	chatapp "dekor/internal/service/chat/application"
	chatinfra "dekor/internal/service/chat/infrastructure"
	chatifaces "dekor/internal/service/chat/interfaces"
	invapp "dekor/internal/service/inventory/application"
	"dekor/internal/service/inventory/domain"
	"dekor/internal/service/inventory/infrastructure"
	invifaces "dekor/internal/service/inventory/interfaces"
	"dekor/internal/service/notifier"
)

const serviceName = "dekor-dashboard"

func main() {
	cfg, err := config.Load(getEnv("DEKOR_CONFIG", "config.yaml"))
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(serviceName, cfg.Log.Level)

	var cleanups []func(ctx context.Context) error

	// ---- 存储 ----
	db, err := mysql.Open(cfg.MySQL)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to open mysql")
	}
	cleanups = append(cleanups, func(ctx context.Context) error { return mysql.Close(db) })

	if err := infrastructure.AutoMigrate(db); err != nil {
		logger.L().Fatal().Err(err).Msg("failed to migrate schema")
	}

	// ---- 事件下游：websocket 实时推送 + 可选的 Kafka ----
	hub := notifier.NewHub()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	go hub.Run(hubCtx)
	cleanups = append(cleanups, func(ctx context.Context) error { hubCancel(); return nil })

	publishers := []domain.EventPublisher{hub}
	if cfg.Kafka.Enabled {
		writer := mq.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publishers = append(publishers, infrastructure.NewKafkaEventPublisher(writer))
		cleanups = append(cleanups, func(ctx context.Context) error { return writer.Close() })
	}
	publisher := infrastructure.NewFanoutPublisher(publishers...)

	// ---- 库存服务 ----
	tracer := otel.Tracer(serviceName)
	productRepo := infrastructure.NewGormProductRepository(db)
	stockRepo := infrastructure.NewGormStockRepository(db)
	purchaseRepo := infrastructure.NewGormPurchaseRepository(db)
	txManager := infrastructure.NewGormTxManager(db)

	catalogService := invapp.NewCatalogService(productRepo, stockRepo, txManager, publisher, tracer)
	purchaseService := invapp.NewPurchaseService(purchaseRepo, stockRepo, txManager, publisher, tracer)
	inventoryHandler := invifaces.NewInventoryHandler(catalogService, purchaseService)

	// ---- 聊天代理：redis 不可用时退化为无缓存、无限流 ----
	var chatCache chatapp.ResponseCache
	var chatLimiter chatapp.RateLimiter
	if redisClient, err := redis.NewClient(cfg.Redis); err != nil {
		logger.L().Warn().Err(err).Msg("redis unavailable, chat cache and rate limit disabled")
	} else {
		cleanups = append(cleanups, func(ctx context.Context) error { return redisClient.Close() })
		adapter, err := chatinfra.NewRedisChatAdapter(redisClient, cfg.Chat)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("failed to init chat redis adapter")
		}
		chatCache, chatLimiter = adapter, adapter
	}

	textGen := chatinfra.NewTextGenHTTPAdapter(httpclient.NewClient(tracer), cfg.Chat)
	chatService := chatapp.NewChatService(textGen, chatCache, chatLimiter, tracer)
	chatHandler := chatifaces.NewChatHandler(chatService)

	invifaces.RegisterMetrics(prometheus.DefaultRegisterer)

	err = bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:    serviceName,
		Port:           cfg.Server.Port,
		JaegerEnabled:  cfg.Jaeger.Enabled,
		JaegerEndpoint: cfg.Jaeger.Endpoint,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			api := http.NewServeMux()
			inventoryHandler.RegisterRoutes(api)
			chatHandler.RegisterRoutes(api)
			appCtx.Mux.Handle("/api/", invifaces.Instrument(api))

			appCtx.Mux.HandleFunc("GET /ws/stream", hub.ServeWS)
			appCtx.Mux.Handle("GET /metrics", promhttp.Handler())
			appCtx.Mux.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))
		},
		Cleanups: cleanups,
	})
	if err != nil {
		logger.L().Fatal().Err(err).Msg("service exited with error")
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
