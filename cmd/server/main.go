package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/mailer"
	"github.com/rl1809/storefront/internal/adapter/messaging"
	"github.com/rl1809/storefront/internal/adapter/metrics"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/platform/observability"
	"github.com/rl1809/storefront/internal/port"
)

const configPath = "config/config.yaml"

func main() {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer, shutdownTracing, err := observability.SetupTracing(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics, err := metrics.NewPrometheusMetrics(registry)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logger.Fatal("failed to connect mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to apply schema", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Cache storage
	var (
		rdb          *redis.Client
		cacheStorage port.CacheStorage
	)
	switch cfg.Gateway.Storage {
	case "redis":
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		cacheStorage = storage.NewRedisCacheStorage(rdb)
		logger.Info("connected to redis")
	default:
		cacheStorage = storage.NewMemoryCacheStorage()
		logger.Info("using in-memory cache storage")
	}

	// Initialize services
	gateway, err := service.NewCacheGateway(service.GatewayConfig{
		Version:    cfg.Gateway.Version,
		Origin:     cfg.Gateway.Origin,
		SeedAssets: cfg.Gateway.SeedAssets,
	}, cacheStorage, &http.Client{Timeout: cfg.Gateway.FetchTimeout}, promMetrics, logger.Named("gateway"))
	if err != nil {
		logger.Fatal("failed to create cache gateway", zap.Error(err))
	}

	inventory := service.NewInventoryService(mysqlAdapter, promMetrics, tracer, logger.Named("inventory"), cfg.Inventory.LowStockThreshold)
	analytics := service.NewAnalyticsService(mysqlAdapter, logger.Named("analytics"))
	profiles := service.NewProfileService(mysqlAdapter, logger.Named("profiles"))
	contact := service.NewContactService(mysqlAdapter, mailer.NewMockMailer(logger.Named("mailer")), cfg.Contact.Inbox, logger.Named("contact"))

	// Install then activate; a failed install leaves the previous version in place
	if err := gateway.Install(ctx); err != nil {
		logger.Fatal("cache install failed", zap.String("version", gateway.Version()), zap.Error(err))
	}
	deleted, err := gateway.Activate(ctx)
	if err != nil {
		logger.Fatal("cache activate failed", zap.Error(err))
	}
	logger.Info("cache activated", zap.String("version", gateway.Version()), zap.Strings("deleted", deleted))

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	grpcHandler := handler.NewGRPCHandler()
	grpcHandler.Register(grpcServer)
	grpcHandler.SetServing(handler.HealthGateway, true)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	origin, err := url.Parse(cfg.Gateway.Origin)
	if err != nil {
		logger.Fatal("invalid gateway origin", zap.Error(err))
	}
	httpHandler := handler.NewHTTPHandler(gateway, contact, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), origin, cfg.Gateway.AllowedHosts, logger.Named("http"))

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpHandler.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Start trigger consumer
	var wg sync.WaitGroup
	var consumer *messaging.OrderConsumer
	if cfg.Kafka.Enabled {
		topics := messaging.Topics{OrderCreated: cfg.Kafka.OrderTopic, CustomerCreated: cfg.Kafka.CustomerTopic}
		reader := messaging.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topics)
		consumer = messaging.NewOrderConsumer(reader, topics, inventory, analytics, profiles, logger.Named("consumer"))

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil {
				logger.Error("trigger consumer error", zap.Error(err))
			}
		}()
		grpcHandler.SetServing(handler.HealthInventory, true)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	// Stop gRPC server
	grpcHandler.Shutdown()
	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Stop consumer and wait for the in-flight message
	cancel()
	wg.Wait()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("failed to close kafka reader", zap.Error(err))
		}
		logger.Info("trigger consumer stopped")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("failed to flush traces", zap.Error(err))
	}

	// Close connections
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = db.Close()
	logger.Info("connections closed")
}
