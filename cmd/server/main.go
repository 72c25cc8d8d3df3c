package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/bookshop/internal/adapter/handler"
	"github.com/rl1809/bookshop/internal/adapter/handler/orderrpc"
	"github.com/rl1809/bookshop/internal/adapter/messaging"
	"github.com/rl1809/bookshop/internal/adapter/storage"
	"github.com/rl1809/bookshop/internal/config"
	"github.com/rl1809/bookshop/internal/core/service"
	"github.com/rl1809/bookshop/internal/observability"
	"github.com/rl1809/bookshop/internal/port"
)

const (
	producerBuffer  = 10000
	shutdownTimeout = 5 * time.Second
)

type migrator interface {
	Migrate(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(cfg.ServiceName, cfg.LogLevel, cfg.IsDevelopment())

	traceShutdown, err := observability.SetupTracing(ctx, cfg.OtelEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Error("failed to setup tracing", zap.Error(err))
	}
	logShutdown, err := observability.SetupLogging(ctx, cfg.OtelEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Error("failed to setup otel logging", zap.Error(err))
	} else if cfg.OtelEndpoint != "" {
		logger = observability.WithOTelBridge(logger, cfg.ServiceName)
	}
	otelShutdown := observability.JoinShutdown(traceShutdown, logShutdown)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := otelShutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown otel", zap.Error(err))
	}
	_ = logger.Sync()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, closeDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	cache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	events, closeEvents, err := openPublisher(cfg, logger)
	if err != nil {
		return err
	}
	// runs before the stores close so buffered events still flush
	defer closeEvents()

	memberService := service.NewMemberService(db, events, logger.Named("member"))
	itemService := service.NewItemService(db, logger.Named("item"))
	orderService := service.NewOrderService(db, cache, events, cfg.CancelPolicy, logger.Named("order"))

	grpcServer := grpc.NewServer()
	orderrpc.RegisterOrderServiceServer(grpcServer, handler.NewGRPCHandler(orderService, logger.Named("grpc")))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(memberService, itemService, orderService, logger.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown failed", zap.Error(err))
		}
		logger.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
		return nil
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.DatabaseRepository, func(), error) {
	var (
		repo    port.DatabaseRepository
		closeFn = func() {}
	)

	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect mysql: %w", err)
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping mysql: %w", err)
		}
		logger.Info("connected to mysql")
		repo = storage.NewMySQLAdapter(db)
		closeFn = func() { _ = db.Close() }

	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		logger.Info("connected to postgres")
		repo = storage.NewPostgresAdapter(pool)
		closeFn = pool.Close

	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return storage.NewMemoryAdapter(), closeFn, nil
	}

	if m, ok := repo.(migrator); ok && cfg.AutoMigrate {
		if err := m.Migrate(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Info("schema migrated", zap.String("driver", cfg.StoreDriver))
	}
	return repo, closeFn, nil
}

func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.CacheRepository, func(), error) {
	if cfg.RedisAddr == "" {
		return storage.NewMemoryCache(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	logger.Info("connected to redis")
	return storage.NewRedisAdapter(rdb), func() { _ = rdb.Close() }, nil
}

func openPublisher(cfg *config.Config, logger *zap.Logger) (port.EventPublisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("no kafka brokers configured, events disabled")
		return messaging.NopPublisher{}, func() {}, nil
	}

	writer, err := messaging.NewTracedWriter(
		messaging.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderEventsTopic),
		cfg.ServiceName,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka writer: %w", err)
	}

	producer := messaging.NewProducer(writer, producerBuffer, logger.Named("producer"))
	producer.Start()
	logger.Info("publishing events",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.OrderEventsTopic),
	)
	return messaging.NewKafkaPublisher(producer, cfg.ServiceName), producer.Close, nil
}
