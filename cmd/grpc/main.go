package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-aisle-service/config"
	"github.com/fekuna/omnipos-aisle-service/internal/auth"
	"github.com/fekuna/omnipos-aisle-service/internal/freshness"
	"github.com/fekuna/omnipos-aisle-service/pkg/broker"
	"github.com/fekuna/omnipos-aisle-service/pkg/cache"
	"github.com/fekuna/omnipos-aisle-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-aisle-service/pkg/i18n"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"github.com/fekuna/omnipos-aisle-service/pkg/search"

	"github.com/fekuna/omnipos-aisle-service/internal/analytics"
	analyticsRepoPkg "github.com/fekuna/omnipos-aisle-service/internal/analytics/repository"
	analyticsSinkPkg "github.com/fekuna/omnipos-aisle-service/internal/analytics/sink"

	catRepoPkg "github.com/fekuna/omnipos-aisle-service/internal/catalog/repository"
	catUCPkg "github.com/fekuna/omnipos-aisle-service/internal/catalog/usecase"

	"github.com/fekuna/omnipos-aisle-service/internal/dashboard"
	dashH "github.com/fekuna/omnipos-aisle-service/internal/dashboard/handler"

	invH "github.com/fekuna/omnipos-aisle-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-aisle-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-aisle-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-aisle-service/internal/inventory/usecase"

	searchPkg "github.com/fekuna/omnipos-aisle-service/internal/search"
	searchH "github.com/fekuna/omnipos-aisle-service/internal/search/handler"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 1.5 Initialize i18n
	i18n.Init()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	searchLogRepo := analyticsRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5.5 Initialize Elasticsearch
	var sinks []analytics.Sink
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			// Search logs are still kept in Postgres
			appLogger.Warn("Could not connect to Elasticsearch, search log export disabled", zap.Error(err))
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := esClient.CreateIndex(ctx, cfg.Elastic.Index, analyticsSinkPkg.Mapping); err != nil {
				appLogger.Warn("Could not create search log index", zap.String("index", cfg.Elastic.Index), zap.Error(err))
			}
			cancel()
			sinks = append(sinks, analyticsSinkPkg.NewElasticSink(esClient, cfg.Elastic.Index))
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 6. Initialize UseCases
	catUC := catUCPkg.NewCatalogUseCase(catRepo, redisClient, cfg.Inventory.CatalogCacheTTL, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, catUC, redisClient, invUCPkg.Options{
		ExpiringSoonDays:  cfg.Inventory.ExpiringSoonDays,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		LockTTL:           cfg.Inventory.LockTTL,
		RefreshInterval:   cfg.Inventory.RefreshInterval,
	}, appLogger)
	searchStats := analytics.NewService(searchLogRepo, analytics.Options{
		WarmupDays:      cfg.Search.WarmupDays,
		RefreshInterval: cfg.Search.RefreshInterval,
	}, appLogger, sinks...)
	resolver := searchPkg.NewResolver(catUC, invUC, searchStats, freshness.NewClassifier(cfg.Inventory.ExpiringSoonDays), appLogger)
	aggregator := dashboard.NewAggregator(invUC, searchStats, dashboard.Options{
		AlertItemLimit:   cfg.Inventory.AlertItemLimit,
		TopQueriesLimit:  cfg.Search.TopQueriesLimit,
		UnfulfilledLimit: cfg.Search.UnfulfilledLimit,
		WindowDays:       cfg.Search.WindowDays,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6.5 Initialize Listeners
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		orderListener := invListenerPkg.NewOrderListener(kafkaConsumer, invUC, catUC, appLogger)
		go orderListener.Start(ctx)
	}

	// 7. Initialize Handlers
	invHandler := invH.NewInventoryHandler(invUC, cfg.Inventory.AlertItemLimit, appLogger)
	searchHandler := searchH.NewSearchHandler(resolver, appLogger)
	dashHandler := dashH.NewDashboardHandler(aggregator, appLogger)

	// 8. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(auth.ContextInterceptor()),
	)

	// Register Services
	grpcServer.RegisterService(&invH.ServiceDesc, invHandler)
	grpcServer.RegisterService(&searchH.ServiceDesc, searchHandler)
	grpcServer.RegisterService(&dashH.ServiceDesc, dashHandler)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
