package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/laurel/config"
	clergyrepo "github.com/Ramsey-B/laurel/internal/repositories/clergy"
	consecrationrepo "github.com/Ramsey-B/laurel/internal/repositories/consecration"
	ordinationrepo "github.com/Ramsey-B/laurel/internal/repositories/ordination"
	organizationrepo "github.com/Ramsey-B/laurel/internal/repositories/organization"
	rankrepo "github.com/Ramsey-B/laurel/internal/repositories/rank"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/events"
	"github.com/Ramsey-B/laurel/pkg/graph"
	"github.com/Ramsey-B/laurel/pkg/integrity"
	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/legacy"
	"github.com/Ramsey-B/laurel/pkg/lineage"
	"github.com/Ramsey-B/laurel/pkg/middleware"
	"github.com/Ramsey-B/laurel/pkg/records"
	clergyroute "github.com/Ramsey-B/laurel/pkg/routes/clergy"
	consecrationroute "github.com/Ramsey-B/laurel/pkg/routes/consecration"
	"github.com/Ramsey-B/laurel/pkg/routes/health"
	legacyroute "github.com/Ramsey-B/laurel/pkg/routes/legacy"
	lineageroute "github.com/Ramsey-B/laurel/pkg/routes/lineage"
	ordinationroute "github.com/Ramsey-B/laurel/pkg/routes/ordination"
	organizationroute "github.com/Ramsey-B/laurel/pkg/routes/organization"
	rankroute "github.com/Ramsey-B/laurel/pkg/routes/rank"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/Ramsey-B/laurel/pkg/tracing/exporters"
)

const version = "1.0.0"

func newLogger(cfg config.Config) (ectologger.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func connectionString(cfg config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)
}

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Printf("failed to build logger: %v\n", err)
		os.Exit(1)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(&exporters.ConsoleExporter{}),
	)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, connectionString(cfg))
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
	defer sqlxDB.Close()

	db := database.NewDatabaseInstance(sqlxDB, logger)

	migrationDriver, err := postgres.WithInstance(sqlxDB.DB, &postgres.Config{})
	if err != nil {
		logger.WithError(err).Error("failed to create migration driver")
		os.Exit(1)
	}
	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})
	if err := migrationService.Migrate(cfg.DatabaseName, migrationDriver); err != nil {
		logger.WithError(err).Error("failed to run database migrations")
		os.Exit(1)
	}

	clergyRepo := clergyrepo.NewRepository(db, logger)
	ordinationRepo := ordinationrepo.NewRepository(db, logger)
	consecrationRepo := consecrationrepo.NewRepository(db, logger)
	rankRepo := rankrepo.NewRepository(db, logger)
	organizationRepo := organizationrepo.NewRepository(db, logger)

	maintainer := integrity.NewMaintainer(clergyRepo, ordinationRepo, consecrationRepo, logger)

	var emitter records.ChangeEmitter
	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	var projector records.LineageProjector
	var syncProjector lineageroute.Projector
	var graphClient *graph.Client
	if cfg.GraphDBEnabled {
		graphClient, err = graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			logger.WithError(err).Error("failed to connect to graph database")
			os.Exit(1)
		}
		defer graphClient.Close(context.Background())
		graphProjector := graph.NewProjector(graphClient, logger)
		projector = graphProjector
		syncProjector = graphProjector
	}

	recordsService := records.NewService(db, clergyRepo, ordinationRepo, consecrationRepo, maintainer, emitter, projector, logger)
	lineageService := lineage.NewService(clergyRepo, ordinationRepo, consecrationRepo, logger)
	migrator := legacy.NewMigrator(db, clergyRepo, ordinationRepo, consecrationRepo, logger)

	if cfg.LegacyMigrationOnStartup {
		result, err := migrator.Run(context.Background())
		if err != nil {
			logger.WithError(err).Error("startup legacy migration failed")
		} else if !result.AlreadyMigrated {
			logger.WithFields(map[string]any{
				"ordinations_created":     result.OrdinationsCreated,
				"consecrations_created":   result.ConsecrationsCreated,
				"co_consecrators_created": result.CoConsecratorsCreated,
			}).Info("startup legacy migration complete")
		}
	}

	// rebuild the graph database mirror so it reflects the migrated records
	if syncProjector != nil {
		if snapshot, err := lineageService.BuildGraph(context.Background()); err != nil {
			logger.WithError(err).Error("startup lineage projection sync failed")
		} else if err := syncProjector.SyncLineage(context.Background(), snapshot); err != nil {
			logger.WithError(err).Error("startup lineage projection sync failed")
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	api := e.Group("/api/v1")
	clergyroute.NewHandler(recordsService).Register(api.Group("/clergy"))
	ordinationroute.NewHandler(recordsService).Register(api.Group("/ordinations"))
	consecrationroute.NewHandler(recordsService).Register(api.Group("/consecrations"))
	rankroute.NewHandler(rankRepo).Register(api.Group("/ranks"))
	organizationroute.NewHandler(organizationRepo).Register(api.Group("/organizations"))
	lineageroute.NewHandler(lineageService, syncProjector).Register(api.Group("/lineage"))
	legacyroute.NewHandler(migrator).Register(api.Group("/legacy"))

	var graphCheck interface {
		VerifyConnectivity(ctx context.Context) error
	}
	if graphClient != nil {
		graphCheck = graphClient
	}
	checker := health.NewChecker(sqlxDB, graphCheck, version)
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:    time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:    time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server stopped")
			os.Exit(1)
		}
	}()
	logger.WithFields(map[string]any{"port": cfg.Port}).Info("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	checker.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("failed to shut down cleanly")
	}
}
