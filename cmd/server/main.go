package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ledgerapp "github.com/ledgerline/backend/internal/application/ledger"
	"github.com/ledgerline/backend/internal/domain/ledger"
	"github.com/ledgerline/backend/internal/infrastructure/auth"
	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/infrastructure/persistence"
	"github.com/ledgerline/backend/internal/interfaces/http/handler"
	"github.com/ledgerline/backend/internal/interfaces/http/middleware"
	"github.com/ledgerline/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ledgerline backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories and the transactional unit of work
	repos := persistence.NewLedgerRepositories(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Domain services
	factory := ledger.NewAllocationStrategyFactory(cfg.Ledger.AutoDistributeAdvances)
	matcher := ledger.NewMatcher(
		ledger.WithMaxCandidates(cfg.Ledger.ReconcileMaxCandidates),
		ledger.WithTimeBudget(cfg.Ledger.ReconcileTimeBudget),
	)

	// Application services
	paymentService := ledgerapp.NewPaymentService(txManager, repos, factory, nil, log)
	reconciliationService := ledgerapp.NewReconciliationService(repos, matcher, log)
	balanceService := ledgerapp.NewBalanceService(repos, log)

	// HTTP engine and middleware chain
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(corsCfg),
		middleware.JWTAuthWithConfig(middleware.JWTConfig{
			JWTService: jwtService,
			SkipPaths:  []string{"/health", "/healthz", "/ready"},
			Logger:     log,
		}),
	)

	// Handlers and routes
	systemHandler := handler.NewSystemHandler(db)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/healthz", systemHandler.Health)

	router.NewRouter(engine).
		Register(handler.NewPaymentHandler(paymentService, cfg.Ledger.WriteConflictRetries)).
		Register(handler.NewReconciliationHandler(reconciliationService)).
		Register(handler.NewBalanceHandler(balanceService)).
		Register(systemHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
