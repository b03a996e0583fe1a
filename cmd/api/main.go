package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/cache"
	"github.com/GTDGit/shelf_api/internal/config"
	"github.com/GTDGit/shelf_api/internal/database"
	"github.com/GTDGit/shelf_api/internal/handler"
	"github.com/GTDGit/shelf_api/internal/metrics"
	"github.com/GTDGit/shelf_api/internal/middleware"
	"github.com/GTDGit/shelf_api/internal/realtime"
	"github.com/GTDGit/shelf_api/internal/repository"
	"github.com/GTDGit/shelf_api/internal/scanner"
	"github.com/GTDGit/shelf_api/internal/service"
	"github.com/GTDGit/shelf_api/internal/utils"
	"github.com/GTDGit/shelf_api/internal/worker"
)

// main is the application entrypoint for the shelf expiry tracker API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting shelf api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Initialize resolution memo and metrics
	resolutionCache := cache.NewResolutionCache(redisClient, cfg.Lookup.MemoTTL)
	m := metrics.New("shelf-api")

	// 4. Context for workers and long-lived streams
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Initialize repositories
	userRepo := repository.NewUserRepository(db)
	shopRepo := repository.NewShopRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	pushRepo := repository.NewPushSubscriptionRepository(db)

	// 6. Initialize services
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	authSvc := service.NewAuthService(userRepo, tokens)
	shopSvc := service.NewShopService(shopRepo)
	catalogSvc := service.NewCatalogService(productRepo)
	stockSvc := service.NewStockService(stockRepo, supplierRepo, catalogSvc, cfg.WhatsAppCountryCode)
	supplierSvc := service.NewSupplierService(supplierRepo, cfg.WhatsAppCountryCode)
	pushSvc := service.NewPushSubscriptionService(pushRepo)

	lookups := service.NewOpenFoodFactsLookups(cfg.Lookup.Sources, cfg.Lookup.UserAgent, cfg.Lookup.Timeout)
	resolver := service.NewResolverService(productRepo, lookups, resolutionCache, m, cfg.Lookup.Timeout)
	log.Info().Int("sources", len(lookups)).Msg("product lookup sources configured")

	// 6a. Scanner: bar decoding first, printed digits as fallback
	decoders := scanner.ChainDecoder{scanner.NewZXingDecoder()}
	if cfg.Scanner.TextDecoderEnabled {
		rek, err := newRekognitionClient(ctx, &cfg.AWS)
		if err != nil {
			log.Warn().Err(err).Msg("AWS config failed - text decoder will be disabled")
		} else {
			decoders = append(decoders, scanner.NewTextDecoder(rek))
			log.Info().Str("region", cfg.AWS.Region).Msg("text decoder enabled")
		}
	}

	// A detection warms the session's resolution so the client's lookup is memoized.
	scanManager := scanner.NewManager(decoders, cfg.Scanner.IdleTimeout, func(userID, sessionID string, det scanner.Detection) {
		m.ObserveDetection(det.Format)
		prefetchCtx, prefetchCancel := context.WithTimeout(ctx, cfg.Lookup.Timeout)
		defer prefetchCancel()
		res := resolver.Resolve(prefetchCtx, sessionID, det.Text)
		log.Debug().Str("user_id", userID).Str("session_id", sessionID).Str("barcode", det.Text).
			Str("source", string(res.Source)).Msg("detection prefetched")
	})

	// 6b. Realtime
	hub := realtime.NewHub(m)
	listener, err := realtime.NewListener(cfg.DB.DSN(), hub)
	if err != nil {
		log.Warn().Err(err).Msg("stock listener failed to start - clients will only see their own changes")
	} else {
		go listener.Start(ctx)
	}

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:           handler.NewHealthHandler(db, handler.PingFunc(redisClient.Ping)),
		Auth:             handler.NewAuthHandler(authSvc, middleware.NewInvalidAuthRateLimiter()),
		Shop:             handler.NewShopHandler(shopSvc),
		Stock:            handler.NewStockHandler(stockSvc, resolver, realtime.NewHubNotifier(hub)),
		Stream:           handler.NewStreamHandler(hub, stockSvc, supplierSvc),
		Supplier:         handler.NewSupplierHandler(supplierSvc),
		Product:          handler.NewProductHandler(resolver),
		Scan:             handler.NewScanHandler(scanManager),
		PushSubscription: handler.NewPushSubscriptionHandler(pushSvc),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(tokens, middleware.NewInvalidAuthRateLimiter())
	shopMw := middleware.NewShopMiddleware(shopSvc)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	router.Use(m.Middleware())
	router.GET("/metrics", gin.WrapH(m.Handler()))
	setupRoutes(router, handlers, jwtMw, shopMw)

	// 10. Start workers
	go worker.NewExpirySweepWorker(stockSvc, hub, cfg.Worker.ExpirySweepInterval).Start(ctx)

	// 11. Start HTTP server. Request contexts derive from ctx so open streams end on shutdown.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers, listener and streams
	cancel()
	scanManager.Shutdown()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health           *handler.HealthHandler
	Auth             *handler.AuthHandler
	Shop             *handler.ShopHandler
	Stock            *handler.StockHandler
	Stream           *handler.StreamHandler
	Supplier         *handler.SupplierHandler
	Product          *handler.ProductHandler
	Scan             *handler.ScanHandler
	PushSubscription *handler.PushSubscriptionHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware, shopMiddleware *middleware.ShopMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	auth := router.Group("/v1/auth")
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)
	auth.GET("/me", jwtMiddleware.Handle(), handlers.Auth.Me)

	// Routes for any signed-in user
	v1 := router.Group("/v1")
	v1.Use(jwtMiddleware.Handle())
	{
		v1.POST("/shops", handlers.Shop.Create)
		v1.GET("/shops/me", handlers.Shop.Mine)

		v1.GET("/products/lookup/:barcode", handlers.Product.Lookup)
		v1.GET("/products/:barcode/barcode.png", handlers.Product.BarcodeImage)

		v1.POST("/scan/sessions", handlers.Scan.Start)
		v1.POST("/scan/sessions/:id/frames", handlers.Scan.PushFrame)
		v1.GET("/scan/sessions/:id", handlers.Scan.Status)
		v1.DELETE("/scan/sessions/:id", handlers.Scan.Stop)

		v1.POST("/push-subscriptions", handlers.PushSubscription.Create)
		v1.GET("/push-subscriptions", handlers.PushSubscription.List)
		v1.DELETE("/push-subscriptions/:id", handlers.PushSubscription.Delete)
	}

	// Routes scoped to the owner's shop
	shop := v1.Group("")
	shop.Use(shopMiddleware.Handle())
	{
		shop.GET("/stock", handlers.Stock.List)
		shop.POST("/stock", handlers.Stock.Create)
		shop.GET("/stock/stream", handlers.Stream.Stream)
		shop.POST("/stock/:id/resolve", handlers.Stock.Resolve)
		shop.DELETE("/stock/:id", handlers.Stock.Delete)
		shop.GET("/alerts", handlers.Stock.Alerts)

		shop.GET("/suppliers", handlers.Supplier.List)
		shop.POST("/suppliers", handlers.Supplier.Create)
		shop.DELETE("/suppliers/:id", handlers.Supplier.Delete)
	}
}

// newRekognitionClient builds the Rekognition client behind the text decoder.
// Static keys are used when configured, otherwise the default AWS credential chain.
func newRekognitionClient(ctx context.Context, cfg *config.AWSConfig) (*rekognition.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return rekognition.NewFromConfig(awsCfg), nil
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
