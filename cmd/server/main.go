package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	authhttp "github.com/putridev/sparx-shop/internal/auth/httpserver"
	authmodels "github.com/putridev/sparx-shop/internal/auth/models"
	authrepo "github.com/putridev/sparx-shop/internal/auth/repo"
	authsvc "github.com/putridev/sparx-shop/internal/auth/service"
	carthttp "github.com/putridev/sparx-shop/internal/cart/httpserver"
	cartmodels "github.com/putridev/sparx-shop/internal/cart/models"
	cartrepo "github.com/putridev/sparx-shop/internal/cart/repo"
	cartsvc "github.com/putridev/sparx-shop/internal/cart/service"
	cataloghttp "github.com/putridev/sparx-shop/internal/catalog/httpserver"
	"github.com/putridev/sparx-shop/internal/catalog/mirror"
	catalogmodels "github.com/putridev/sparx-shop/internal/catalog/models"
	catalogrepo "github.com/putridev/sparx-shop/internal/catalog/repo"
	catalogsvc "github.com/putridev/sparx-shop/internal/catalog/service"
	"github.com/putridev/sparx-shop/internal/es"
	"github.com/putridev/sparx-shop/internal/events"
	orderhttp "github.com/putridev/sparx-shop/internal/order/httpserver"
	ordermodels "github.com/putridev/sparx-shop/internal/order/models"
	orderrepo "github.com/putridev/sparx-shop/internal/order/repo"
	ordersvc "github.com/putridev/sparx-shop/internal/order/service"
	reporthttp "github.com/putridev/sparx-shop/internal/report/httpserver"
	reportsvc "github.com/putridev/sparx-shop/internal/report/service"
	settingshttp "github.com/putridev/sparx-shop/internal/settings/httpserver"
	settingsmodels "github.com/putridev/sparx-shop/internal/settings/models"
	settingsrepo "github.com/putridev/sparx-shop/internal/settings/repo"
	settingssvc "github.com/putridev/sparx-shop/internal/settings/service"
	"github.com/putridev/sparx-shop/internal/storage"
	"github.com/putridev/sparx-shop/internal/watch"
	"github.com/putridev/sparx-shop/pkg/config"
	pkgdb "github.com/putridev/sparx-shop/pkg/db"
	"github.com/putridev/sparx-shop/pkg/logging"
	authmw "github.com/putridev/sparx-shop/pkg/middleware/auth"
	loggingmw "github.com/putridev/sparx-shop/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	config.MustNonEmpty(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	if err := db.AutoMigrate(
		&catalogmodels.Product{},
		&cartmodels.Record{},
		&ordermodels.Order{},
		&ordermodels.Item{},
		&authmodels.User{},
		&authmodels.RefreshToken{},
		&authmodels.PasswordReset{},
		&settingsmodels.Record{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	var producer events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewKafkaProducer(cfg.KafkaBrokers)
	} else {
		logger.Warn("kafka disabled, events will be dropped")
	}
	defer producer.Close()

	catalogService := &catalogsvc.CatalogService{
		Repo:     &catalogrepo.GormRepo{DB: db},
		Hub:      watch.NewHub(),
		Producer: producer,
	}
	if cfg.ESURL != "" {
		client, err := es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		catalogService.ES = client
	} else {
		logger.Warn("elasticsearch disabled, search falls back to the database")
	}

	var store *storage.Client
	if cfg.StorageURL != "" {
		store = storage.NewClient(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)
	} else {
		logger.Warn("object storage disabled, images resolve to the placeholder")
	}

	var signer mirror.SignedURLCreator
	if store != nil {
		signer = store
	}
	productMirror := mirror.New(signer)

	cartService := &cartsvc.CartService{
		Repo:     &cartrepo.GormRepo{DB: db},
		Products: productMirror,
	}
	productMirror.OnUpdate(cartService.OnCatalogUpdate)
	productMirror.Start(catalogService.Hub)
	defer productMirror.Stop()

	orderService := &ordersvc.OrderService{
		Repo:        &orderrepo.GormRepo{DB: db},
		Products:    productMirror,
		Stock:       catalogService,
		Cart:        cartService,
		Producer:    producer,
		ShippingFee: cfg.ShippingFee,
	}
	if store != nil {
		orderService.Store = store
	}

	authService := &authsvc.AuthService{
		Repo:          &authrepo.GormRepo{DB: db},
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AdminEmails:   cfg.AdminEmails,
		Producer:      producer,
	}

	settingsService := &settingssvc.SettingsService{
		Repo: &settingsrepo.GormRepo{DB: db},
		Hub:  catalogService.Hub,
	}

	reportService := &reportsvc.ReportService{
		Orders:  orderService.Repo,
		Catalog: catalogService.Repo,
	}

	startupCtx := logging.IntoContext(context.Background(), logger)
	if err := catalogService.PublishSnapshot(startupCtx); err != nil {
		log.Fatalf("initial catalog snapshot: %v", err)
	}
	if err := settingsService.PublishSnapshot(startupCtx); err != nil {
		log.Fatalf("initial settings snapshot: %v", err)
	}
	if err := authService.Repo.PruneExpired(startupCtx); err != nil {
		logger.Warn("token prune failed", "error", err)
	}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	mw := authmw.New(cfg.JWTAccessSecret)

	cataloghttp.Register(e, &cataloghttp.Deps{
		CatalogHandler: &cataloghttp.CatalogHTTP{Svc: catalogService, Mirror: productMirror},
		AuthMW:         mw,
	})
	carthttp.Register(e, &carthttp.Deps{
		CartHandler: &carthttp.CartHTTP{Svc: cartService},
		AuthMW:      mw,
	})
	orderhttp.Register(e, &orderhttp.Deps{
		OrderHandler: &orderhttp.OrderHTTP{Svc: orderService},
		AuthMW:       mw,
	})
	authhttp.Register(e, &authhttp.Deps{
		AuthHandler: &authhttp.AuthHTTP{Svc: authService},
		AuthMW:      mw,
	})
	settingshttp.Register(e, &settingshttp.Deps{
		SettingsHandler: &settingshttp.SettingsHTTP{Svc: settingsService},
		AuthMW:          mw,
	})
	reporthttp.Register(e, &reporthttp.Deps{
		ReportHandler: &reporthttp.ReportHTTP{Svc: reportService},
		AuthMW:        mw,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("%s listening on %s", cfg.ServiceName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Printf("%s stopped", cfg.ServiceName)
}
