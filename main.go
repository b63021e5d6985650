package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tableside-order-services/internal/accounts"
	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/catalog"
	"tableside-order-services/internal/config"
	"tableside-order-services/internal/db"
	"tableside-order-services/internal/floor"
	httpapi "tableside-order-services/internal/http"
	"tableside-order-services/internal/http/handlers"
	"tableside-order-services/internal/logger"
	"tableside-order-services/internal/loyalty"
	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/printing"
	"tableside-order-services/internal/queue"
	"tableside-order-services/internal/reports"
	"tableside-order-services/internal/staff"
	"tableside-order-services/internal/storage"
	"tableside-order-services/internal/tenant"
	"tableside-order-services/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			log.Fatal("JWT_SECRET is required in production")
		}
		log.Warn("JWT_SECRET is empty; staff sign-in will fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	tenantStore := tenant.NewPGStore(pool)
	resolver := tenant.NewResolver(tenantStore, cfg.BaseDomain, cfg.TenantOverrideParam, cfg.Env != "production")
	resolver.SetTTL(cfg.TenantCacheTTL)

	var (
		images  handlers.ImageStore
		archive printing.Archiver
	)
	storeCfg := storage.Config{
		Endpoint:        cfg.ObjectStoreEndpoint,
		Region:          cfg.ObjectStoreRegion,
		AccessKeyID:     cfg.ObjectStoreAccessKeyID,
		SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
		Bucket:          cfg.ObjectStoreBucket,
		PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
		StorageClass:    cfg.ObjectStoreStorageClass,
	}
	if storeCfg.Enabled() {
		objectStore, err := storage.NewObjectStore(ctx, storeCfg)
		if err != nil {
			log.Warn("object store unavailable; image upload and receipt archive disabled", zap.Error(err))
		} else {
			images = objectStore
			archive = objectStore
			log.Info("object store enabled", zap.String("bucket", cfg.ObjectStoreBucket))
		}
	}

	var device printing.Device
	if cfg.PrinterAddr != "" {
		device = printing.NetworkPrinter{Addr: cfg.PrinterAddr, Timeout: cfg.PrintTimeout}
	}
	processor := &printing.Processor{Tenants: tenantStore, Archive: archive, Device: device, Logger: log}

	var (
		sink   printing.Sink
		shared bool
	)
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err == nil {
			err = queue.EnsurePrintJobsTopology(qc)
			if err != nil {
				_ = qc.Close()
				qc = nil
			}
		}
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq setup failed", zap.Error(err))
			}
			log.Warn("rabbitmq setup failed; printing inline", zap.Error(err))
		}
		if qc != nil {
			defer qc.Close()
			sink = printing.QueueSink{Client: qc}
			shared = true
			if cfg.PrintServer && cfg.RabbitMQWorkerMode == "daemon" {
				log.Info("print worker enabled", zap.String("queue", queue.PrintJobsQueue))
				go func() {
					err := qc.ConsumeWithRetry(ctx, queue.PrintJobsQueue, processor.Handle, cfg.PrintRetries, cfg.PrintRetryWait, log)
					if err != nil && ctx.Err() == nil {
						log.Error("print worker stopped", zap.Error(err))
					}
				}()
			} else {
				log.Info("print worker disabled", zap.Bool("printServer", cfg.PrintServer), zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("print queue disabled (RABBITMQ_URL is empty)")
	}
	if sink == nil && (device != nil || archive != nil) {
		sink = processor
	}

	dispatcher := printing.NewDispatcher(sink, printing.Options{
		PrintServer: cfg.PrintServer,
		AutoPrint:   cfg.AutoPrint,
		Shared:      shared,
		Timeout:     cfg.PrintTimeout,
	}, log)
	log.Info("printing configured", zap.Bool("automatic", dispatcher.Automatic()), zap.Bool("device", device != nil))

	ordersService := orders.NewService(orders.NewPGStore(pool), dispatcher, log)
	staffStore := staff.NewPGStore(pool)

	hub := ws.NewHub(ordersService, log)
	go ws.Listen(ctx, pool, hub, log)
	wsServer := ws.NewServer(hub, log, cfg.WSHeartbeatInterval, cfg.CorsAllowedOrigins)

	h := &handlers.Handler{
		Logger:   log,
		Config:   cfg,
		Tenants:  tenantStore,
		Resolver: resolver,
		Catalog:  catalog.NewService(catalog.NewPGStore(pool)),
		Floor:    floor.NewService(floor.NewPGStore(pool)),
		Orders:   ordersService,
		Loyalty:  loyalty.NewService(loyalty.NewPGStore(pool), log),
		Accounts: accounts.NewService(accounts.NewPGStore(pool), log),
		Activity: activity.NewPGStore(pool),
		Reports:  reports.NewService(reports.NewPGStore(pool)),
		Staff:    staff.NewService(staffStore, log),
		Printer:  dispatcher,
		Images:   images,
	}

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(h, staffStore, wsServer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("tableside api ready", zap.String("base", "/api"))
		log.Info("tableside ws ready", zap.String("base", "/ws"))
		log.Info("tableside service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	cancel()
	dispatcher.Close()
}
