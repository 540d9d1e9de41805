package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blackline/auth"
	"blackline/cart"
	"blackline/catalog"
	"blackline/config"
	"blackline/db"
	"blackline/filemgr"
	"blackline/gallery"
	"blackline/metrics"
	"blackline/middleware"
	"blackline/mq"
	"blackline/orders"
	"blackline/ratelim"
	"blackline/rdx"
	"blackline/routes"
	"blackline/store"
	"blackline/store/memory"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// openStore connects the configured driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		return memory.New(), nil
	}
	d, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// buildHandler wires services, routes and the outer middleware chain:
// recover → logging → metrics → security headers → CORS → router.
func buildHandler(cfg *config.Config, log *logrus.Logger, st store.Stores, rdb *redis.Client) (http.Handler, error) {
	locker := rdx.NewLocker(rdb)
	events := mq.NewPublisher(rdb, log.WithField("component", "events"))

	authSvc := auth.NewService(st, cfg.JWTSecret, cfg.JWTTTL)
	gate := &middleware.Gate{Auth: authSvc, Log: log}

	catalogSvc := catalog.NewService(st, rdx.NewCache(rdb, "blackline:", time.Minute, log), log)
	cartSvc := &cart.Service{
		Carts:       st,
		Products:    st,
		Locker:      locker,
		Log:         log.WithField("component", "cart"),
		StrictStock: cfg.CartStrictStock,
	}
	orderSvc := &orders.Service{
		Carts:         st,
		Products:      st,
		Orders:        st,
		Users:         st,
		Locker:        locker,
		Events:        events,
		Log:           log.WithField("component", "orders"),
		StockMode:     orders.StockMode(cfg.OrderStockMode),
		OnStockChange: catalogSvc.Invalidate,
	}
	gallerySvc := &gallery.Service{Photos: st, Locker: locker, Log: log.WithField("component", "gallery")}

	uploads, err := filemgr.New(cfg.UploadDir, cfg.UploadMaxBytes, log.WithField("component", "uploads"))
	if err != nil {
		return nil, err
	}

	limiter := ratelim.NewRateLimiter(30, 10, 10*time.Minute)
	if err := limiter.TrustProxies(cfg.TrustedProxyList()); err != nil {
		return nil, err
	}

	router := routes.New(routes.Deps{
		Store:   st,
		Gate:    gate,
		Idem:    &middleware.Idempotency{Store: st, TTL: 24 * time.Hour, Log: log},
		Limiter: limiter,
		Log:     log,
		Auth:    &auth.Handlers{Auth: authSvc, Log: log},
		Catalog: &catalog.Handlers{Catalog: catalogSvc, Log: log},
		Cart:    &cart.Handlers{Cart: cartSvc, Log: log},
		Orders:  &orders.Handlers{Orders: orderSvc, Log: log},
		Gallery: &gallery.Handlers{Gallery: gallerySvc, Log: log},
		Uploads: uploads,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "x-session-id", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"x-session-id"},
		AllowCredentials: true,
	}).Handler(router)

	h := middleware.SecurityHeaders(corsHandler)
	h = metrics.InstrumentHandler(h)
	h = middleware.Logging(log)(h)
	h = middleware.Recover(log)(h)
	return h, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := cfg.Logger()

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	st, err := openStore(startCtx, cfg)
	if err != nil {
		cancel()
		log.WithError(err).Fatal("connect store")
	}
	rdb, err := rdx.Connect(startCtx, cfg.RedisURL)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("connect redis")
	}
	if rdb == nil {
		log.Info("REDIS_URL not set; using in-process locks and no product cache")
	}

	handler, err := buildHandler(cfg, log, st, rdb)
	if err != nil {
		log.WithError(err).Fatal("build handler")
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":   cfg.Addr(),
			"driver": cfg.StoreDriver,
			"stock":  cfg.OrderStockMode,
		}).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx, server, st, rdb, log); err != nil {
		log.WithError(err).Fatal("graceful shutdown")
	}
	log.Info("server stopped")
}

// shutdown drains in-flight requests, then closes the store and redis.
func shutdown(ctx context.Context, server *http.Server, st store.Stores, rdb *redis.Client, log logrus.FieldLogger) error {
	err := server.Shutdown(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cerr := st.Close(closeCtx); cerr != nil {
		log.WithError(cerr).Warn("close store")
	}
	if rdb != nil {
		if cerr := rdb.Close(); cerr != nil {
			log.WithError(cerr).Warn("close redis")
		}
	}
	return err
}
