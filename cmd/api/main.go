package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/payment"
	"storefront/internal/publisher"
	orderrepo "storefront/internal/repository/order"
	otprepo "storefront/internal/repository/otp"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var (
		otps        = otprepo.NewMemory()
		catalog     cache.CatalogCache
		readyChecks = map[string]httpserver.Pinger{}
	)
	if cfg.RedisAddr != "" {
		rdb, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		defer rdb.Close()
		otps = otprepo.NewRedis(rdb)
		catalog = cache.NewRedisCache(rdb, cfg.CatalogCacheTTL)
		readyChecks["redis"] = httpserver.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		logger.Printf("redis enabled addr=%s", cfg.RedisAddr)
	}

	orders, closeOrders, err := orderStore(ctx, cfg, dbpool, readyChecks, logger)
	if err != nil {
		logger.Fatalf("order store: %v", err)
	}
	defer closeOrders()

	var events publisher.Publisher = publisher.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		events = publisher.NewKafka(cfg.KafkaOrderTopic, cfg.KafkaBrokers...)
		logger.Printf("order events enabled topic=%s brokers=%v", cfg.KafkaOrderTopic, cfg.KafkaBrokers)
	}
	defer events.Close()

	if cfg.PaymentKeyID == "" || cfg.PaymentKeySecret == "" {
		logger.Printf("payment gateway credentials missing; card payments will fail")
	}
	gateway := payment.NewRazorpayClient(payment.ClientConfig{
		BaseURL:   cfg.PaymentBaseURL,
		KeyID:     cfg.PaymentKeyID,
		KeySecret: cfg.PaymentKeySecret,
		Timeout:   cfg.UpstreamTimeout,
	}, logger)
	payments := payment.NewCoordinator(gateway, cfg.PaymentKeySecret, cfg.PaymentCurrency, logger)

	userService := usersvc.New(userrepo.NewPostgres(dbpool, logger), otps, usersvc.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL), usersvc.Options{
		OTPTTL: cfg.OTPTTL,
		Logger: logger,
	})
	productService := productsvc.New(productrepo.NewPostgres(dbpool, logger), catalog, logger)
	orderService := ordersvc.New(orders, payments, userService, events, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Users:    userService,
		Products: productService,
		Payments: payments,
		Orders:   orderService,
	}, httpserver.Options{
		CORSOrigins: cfg.CORSOrigins,
		ReadyChecks: readyChecks,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// orderStore picks the order ledger backend. Postgres is the default; Mongo
// is used when ORDER_STORE=mongo and then joins the readiness checks.
func orderStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, checks map[string]httpserver.Pinger, logger *log.Logger) (orderrepo.Repository, func(), error) {
	if cfg.OrderStore != "mongo" {
		return orderrepo.NewPostgres(pool, logger), func() {}, nil
	}
	mdb, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, nil, err
	}
	if err := orderrepo.EnsureIndexes(ctx, mdb); err != nil {
		_ = mdb.Client().Disconnect(ctx)
		return nil, nil, err
	}
	checks["mongo"] = httpserver.PingFunc(func(ctx context.Context) error {
		return mdb.Client().Ping(ctx, nil)
	})
	logger.Printf("order store: mongo database=%s", cfg.MongoDatabase)
	return orderrepo.NewMongo(mdb, logger), func() {
		_ = mdb.Client().Disconnect(context.Background())
	}, nil
}
