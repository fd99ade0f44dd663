package main

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicslots/libs/otel"
	"github.com/md-rashed-zaman/clinicslots/libs/runtime"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/admin"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/cache"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/consumer"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/inbox"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/storage"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/warmer"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := loadSettings()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer runtime.Shutdown(logger, "otel", 5*time.Second, otelShutdown)
	}

	pool, err := db.Open(ctx, cfg.databaseURL, db.Options{MaxConns: int32(cfg.dbMaxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if cfg.migrateOnStart {
		if err := migrations.Apply(ctx, pool, logger); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
	}

	kafkaEnabled := len(kafkax.SplitBrokers(cfg.kafkaBrokers)) > 0
	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if kafkaEnabled {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.kafkaBrokers)})
	}

	var (
		rdb       *redis.Client
		daySets   *cache.DaySetCache
		engineCfg = availability.EngineConfig{Fold: cfg.fold}
		inv       admin.Invalidator
	)
	if cfg.redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()
		daySets = cache.NewDaySetCache(rdb, cfg.cacheTTL, cfg.cachePrefix)
		engineCfg.Cache = daySets
		inv = daySets
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: daySets.Ping})
		logger.Info("day set cache enabled", "redis_addr", cfg.redisAddr, "ttl", cfg.cacheTTL.String())
	}

	repo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository()
	engine := availability.NewEngine(repo, logger, engineCfg)
	adminSvc := admin.New(pool, repo, outboxRepo, inv, logger)

	if publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   cfg.kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	}); publisher != nil {
		go publisher.Run(ctx)
	}

	if kafkaEnabled {
		bookingConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
			Brokers: cfg.kafkaBrokers,
			GroupID: cfg.kafkaGroupID,
			Topics:  cfg.consumeTopics,
		}, consumer.BookingHandler(repo, logger))
		go bookingConsumer.Run(ctx)
	}

	if daySets != nil {
		w := warmer.New(engine, repo, logger, warmer.Config{
			Interval:    cfg.warmInterval,
			HorizonDays: cfg.warmHorizon,
			Concurrency: cfg.warmWorkers,
		})
		go w.Run(ctx)
	}

	if err := startGrpcServer(ctx, logger, cfg.grpcPort, engine); err != nil {
		logger.Error("grpc server failed", "err", err)
		panic(err)
	}

	slots := handlers.NewSlotsHandler(engine, logger, nil)
	adminHandler := handlers.NewAdminHandler(adminSvc, logger)

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/public/slots", slots.Slots)
	mux.HandleFunc("/api/v1/public/slots/check", slots.Check)
	mux.HandleFunc("/api/v1/admin/doctors", adminHandler.Doctors)
	mux.HandleFunc("/api/v1/admin/schedules", adminHandler.Schedules)
	mux.HandleFunc("/api/v1/admin/openings", adminHandler.Openings)
	mux.HandleFunc("/api/v1/admin/unavailability", adminHandler.Unavailability)

	var rateLimit httpx.Middleware
	if rdb != nil {
		rateLimit = httpx.NewRedisRateLimiter(rdb, cfg.rateLimit, time.Minute, cfg.cachePrefix+":rl").Middleware(logger, true)
	} else {
		rateLimit = httpx.NewRateLimiter(cfg.rateLimit, time.Minute).Middleware()
	}

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		rateLimit,
		httpx.WithBodyLimit(cfg.bodyLimit),
		httpx.WithTimeout(cfg.requestTimeout),
	)
	handler = otelhttp.NewHandler(handler, "availability")
	srv := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	runtime.Shutdown(logger, "http server", 10*time.Second, srv.Shutdown)
}
