package main

import (
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/config"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/consumer"
)

type settings struct {
	service        string
	port           string
	grpcPort       string
	databaseURL    string
	dbMaxConns     int
	migrateOnStart bool

	redisAddr     string
	redisPassword string
	redisDB       int
	cacheTTL      time.Duration
	cachePrefix   string

	kafkaBrokers  string
	kafkaGroupID  string
	consumeTopics []string

	fold           availability.FoldPolicy
	warmInterval   time.Duration
	warmHorizon    int
	warmWorkers    int
	rateLimit      int
	bodyLimit      int64
	requestTimeout time.Duration
	corsOrigins    []string
}

func loadSettings() (settings, error) {
	var (
		s   settings
		err error
	)
	s.service = config.String("SERVICE_NAME", "availability-service")
	if s.port, err = config.Port("PORT", "8090"); err != nil {
		return s, err
	}
	if s.grpcPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return s, err
	}
	if s.databaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		return s, err
	}
	if s.dbMaxConns, err = config.Int("DB_MAX_CONNS", 10); err != nil {
		return s, err
	}
	if s.migrateOnStart, err = config.Bool("MIGRATE_ON_START", false); err != nil {
		return s, err
	}

	s.redisAddr = config.String("REDIS_ADDR", "")
	s.redisPassword = config.String("REDIS_PASSWORD", "")
	if s.redisDB, err = config.Int("REDIS_DB", 0); err != nil {
		return s, err
	}
	if s.cacheTTL, err = config.Duration("SLOT_CACHE_TTL", 10*time.Minute); err != nil {
		return s, err
	}
	s.cachePrefix = config.String("SLOT_CACHE_PREFIX", "slots")

	s.kafkaBrokers = config.String("KAFKA_BROKERS", "")
	s.kafkaGroupID = config.String("KAFKA_GROUP_ID", "availability-service")
	s.consumeTopics = config.List("KAFKA_BOOKING_TOPICS", []string{consumer.TopicBookingBooked, consumer.TopicBookingCancelled})

	if s.fold, err = availability.ParseFoldPolicy(config.String("DST_FOLD_POLICY", "later")); err != nil {
		return s, err
	}
	if s.warmInterval, err = config.Duration("WARMER_INTERVAL", 5*time.Minute); err != nil {
		return s, err
	}
	if s.warmHorizon, err = config.Int("WARMER_HORIZON_DAYS", 7); err != nil {
		return s, err
	}
	if s.warmWorkers, err = config.Int("WARMER_CONCURRENCY", 4); err != nil {
		return s, err
	}
	if s.rateLimit, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return s, err
	}
	bodyLimit, err := config.Int("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return s, err
	}
	s.bodyLimit = int64(bodyLimit)
	if s.requestTimeout, err = config.Duration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return s, err
	}
	s.corsOrigins = config.List("CORS_ALLOWED_ORIGINS", nil)
	return s, nil
}
