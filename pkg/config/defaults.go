package config

import "time"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultAppEnv = EnvProduction

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "travelpay"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisDB   = 0
	DefaultDedupeTTL = 24 * time.Hour

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultTossAPIBaseURL  = "https://api.tosspayments.com"
	DefaultKakaoBaseURL    = "https://kapi.kakao.com"
	DefaultKakaoCID        = "TC0ONETIME"
	DefaultProviderTimeout = 10 * time.Second

	DefaultKafkaEnabled          = false
	DefaultPaymentEventsTopic    = "payment-status-events"
	DefaultPaymentEventsDLQTopic = "payment-status-events-dlq"
	DefaultPublishTimeout        = 3 * time.Second

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 35 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
