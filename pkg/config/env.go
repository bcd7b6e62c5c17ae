package config

const (
	EnvAppEnv = "APP_ENV"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvDedupeTTL     = "DEDUPE_TTL"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvTossSecretKey   = "TOSS_PAYMENTS_SECRET_KEY"
	EnvTossAPIBaseURL  = "TOSS_API_BASE_URL"
	EnvKakaoAdminKey   = "KAKAO_ADMIN_KEY"
	EnvKakaoCID        = "KAKAO_CID"
	EnvKakaoBaseURL    = "KAKAO_API_BASE_URL"
	EnvProviderTimeout = "PROVIDER_TIMEOUT"

	EnvKafkaEnabled          = "KAFKA_ENABLED"
	EnvPaymentEventsTopic    = "PAYMENT_EVENTS_TOPIC"
	EnvPaymentEventsDLQTopic = "PAYMENT_EVENTS_DLQ_TOPIC"
	EnvPublishTimeout        = "PUBLISH_TIMEOUT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
