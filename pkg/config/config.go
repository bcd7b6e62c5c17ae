package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"travelpay/pkg/client"
	"travelpay/pkg/logger"
)

type Config struct {
	AppEnv string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DedupeTTL     time.Duration

	Port string

	TossSecretKey   string
	TossAPIBaseURL  string
	KakaoAdminKey   string
	KakaoCID        string
	KakaoBaseURL    string
	ProviderTimeout time.Duration

	KafkaEnabled          bool
	PaymentEventsTopic    string
	PaymentEventsDLQTopic string
	PublishTimeout        time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	appEnv := getEnvStr(EnvAppEnv, DefaultAppEnv)

	cfg := &Config{
		AppEnv: appEnv,

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),
		DedupeTTL:     getEnvDuration(EnvDedupeTTL, DefaultDedupeTTL),

		Port: getEnvStr(EnvPort, DefaultPort),

		TossSecretKey:   getEnvStr(EnvTossSecretKey, ""),
		TossAPIBaseURL:  getEnvStr(EnvTossAPIBaseURL, DefaultTossAPIBaseURL),
		KakaoAdminKey:   getEnvStr(EnvKakaoAdminKey, ""),
		KakaoCID:        getEnvStr(EnvKakaoCID, DefaultKakaoCID),
		KakaoBaseURL:    getEnvStr(EnvKakaoBaseURL, DefaultKakaoBaseURL),
		ProviderTimeout: getEnvDuration(EnvProviderTimeout, DefaultProviderTimeout),

		KafkaEnabled:          getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		PaymentEventsTopic:    getEnvStr(EnvPaymentEventsTopic, DefaultPaymentEventsTopic),
		PaymentEventsDLQTopic: getEnvStr(EnvPaymentEventsDLQTopic, DefaultPaymentEventsDLQTopic),
		PublishTimeout:        getEnvDuration(EnvPublishTimeout, DefaultPublishTimeout),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log:    newLogger(serviceName, appEnv),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func newLogger(serviceName, appEnv string) *logger.Logger {
	format := logger.JSON
	if appEnv == EnvDevelopment {
		format = logger.TEXT
	}
	return logger.New(logger.Config{
		Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:    format,
		AddSource: true,
		Service:   serviceName,
		Env:       appEnv,
	})
}

// IsDevelopment reports whether signature failures may be tolerated.
func (cfg *Config) IsDevelopment() bool {
	return cfg.AppEnv == EnvDevelopment
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects Redis when REDIS_ADDR is configured; otherwise it is a no-op.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Warn("REDIS_ADDR not set, duplicate guard falls back to process memory")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if cfg.AppEnv != EnvDevelopment && cfg.AppEnv != EnvProduction && cfg.AppEnv != "test" {
		errors = append(errors, fmt.Sprintf("AppEnv must be one of [development, production, test], got: %s", cfg.AppEnv))
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.DedupeTTL <= 0 {
		errors = append(errors, fmt.Sprintf("DedupeTTL must be positive, got: %s", cfg.DedupeTTL))
	}

	if cfg.AppEnv == EnvProduction {
		if cfg.TossSecretKey == "" {
			errors = append(errors, "TossSecretKey is required in production")
		}
		if cfg.KakaoAdminKey == "" {
			errors = append(errors, "KakaoAdminKey is required in production")
		}
	}
	if _, err := url.ParseRequestURI(cfg.TossAPIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("TossAPIBaseURL must be a valid URL, got: %s", cfg.TossAPIBaseURL))
	}
	if _, err := url.ParseRequestURI(cfg.KakaoBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("KakaoBaseURL must be a valid URL, got: %s", cfg.KakaoBaseURL))
	}
	if cfg.KakaoCID == "" {
		errors = append(errors, "KakaoCID cannot be empty")
	}
	if cfg.ProviderTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ProviderTimeout must be positive, got: %s", cfg.ProviderTimeout))
	}

	if cfg.KafkaEnabled && cfg.PaymentEventsTopic == "" {
		errors = append(errors, "PaymentEventsTopic cannot be empty when Kafka is enabled")
	}
	if cfg.PublishTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("PublishTimeout must be positive, got: %s", cfg.PublishTimeout))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"app_env", cfg.AppEnv,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"dedupe_ttl", cfg.DedupeTTL,
		"port", cfg.Port,
		"toss_secret_set", cfg.TossSecretKey != "",
		"toss_api_base_url", cfg.TossAPIBaseURL,
		"kakao_admin_key_set", cfg.KakaoAdminKey != "",
		"kakao_cid", cfg.KakaoCID,
		"kakao_api_base_url", cfg.KakaoBaseURL,
		"provider_timeout", cfg.ProviderTimeout,
		"kafka_enabled", cfg.KafkaEnabled,
		"payment_events_topic", cfg.PaymentEventsTopic,
		"payment_events_dlq_topic", cfg.PaymentEventsDLQTopic,
		"publish_timeout", cfg.PublishTimeout,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}
