package main

import (
	"travelpay/internal/payments/events"
	"travelpay/internal/payments/handler"
	"travelpay/internal/payments/provider"
	"travelpay/internal/payments/repository"
	"travelpay/internal/payments/service"
	"travelpay/internal/payments/validator"
	"travelpay/pkg/app"
	"travelpay/pkg/config"
	"travelpay/pkg/dedupe"
	"travelpay/pkg/kafka"
	kafka_config "travelpay/pkg/kafka/config"
	kafka_middleware "travelpay/pkg/kafka/middleware"
)

const ServiceName = "travelpay-payments"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting payments service")
	serverApp := app.NewApplication()

	guard := initGuard(cfg)
	serverApp.OnShutdown(guard.Stop)

	publisher, producer := initPublisher(cfg)
	if producer != nil {
		serverApp.OnShutdown(func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		})
	}

	paymentService := initServices(cfg, guard, publisher)
	setupServer(serverApp, cfg, paymentService)
	serverApp.Run()
}

func setupServer(serverApp *app.Application, cfg *config.Config, paymentService service.PaymentService) {
	serverApp.SetApp(cfg,
		handler.NewPaymentHandler(paymentService, cfg.Log),
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Client.Redis, cfg.Log),
	)
}

func initGuard(cfg *config.Config) dedupe.Guard {
	if cfg.Client.Redis != nil {
		cfg.Log.Info("Duplicate guard backed by Redis", "ttl", cfg.DedupeTTL)
		return dedupe.NewRedisGuard(cfg.Client.Redis, cfg.DedupeTTL)
	}
	cfg.Log.Warn("Duplicate guard backed by process memory; duplicates are only caught per instance", "ttl", cfg.DedupeTTL)
	return dedupe.NewMemoryGuard(cfg.DedupeTTL)
}

func initPublisher(cfg *config.Config) (events.Publisher, *kafka.Producer) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, payment status events are not published")
		return events.NoopPublisher{}, nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, cfg.PaymentEventsTopic, cfg.PaymentEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Kafka producer initialized", "topic", cfg.PaymentEventsTopic, "dlq_topic", cfg.PaymentEventsDLQTopic)
	return events.NewKafkaPublisher(producer), producer
}

func initServices(cfg *config.Config, guard dedupe.Guard, publisher events.Publisher) service.PaymentService {
	gateways := provider.NewRegistry(
		provider.NewTossGateway(provider.TossConfig{
			SecretKey: cfg.TossSecretKey,
			BaseURL:   cfg.TossAPIBaseURL,
			Timeout:   cfg.ProviderTimeout,
		}),
		provider.NewKakaoGateway(provider.KakaoConfig{
			AdminKey: cfg.KakaoAdminKey,
			CID:      cfg.KakaoCID,
			BaseURL:  cfg.KakaoBaseURL,
			Timeout:  cfg.ProviderTimeout,
		}),
	)

	paymentService := service.NewPaymentService(
		repository.NewMongoPaymentRepository(cfg),
		repository.NewMongoOrderRepository(cfg),
		gateways,
		guard,
		publisher,
		validator.NewPaymentValidator(),
		cfg.Log,
		service.Options{
			AllowUnsignedWebhooks: cfg.IsDevelopment(),
			PublishTimeout:        cfg.PublishTimeout,
		},
	)

	cfg.Log.Info("Payment service initialized",
		"database", cfg.MongoDatabaseName,
		"allow_unsigned_webhooks", cfg.IsDevelopment(),
	)
	return paymentService
}
