package main

import (
	"context"
	"rentacar/internal/auth"
	bookingshandler "rentacar/internal/bookings/handler"
	bookingsrepository "rentacar/internal/bookings/repository"
	bookingsservice "rentacar/internal/bookings/service"
	bookingsvalidator "rentacar/internal/bookings/validator"
	carshandler "rentacar/internal/cars/handler"
	carsrepository "rentacar/internal/cars/repository"
	carsservice "rentacar/internal/cars/service"
	carsvalidator "rentacar/internal/cars/validator"
	usershandler "rentacar/internal/users/handler"
	usersrepository "rentacar/internal/users/repository"
	usersservice "rentacar/internal/users/service"
	usersvalidator "rentacar/internal/users/validator"
	"rentacar/pkg/app"
	"rentacar/pkg/config"
	"rentacar/pkg/contracts"
	"rentacar/pkg/events"
	"rentacar/pkg/kafka"
	kafkamiddleware "rentacar/pkg/kafka/middleware"
	"rentacar/pkg/middleware"
	"rentacar/pkg/storage"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ServiceName         = "rentacar"
	eventPublishTimeout = 5 * time.Second
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting rentacar service")
	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg, serverApp.Registry())
	serverApp.OnShutdown(publisher)

	images := initStorage(cfg)

	userRepo := usersrepository.NewMongoUserRepository(cfg)
	carRepo := carsrepository.NewMongoCarRepository(cfg)
	bookingRepo := bookingsrepository.NewMongoBookingRepository(cfg)

	userService := usersservice.NewUserService(userRepo, usersvalidator.NewUserValidator(cfg.Log), publisher, cfg)
	carService := carsservice.NewCarService(carRepo, bookingRepo, images, carsvalidator.NewCarValidator(cfg.Log), cfg)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		bookingsrepository.NewBookingLockRepository(cfg),
		userRepo,
		carRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	sessions, err := auth.NewManager(cfg.JWTSecret, cfg.CookieSecret, cfg.IsProduction())
	if err != nil {
		cfg.Log.Fatal("Failed to initialize sessions", "error", err)
	}
	guard := auth.NewGuard(sessions, userService, cfg.Log)
	loginLimit := auth.Adapt(serverApp.LoginRateLimit())

	userHandler := usershandler.NewUserHandler(userService, sessions, cfg)
	adminHandler := usershandler.NewAdminHandler(userService, cfg.Log)
	carHandler := carshandler.NewCarHandler(carService, cfg.Log)
	bookingHandler := bookingshandler.NewBookingHandler(bookingService, cfg.Log)

	err = serverApp.SetApp(
		contracts.HandlerFunc(func(router *httprouter.Router) {
			usershandler.RegisterRoutes(router, userHandler, adminHandler, guard, loginLimit)
		}),
		contracts.HandlerFunc(func(router *httprouter.Router) {
			carHandler.RegisterRoutes(router, guard)
		}),
		contracts.HandlerFunc(func(router *httprouter.Router) {
			bookingHandler.RegisterRoutes(router, guard)
		}),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to configure application", "error", err)
	}
	serverApp.Run()
}

// initPublisher returns a Kafka publisher, or a no-op one when no broker is
// configured.
func initPublisher(cfg *config.Config, reg prometheus.Registerer) events.Publisher {
	if !cfg.EventsEnabled() {
		cfg.Log.Info("Kafka brokers not configured, domain events disabled")
		return events.Noop()
	}

	producerCfg := kafka.DefaultProducerConfig(cfg.KafkaBrokers, cfg.KafkaTopic)
	producerCfg.DLQTopic = cfg.KafkaDLQTopic
	producerCfg.ErrorLogger = func(msg string, args ...any) {
		cfg.Log.Error("kafka writer error", "detail", msg, "args", args)
	}
	producer, err := kafka.NewProducer(producerCfg)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	producer.Use(kafkamiddleware.Logging(cfg.Log))
	if cfg.MetricsEnabled {
		metrics, err := kafkamiddleware.NewMetrics(reg)
		if err != nil {
			cfg.Log.Fatal("Failed to register Kafka metrics", "error", err)
		}
		producer.Use(metrics.Middleware())
	}

	cfg.Log.Info("Kafka producer initialized", "brokers", cfg.KafkaBrokers, "topic", producer.Topic(), "dlq_topic", cfg.KafkaDLQTopic)
	return events.NewKafkaPublisher(producer, cfg.Log, eventPublishTimeout, middleware.RequestIDFromContext)
}

func initStorage(cfg *config.Config) storage.Store {
	if !cfg.ObjectStorageEnabled() {
		cfg.Log.Info("Object storage not configured, car image upload disabled")
		return storage.Disabled()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	store, err := storage.NewMinio(ctx, storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		cfg.Log.Fatal("Failed to initialize object storage", "error", err)
	}
	cfg.Log.Info("Object storage initialized", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	return store
}
