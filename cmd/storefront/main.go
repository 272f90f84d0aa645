package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/andeanmarket/storefront/internal/cart"
	"github.com/andeanmarket/storefront/internal/catalog"
	"github.com/andeanmarket/storefront/internal/checkout"
	"github.com/andeanmarket/storefront/internal/database"
	"github.com/andeanmarket/storefront/internal/httpapi"
	"github.com/andeanmarket/storefront/internal/metrics"
	"github.com/andeanmarket/storefront/internal/order"
	"github.com/andeanmarket/storefront/internal/payment"
	"github.com/andeanmarket/storefront/internal/stock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	Postgres database.Credentials

	MongoURI string
	MongoDB  string

	RedisAddr string

	KafkaBrokers []string
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Postgres: database.Credentials{
			Host:              getEnv("POSTGRES_HOST", "localhost"),
			Port:              getEnvInt("POSTGRES_PORT", 5432),
			User:              getEnv("POSTGRES_USER", "postgres"),
			Password:          getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:            getEnv("POSTGRES_DB", "storefront"),
			MigrationsDirPath: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "storefront"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	db, err := database.Connect(&cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, &cfg.Postgres); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	mongoCtx, cancelMongo := context.WithTimeout(ctx, 15*time.Second)
	mongoDB, err := cart.ConnectMongoDB(mongoCtx, cfg.MongoURI, cfg.MongoDB)
	cancelMongo()
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			log.Printf("failed to disconnect mongodb: %v", err)
		}
	}()

	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("failed to create cart indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var events checkout.EventPublisher = checkout.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := checkout.NewKafkaPublisher(cfg.KafkaBrokers...)
		defer kp.Close()
		events = kp
		log.Printf("publishing order events to kafka at %v", cfg.KafkaBrokers)
	} else {
		log.Println("KAFKA_BROKERS not set, order events disabled")
	}

	cat := catalog.NewPostgresStore(db)
	ledger := stock.NewPostgresLedger(db)
	orders := order.NewPostgresRepository(db)
	payments := payment.NewPostgresRepository(db)
	carts := cart.NewService(cartRepo, cart.NewRedisCache(redisClient), cat, ledger)

	orch := checkout.NewOrchestrator(
		carts,
		order.NewBuilder(orders, cat, ledger),
		orders,
		payment.NewCollector(payments, orders, ledger),
		payments,
		ledger,
		checkout.NewSession(redisClient),
		events,
		metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
	)

	router := httpapi.NewRouter(
		httpapi.NewProductHandler(cat),
		httpapi.NewCartHandler(carts),
		httpapi.NewCheckoutHandler(orch),
		httpapi.NewOrdersHandler(orders, payments),
		httpapi.NewAdminHandler(orch, orders, cat, ledger),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
