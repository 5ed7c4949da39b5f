package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/api"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/auth"
	cartcache "github.com/TwinkleMedia/EASC-new-sub000/internal/cart/cache"
	cartrepo "github.com/TwinkleMedia/EASC-new-sub000/internal/cart/repository"
	cartservice "github.com/TwinkleMedia/EASC-new-sub000/internal/cart/service"
	checkoutrepo "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/repository"
	checkoutservice "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/service"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/coupon"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/entitlement"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/payments"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment")
	}

	// Configuration
	port := getEnv("PORT", "8080")
	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDBName := getEnv("MONGO_DB_NAME", "cartdb")
	backendBaseURL := getEnv("BACKEND_BASE_URL", "http://localhost:5000")
	authBaseURL := getEnv("AUTH_BASE_URL", backendBaseURL)
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	ctx := context.Background()

	// Cart storage
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, mongoURI, mongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	repo := cartrepo.NewMongoRepository(mongoDB)
	if err := repo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", mongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	// Payment session storage
	cred := &checkoutrepo.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvInt("DB_PORT", 5432),
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "checkout"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "internal/checkout/repository/migrations"),
	}
	sessionRepo, err := checkoutrepo.NewRepository(cred)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer sessionRepo.Close()
	if err := sessionRepo.RunMigrations(cred); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to Postgres at %s:%d", cred.Host, cred.Port)

	// Collaborators
	catalog := coupon.NewCachedCatalog(
		coupon.NewHTTPCatalog(backendBaseURL, 10*time.Second),
		5*time.Minute,
	)
	paymentClient := payments.NewClient(backendBaseURL, 15*time.Second)
	authenticator := auth.NewHTTPAuthenticator(authBaseURL, 10*time.Second)
	publisher := entitlement.NewKafkaPublisher(kafkaBrokers...)
	defer publisher.Close()

	carts := cartservice.NewCartService(repo, cartcache.NewRedisCache(redisClient), catalog)
	checkout := checkoutservice.NewCheckoutService(sessionRepo, carts, paymentClient, publisher)

	router := api.NewRouter(carts, checkout, authenticator)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      otelhttp.NewHandler(router, "checkout-service"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Checkout service listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid %s=%q, using %d", key, value, fallback)
	}
	return fallback
}
