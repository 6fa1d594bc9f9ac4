package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/books"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/provider/oddsapi"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/refresher"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/store"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	fmt.Println("=== Fortuna EV Engine v0 ===")

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	config := loadConfig()

	if config.OddsAPIKey == "" {
		fmt.Println("❌ ODDS_API_KEY is required")
		os.Exit(1)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.RedisURL,
		Password: config.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	// Book registry: configured priority first, Alexandria overlay if available
	registry := books.NewRegistry(config.SharpBooks)
	if config.AlexandriaDSN != "" {
		db, err := sql.Open("postgres", config.AlexandriaDSN)
		if err != nil {
			fmt.Printf("❌ Failed to open Alexandria: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			fmt.Printf("⚠️  Alexandria unreachable, using configured books: %v\n", err)
		} else if err := registry.LoadFromDB(ctx, db, len(config.SharpBooks) > 0); err != nil {
			fmt.Printf("⚠️  Failed to load books table, using configured books: %v\n", err)
		} else {
			fmt.Println("✓ Book registry loaded from Alexandria")
		}
	}
	fmt.Printf("  Sharp priority: %s\n", strings.Join(registry.SharpPriority(), ", "))

	// Core pipeline and collaborators
	evPipeline := pipeline.New(registry, pipeline.Config{
		TargetVig: config.TargetVig,
		Formula:   pipeline.Formula(config.EVFormula),
	})
	oddsClient := oddsapi.New(config.OddsAPIKey, config.OddsAPIRegions)
	snapshots := store.NewSnapshotStore(redisClient)
	ref := refresher.New(oddsClient, evPipeline, snapshots, config.Sports, config.RefreshInterval, config.FetchDelay)

	// HTTP surface
	handler := handlers.NewHandler(snapshots, ref)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handler.HealthCheck)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/odds/{sportKey}", handler.GetOdds)
		r.Get("/ev/{sportKey}", handler.GetOpportunities)
		r.Post("/refresh/{sportKey}", handler.TriggerRefresh)
	})

	// Start the refresh scheduler
	refreshCtx, cancelRefresh := context.WithCancel(context.Background())
	defer cancelRefresh()
	go ref.Run(refreshCtx)

	server := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("✓ EV engine listening on :%s\n", config.Port)
		fmt.Printf("  Sports: %s\n", strings.Join(config.Sports, ", "))
		fmt.Printf("  Refresh interval: %s\n", config.RefreshInterval)
		errChan <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			fmt.Printf("❌ Server error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("🛑 Shutting down gracefully...")
	cancelRefresh()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("⚠️  Error shutting down server: %v\n", err)
	}

	fmt.Println("✓ Shutdown complete")
}

// Config holds EV engine configuration
type Config struct {
	Port            string
	RedisURL        string
	RedisPassword   string
	AlexandriaDSN   string
	OddsAPIKey      string
	OddsAPIRegions  string
	Sports          []string
	SharpBooks      []string
	TargetVig       float64
	EVFormula       string
	RefreshInterval time.Duration
	FetchDelay      time.Duration
	CORSOrigins     []string
}

// loadConfig loads configuration from environment variables
func loadConfig() Config {
	return Config{
		Port:            getEnv("PORT", "8085"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		AlexandriaDSN:   os.Getenv("ALEXANDRIA_DSN"),
		OddsAPIKey:      os.Getenv("ODDS_API_KEY"),
		OddsAPIRegions:  getEnv("ODDS_API_REGIONS", "us"),
		Sports:          getEnvStringSlice("SPORTS", []string{"basketball_nba", "americanfootball_nfl", "baseball_mlb"}),
		SharpBooks:      getEnvStringSlice("SHARP_BOOKS", nil),
		TargetVig:       getEnvFloat("TARGET_VIG", 0), // 0 = pipeline default (0.04)
		EVFormula:       getEnv("EV_FORMULA", ""),
		RefreshInterval: time.Duration(getEnvInt("REFRESH_INTERVAL_MINUTES", 120)) * time.Minute,
		FetchDelay:      time.Duration(getEnvInt("FETCH_DELAY_MS", 1000)) * time.Millisecond,
		CORSOrigins:     getEnvStringSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
	}
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
