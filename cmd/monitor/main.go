package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/dealradar/promo-monitor/internal/classifier"
	"github.com/dealradar/promo-monitor/internal/collector"
	"github.com/dealradar/promo-monitor/internal/config"
	"github.com/dealradar/promo-monitor/internal/pkg/logger"
	"github.com/dealradar/promo-monitor/internal/pkg/runlock"
	"github.com/dealradar/promo-monitor/internal/repository/postgres"
	"github.com/dealradar/promo-monitor/internal/scheduler"
	"github.com/dealradar/promo-monitor/internal/service/reconcile"
	"github.com/dealradar/promo-monitor/internal/state"
	"github.com/dealradar/promo-monitor/internal/status"
	"github.com/dealradar/promo-monitor/internal/telegram"
)

// checkPortAvailable verifies that the status port is not already in use.
// This catches a stale monitor process before we connect anything.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Promo Monitor (cmd/monitor/main.go)                      ║")
	log.Println("║  Telegram chat polling + promotion extraction pipeline    ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.Info("configuration loaded",
		"chats", len(cfg.Telegram.ChatIDs),
		"poll_interval", cfg.Monitor.Interval().String(),
		"batch_size", cfg.Monitor.BatchSize,
		"fetch_limit", cfg.Telegram.FetchLimit,
		"model", cfg.OpenAI.Model,
		"phone", cfg.Telegram.Phone,
	)

	// Pre-flight check: verify the status port is available
	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", cfg.Server.Port)

	// PostgreSQL
	dsn := cfg.Database.DSN()
	if !strings.Contains(dsn, "connect_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "connect_timeout=5"
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Pool limits sized for a single-run batch pipeline, not a request server.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database ping failed: %v", err)
	}
	pingCancel()
	log.Println("Connected to PostgreSQL")

	// Redis is optional; without it the run lock falls back to PG advisory locks.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — falling back to PG advisory locks", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s (cross-process run lock enabled)", cfg.Redis.Addr)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured (REDIS_ADDR not set) — using PG advisory locks for the run lock")
	}

	// Wire the pipeline: gateway -> classifier -> reconciler -> watermarks.
	gateway := telegram.NewClient(cfg.Telegram)
	cls := classifier.New(classifier.NewOpenAIExtractor(cfg.OpenAI))
	reconciler := reconcile.NewService(postgres.NewMessageRepo(db))
	store := state.NewStore(cfg.Monitor.StateFile)

	coll := collector.New(gateway, cls, reconciler, store, collector.Config{
		ChatIDs:    cfg.Telegram.ChatIDs,
		FetchLimit: cfg.Telegram.FetchLimit,
		BatchSize:  cfg.Monitor.BatchSize,
	})

	lock := runlock.New(redisClient, db, "promo-monitor:poll", cfg.Monitor.RunLockTTL())

	ctx, cancel := context.WithCancel(context.Background())

	sched := scheduler.New(coll, lock, cfg.Monitor.Interval())
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	log.Printf("Polling %d chat(s) every %s", len(cfg.Telegram.ChatIDs), cfg.Monitor.Interval())

	// Status server
	checker := status.NewHealthChecker(db, redisClient)
	srv := status.NewServer(coll, checker, status.Info{
		ChatsMonitored: len(cfg.Telegram.ChatIDs),
		PollInterval:   cfg.Monitor.Interval().String(),
		BatchSize:      cfg.Monitor.BatchSize,
	})

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		log.Printf("Status server listening on %s", addr)
		if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Status server error: %v", err)
		}
	}()

	log.Println("All services initialized — monitor is running")

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done
	log.Println("Shutting down...")

	// Cancel the in-flight run first so a long cycle winds down at the next
	// chat boundary, then wait for the scheduler to drain.
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Status server shutdown error: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Monitor stopped")
}
