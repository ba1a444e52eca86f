package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hernannicolaus/api-turnos-hospital/internal/api"
	"github.com/hernannicolaus/api-turnos-hospital/internal/config"
	"github.com/hernannicolaus/api-turnos-hospital/internal/db"
	"github.com/hernannicolaus/api-turnos-hospital/internal/lock"
	redisclient "github.com/hernannicolaus/api-turnos-hospital/internal/redis"
	"github.com/hernannicolaus/api-turnos-hospital/internal/scheduling"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s store=%s", cfg.Env, cfg.HTTPPort, cfg.StoreBackend)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo   scheduling.Repository
		locker lock.Locker
		pgPool *pgxpool.Pool
		rdb    *redis.Client
	)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PGMaxConns)
		cancelPg()
		if err != nil {
			log.Fatalf("postgres connection error: %v", err)
		}
		defer pgPool.Close()
		log.Println("connected to Postgres")

		schemaCtx, cancelSchema := context.WithTimeout(rootCtx, 10*time.Second)
		err = db.EnsureSchema(schemaCtx, pgPool)
		cancelSchema()
		if err != nil {
			log.Fatalf("schema error: %v", err)
		}

		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connection error: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		log.Println("connected to Redis")

		repo = scheduling.NewPgRepository(pgPool)
		locker = lock.NewRedisScheduleLocker(rdb, cfg.LockTTL)

	case config.BackendMemory:
		repo = scheduling.NewMemoryRepository()
		locker = lock.NewMutexScheduleLocker()
		log.Println("using in-memory store")
	}

	svc := scheduling.NewService(repo, locker)

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}

	log.Println("api-server stopped")
}
