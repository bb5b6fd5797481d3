package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"resort_concierge/internal/adapters/observability"
	"resort_concierge/internal/adapters/platform"
	redisad "resort_concierge/internal/adapters/redis"
	"resort_concierge/internal/app"
	"resort_concierge/internal/shared"
	mysqlrepo "resort_concierge/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	cities := cfg.POICities
	if len(os.Args) > 1 {
		cities = os.Args[1:]
	}
	if len(cities) == 0 {
		log.Fatal().Msg("no cities: set POI_CITIES or pass them as arguments")
	}

	log.Info().
		Str("base", cfg.PlatformBase).
		Int("workers", cfg.SyncWorkers).
		Int("cities", len(cities)).
		Msg("poi sync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := platform.New(cfg.PlatformBase, cfg.PlatformKey, cfg.PlatformRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize platform client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	syncer := app.NewCatalogSync(client, repo, cache)
	sem := semaphore.NewWeighted(int64(cfg.SyncWorkers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, city := range cities {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("sync interrupted")
			break
		}

		wg.Add(1)
		go func(city string) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := syncer.SyncCity(ctx, city)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("city", city).Err(err).Msg("sync failed")
				return
			}
			log.Info().Str("city", city).Int("pois", n).Msg("sync ok")
		}(city)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Error().Int32("failed", n).Msg("poi sync completed with failures")
		os.Exit(1)
	}
	log.Info().Msg("poi sync completed")
}
