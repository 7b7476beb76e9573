// Query router service entry point.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/retail-query-kernel/internal/cache"
	"github.com/retail-query-kernel/internal/catalog"
	"github.com/retail-query-kernel/internal/config"
	"github.com/retail-query-kernel/internal/keywords"
	"github.com/retail-query-kernel/internal/nlu"
	"github.com/retail-query-kernel/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("starting retail query router")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Vocabulary
	dictionary := keywords.Default()
	if cfg.VocabularyPath != "" {
		dictionary, err = keywords.Load(cfg.VocabularyPath)
		if err != nil {
			logger.Fatal("failed to load vocabulary", zap.Error(err))
		}
	}
	dict := keywords.NewHolder(dictionary)
	loc, info, neg := dictionary.Counts()
	logger.Info("vocabulary loaded",
		zap.Int("location_terms", loc),
		zap.Int("information_terms", info),
		zap.Int("negation_terms", neg))

	// Catalog
	store := catalog.NewMemoryStore(logger)
	index, err := catalog.NewIndex(catalog.IndexConfig{
		IndexPath: cfg.Catalog.IndexPath,
		InMemory:  cfg.Catalog.InMemory,
		Fuzziness: cfg.Catalog.Fuzziness,
		MaxHits:   cfg.Catalog.MaxHits,
	}, store, logger)
	if err != nil {
		logger.Fatal("failed to open catalog index", zap.Error(err))
	}
	defer index.Close()

	if cfg.Catalog.SeedPath != "" {
		entries, err := catalog.LoadSeed(cfg.Catalog.SeedPath)
		if err != nil {
			logger.Fatal("failed to load catalog seed", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := index.AddBatch(ctx, entries); err != nil {
			cancel()
			logger.Fatal("failed to seed catalog", zap.Error(err))
		}
		cancel()
		logger.Info("catalog seeded", zap.Int("products", len(entries)))
	}

	lookups := catalog.NewCachedLookup(index, cfg.Catalog.LookupCacheLen, cfg.Catalog.LookupCacheTTL, logger)

	// Route cache
	var routeCache *cache.RouteCache
	if cfg.Cache.Enabled {
		var redisClient *redis.Client
		if cfg.Cache.RedisAddress != "" {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddress})
		}
		routeCache, err = cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL, redisClient, logger)
		if err != nil {
			logger.Fatal("failed to create route cache", zap.Error(err))
		}
		defer routeCache.Close()
	}

	// Router
	router, err := nlu.Build(cfg.Routing.ToNLU(), dict, lookups, logger)
	if err != nil {
		logger.Fatal("failed to build query router", zap.Error(err))
	}

	srv := server.New(server.Config{
		JWTSecret:      cfg.Auth.JWTSecret,
		AuthEnabled:    cfg.Auth.Enabled,
		VocabularyPath: cfg.VocabularyPath,
	}, router, index, lookups, routeCache, dict, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)

	logger.Info("shutdown complete")
}
