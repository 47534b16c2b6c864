// Package app provides initialization and dependency wiring for the
// development gateway binary.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/soleshop/cart-sync/config"
	"github.com/soleshop/cart-sync/internal/devgateway"
	"github.com/soleshop/cart-sync/internal/logger"
)

// InitializeApp wires the development gateway: logger, cart repository,
// seeded catalog, session manager and router. The returned cleanup function
// releases any database connection and is safe to call once.
func InitializeApp(cfg config.Config) (*gin.Engine, func(), error) {
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, cleanup, err := initializeRepository(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	catalog := devgateway.NewCatalog(devgateway.SeedProducts())
	sessions := devgateway.NewSessionManager(cfg.Session.JWTSecret, cfg.Session.TTL)
	handler := devgateway.NewHandler(repo, catalog)

	return devgateway.NewRouter(handler, sessions, cfg.Server), cleanup, nil
}

// initializeRepository selects the cart store. Carts live in memory unless
// MongoDB is enabled by configuration.
func initializeRepository(cfg config.DatabaseConfig) (devgateway.CartRepository, func(), error) {
	if !cfg.Enabled {
		log.Info().Msg("Using in-memory cart repository")
		return devgateway.NewMemoryCartRepository(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := devgateway.Connect(ctx, cfg.URI, cfg.DatabaseName)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	log.Info().Str("database", cfg.DatabaseName).Msg("Using MongoDB cart repository")
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}
	return devgateway.NewMongoCartRepository(db), cleanup, nil
}
