// Package main runs the cart development gateway, an in-process stand-in
// for the remote cart service that the sync SDK talks to.
package main

import (
	"github.com/rs/zerolog/log"

	"github.com/soleshop/cart-sync/config"
	"github.com/soleshop/cart-sync/internal/app"
)

func main() {
	cfg := config.Load()

	router, cleanup, err := app.InitializeApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Initialization failed")
	}
	defer cleanup()

	server := app.NewServer(router, cfg.Server.Port)
	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
