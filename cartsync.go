// Package cartsync assembles the cart synchronization client from
// configuration: the HTTP gateway behind a circuit breaker, the snapshot
// store, the optimistic mutation engine and the totals calculator.
package cartsync

import (
	"github.com/soleshop/cart-sync/config"
	"github.com/soleshop/cart-sync/internal/circuitbreaker"
	"github.com/soleshop/cart-sync/internal/domain/model"
	"github.com/soleshop/cart-sync/internal/engine"
	"github.com/soleshop/cart-sync/internal/gateway"
	"github.com/soleshop/cart-sync/internal/store"
	"github.com/soleshop/cart-sync/internal/totals"
)

// Option overrides part of the default wiring.
type Option func(*Client)

// WithGateway replaces the HTTP gateway, e.g. with a custom transport.
// The breaker settings in the configuration do not apply to a replaced
// gateway; wrap it yourself if you want one.
func WithGateway(gw gateway.Gateway) Option {
	return func(c *Client) {
		c.gateway = gw
	}
}

// Client is one shopper session's cart: a store holding the local
// snapshot, the engine that mutates it, and a calculator deriving display
// totals. Create one per session and Close it when the session ends.
type Client struct {
	gateway    gateway.Gateway
	store      *store.Store
	engine     *engine.Engine
	calculator *totals.CalculatorService
}

// New builds a Client from cfg. The gateway points at cfg.Gateway.BaseURL
// with the configured timeout and breaker thresholds, the engine's
// stale-response guard follows cfg.Engine, and the calculator takes its
// free-shipping threshold and fee from cfg.Pricing.
func New(cfg config.Config, opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.gateway == nil {
		httpClient := gateway.NewHTTPClient(cfg.Gateway.BaseURL,
			gateway.WithTimeout(cfg.Gateway.Timeout),
		)
		breaker := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.Gateway.CircuitBreakerFailureThreshold,
			SuccessThreshold: cfg.Gateway.CircuitBreakerSuccessThreshold,
			OpenTimeout:      cfg.Gateway.CircuitBreakerOpenTimeout,
			Name:             "cart-gateway",
		})
		c.gateway = gateway.NewBreakerGateway(httpClient, breaker)
	}

	c.store = store.New()

	var engineOpts []engine.Option
	if cfg.Engine.StaleResponseGuard {
		engineOpts = append(engineOpts, engine.WithStaleResponseGuard())
	}
	c.engine = engine.New(c.store, c.gateway, engineOpts...)

	c.calculator = totals.NewCalculatorService(
		totals.WithFreeShippingThreshold(cfg.Pricing.FreeShippingThreshold),
		totals.WithShippingFee(cfg.Pricing.ShippingFee),
	)
	return c
}

// Engine returns the mutation engine, the only writer of the cart.
func (c *Client) Engine() *engine.Engine {
	return c.engine
}

// Store returns the snapshot store for reads and subscriptions.
func (c *Client) Store() *store.Store {
	return c.store
}

// Calculator returns the configured totals calculator.
func (c *Client) Calculator() totals.Calculator {
	return c.calculator
}

// Totals derives display totals from the current snapshot.
func (c *Client) Totals() model.DerivedTotals {
	return c.calculator.Calculate(c.store.Snapshot())
}

// Close tears down the session store. Subsequent mutations return
// engine.ErrSessionClosed.
func (c *Client) Close() {
	c.store.Close()
}
