// Package app wires the shared client graph: one credential store, one API
// client and one instance of each service, handed to every view-model.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"finboss/internal/amqp"
	"finboss/internal/api"
	"finboss/internal/config"
	"finboss/internal/credentials"
	applog "finboss/internal/log"
	"finboss/internal/services"
	"finboss/internal/trace"
	"finboss/internal/viewmodel"
)

type Container struct {
	Config      *config.Config
	Logger      *applog.Logger
	Credentials credentials.Store
	API         *api.Client
	// Events is nil when AMQP is not configured.
	Events *amqp.Client

	Auth         *services.AuthService
	Transactions *services.TransactionService
	Analytics    *services.AnalyticsService

	transport *api.LoggingTransport
	cleanups  []CleanupFunc
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	store credentials.Store
	api   api.Config
}

// WithCredentialStore bypasses the configured backend.
func WithCredentialStore(s credentials.Store) Option {
	return func(o *options) { o.store = s }
}

// WithHTTPClientConfig overrides API client settings other than the store.
func WithHTTPClientConfig(c api.Config) Option {
	return func(o *options) { o.api = c }
}

// New builds every shared dependency once. A broker that cannot be reached
// is logged and skipped; the client still works without event publishing.
func New(ctx context.Context, cfg *config.Config, logger *applog.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("app config is nil")
	}
	if logger == nil {
		logger = applog.Discard()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{Config: cfg, Logger: logger}

	store := o.store
	if store == nil {
		s, cleanup, err := NewCredentialStore(ctx, cfg, logger.WithComponent(applog.ComponentCredentials))
		if err != nil {
			return nil, err
		}
		store = s
		c.cleanups = append(c.cleanups, cleanup)
	}
	c.Credentials = store

	apiCfg := o.api
	apiCfg.Store = store
	if apiCfg.BaseURL == "" {
		apiCfg.BaseURL = cfg.APIBaseURL
	}
	if apiCfg.Logger == nil {
		apiCfg.Logger = logger
	}
	if apiCfg.HTTPClient == nil {
		c.transport = api.NewLoggingTransport(nil, apiCfg.Logger.WithComponent(applog.ComponentAPI))
		apiCfg.HTTPClient = &http.Client{Transport: c.transport}
	}
	client, err := api.New(apiCfg)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize API client: %w", err)
	}
	c.API = client

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		ac, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync", applog.FieldError, err)
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			c.Events = ac
			events = ac
			c.cleanups = append(c.cleanups, ac.Close)
		}
	}

	c.Auth = services.NewAuthService(client, store, logger, events)
	c.Transactions = services.NewTransactionService(client, logger, events)
	c.Analytics = services.NewAnalyticsService(client, logger)

	return c, nil
}

func (c *Container) MakeLoginViewModel() *viewmodel.LoginViewModel {
	return viewmodel.NewLoginViewModel(c.Auth)
}

func (c *Container) MakeRegisterViewModel() *viewmodel.RegisterViewModel {
	return viewmodel.NewRegisterViewModel(c.Auth)
}

func (c *Container) MakeHomeViewModel() *viewmodel.HomeViewModel {
	return viewmodel.NewHomeViewModel(c.Auth)
}

func (c *Container) MakeTransactionViewModel() *viewmodel.TransactionViewModel {
	return viewmodel.NewTransactionViewModel(c.Transactions)
}

func (c *Container) MakeAnalyticsViewModel() *viewmodel.AnalyticsViewModel {
	return viewmodel.NewAnalyticsViewModel(c.Analytics)
}

// RequestMetrics reports API request counters. They stay zero when a custom
// HTTP client was supplied.
func (c *Container) RequestMetrics() trace.Metrics {
	if c.transport == nil {
		return trace.Metrics{}
	}
	return c.transport.Metrics()
}

// Close logs request metrics and releases resources in reverse order of
// acquisition.
func (c *Container) Close() error {
	if m := c.RequestMetrics(); m.TotalRequests > 0 {
		c.Logger.Info("API request metrics",
			"total_requests", m.TotalRequests,
			"failed_requests", m.FailedRequests,
			"average_response_time", m.AverageResponseTime.String())
	}
	var errs []error
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		if err := c.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.cleanups = nil
	return errors.Join(errs...)
}
