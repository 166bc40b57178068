package main

import (
	"fmt"

	"github.com/shopmate/backend/config"
	"github.com/shopmate/backend/internal/domain"
	"github.com/shopmate/backend/internal/infrastructure/metrics"
	"github.com/shopmate/backend/internal/infrastructure/retailer"
	"github.com/shopmate/backend/internal/logging"
	"github.com/shopmate/backend/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds the wired use cases shared by every command.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	catalog   *domain.Catalog
	metrics   domain.SearchMetrics
	search    *usecase.SearchService
	optimizer *usecase.TripOptimizer
	resolver  *usecase.ItemResolver
	planner   *usecase.PlanService

	closers []func() error
}

// newApp loads configuration and wires retailers, metrics and use cases.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if level, _ := cmd.Flags().GetString("loglevel"); level != "" {
		cfg.Log.Level = level
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, catalog: domain.DefaultCatalog()}

	recorder, err := a.newMetrics()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.metrics = recorder

	preprocessor := usecase.NewQueryPreprocessor(log)
	a.search, err = usecase.NewSearchService(
		a.catalog,
		a.newAdapters(),
		recorder,
		preprocessor,
		usecase.SearchConfig{Timeout: cfg.Search.Timeout},
		log,
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.optimizer = usecase.NewTripOptimizer(a.catalog, decimal.NewFromFloat(cfg.Optimizer.AdvisoryThreshold))
	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		MinRelevance:        cfg.Resolver.MinRelevance,
		EnableFuzzyMatching: cfg.Resolver.FuzzyMatch,
	}, log)
	a.resolver = usecase.NewItemResolver(a.search, matcher, preprocessor, log)
	a.planner = usecase.NewPlanService(a.resolver, a.optimizer, log)

	return a, nil
}

func (a *app) newMetrics() (domain.SearchMetrics, error) {
	switch a.cfg.Metrics.Type {
	case "sqlite":
		recorder, err := metrics.NewSQLiteRecorder(a.cfg.Metrics.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open metrics database: %w", err)
		}
		a.closers = append(a.closers, recorder.Close)
		a.log.WithField("path", a.cfg.Metrics.SQLitePath).Info("Recording retailer searches to SQLite")
		return recorder, nil
	default:
		return metrics.NewMemoryRecorder(), nil
	}
}

// newAdapters builds one rate-limited transport and adapter per enabled retailer.
func (a *app) newAdapters() []domain.RetailerAdapter {
	cfg := a.cfg
	transport := func(store domain.StoreID) *retailer.Transport {
		return retailer.NewTransport(retailer.TransportConfig{
			Timeout:           cfg.HTTP.Timeout,
			RetryMax:          cfg.HTTP.RetryMax,
			RetryWaitMin:      cfg.HTTP.RetryWaitMin,
			RetryWaitMax:      cfg.HTTP.RetryWaitMax,
			UserAgent:         cfg.HTTP.UserAgent,
			RequestsPerSecond: cfg.RateLimit.RetailerRPS,
			Burst:             cfg.RateLimit.RetailerBurst,
		}, a.log.WithField("store", store))
	}

	var adapters []domain.RetailerAdapter
	placeholder := cfg.Retailers.PlaceholderImageURL

	if w := cfg.Retailers.Woolworths; w.Enabled {
		adapters = append(adapters, retailer.NewWoolworths(retailer.WoolworthsConfig{
			BaseURL:        w.BaseURL,
			PageSize:       w.PageSize,
			PlaceholderURL: placeholder,
		}, transport(domain.StoreWoolworths)))
	}

	if c := cfg.Retailers.Coles; c.Enabled {
		adapters = append(adapters, retailer.NewColes(retailer.ColesConfig{
			BaseURL:        c.BaseURL,
			ImageBaseURL:   c.ImageBaseURL,
			APIKey:         c.APIKey,
			StoreNumber:    c.StoreNumber,
			PlaceholderURL: placeholder,
		}, transport(domain.StoreColes)))
	}

	if al := cfg.Retailers.Aldi; al.Enabled {
		adapters = append(adapters, retailer.NewAldi(retailer.AldiConfig{
			BaseURL:        al.BaseURL,
			PageSize:       al.PageSize,
			MaxPages:       al.MaxPages,
			PlaceholderURL: placeholder,
		}, transport(domain.StoreAldi)))
	}

	for _, ad := range adapters {
		a.log.WithField("store", ad.StoreID()).Info("Retailer enabled")
	}
	if len(adapters) == 0 {
		a.log.Warn("No retailers enabled; searches will return no results")
	}
	return adapters
}

// Close releases resources opened by newApp.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("Failed to close resource")
		}
	}
	a.closers = nil
}
