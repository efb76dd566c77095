// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/staynav/internal/aggregate"
	"github.com/tomtom215/staynav/internal/cache"
	"github.com/tomtom215/staynav/internal/checkpoint"
	"github.com/tomtom215/staynav/internal/config"
	"github.com/tomtom215/staynav/internal/database"
	"github.com/tomtom215/staynav/internal/eventprocessor"
	"github.com/tomtom215/staynav/internal/logging"
	"github.com/tomtom215/staynav/internal/navigator"
	"github.com/tomtom215/staynav/internal/normalize"
	"github.com/tomtom215/staynav/internal/scoring"
	"github.com/tomtom215/staynav/internal/source"
	"github.com/tomtom215/staynav/internal/supervisor"
	"github.com/tomtom215/staynav/internal/supervisor/services"
	"github.com/tomtom215/staynav/internal/trust"
)

// recordedEventTypes are the domain events the recorder persists.
var recordedEventTypes = []string{
	aggregate.EventListingUpserted,
	navigator.EventRecommendationCreated,
	navigator.EventFeedbackRecorded,
	navigator.EventPreferencesUpdated,
}

// app owns the long-lived components and closes them in reverse order.
type app struct {
	db          *database.DB
	checkpoints *checkpoint.Store
	pubsub      *eventprocessor.PubSub
	bus         *eventprocessor.Bus
	recorder    *eventprocessor.Recorder

	registry    *source.Registry
	evaluator   *trust.Evaluator
	reevaluator *trust.Reevaluator
	engine      *aggregate.Engine
	navigator   *navigator.Navigator

	closers []func() error
}

func buildApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.db, err = database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a.closers = append(a.closers, a.db.Close)
	if cfg.Database.SeedMockData {
		logging.Info().Msg("Seeding demo catalog (SEED_MOCK_DATA=true)")
		if err = a.db.SeedMockData(ctx); err != nil {
			return nil, fmt.Errorf("seed demo catalog: %w", err)
		}
	}

	a.checkpoints, err = checkpoint.Open(checkpoint.Options{Dir: cfg.Aggregation.CheckpointDir})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.checkpoints.Close)

	if err = a.openEvents(ctx, cfg); err != nil {
		return nil, err
	}

	a.registry, err = buildRegistry(cfg, a.db)
	if err != nil {
		return nil, err
	}

	a.evaluator = trust.NewEvaluator(cfg.Trust, a.db,
		trust.WithSourceTrust(a.registry.TrustLevel),
		trust.WithOwnerCache(cache.New[trust.OwnerTrust](cfg.Trust.OwnerCacheTTL, cfg.Trust.OwnerCacheTTL)),
		trust.WithLogger(logging.WithComponent("trust")),
	)
	a.reevaluator = trust.NewReevaluator(a.evaluator, a.db)

	a.engine = aggregate.NewEngine(cfg.Aggregation, a.registry, normalize.New(normalize.Formats), a.evaluator, a.db,
		aggregate.WithCheckpoints(a.checkpoints),
		aggregate.WithEmitter(a.bus),
		aggregate.WithLogger(logging.WithComponent("aggregate")),
	)

	a.navigator, err = navigator.New(cfg.Navigator, scoring.New(cfg.Scoring), a.evaluator, a.db,
		navigator.WithCatalog(a.db),
		navigator.WithAggregator(a.engine),
		navigator.WithEmitter(a.bus),
		navigator.WithLogger(logging.WithComponent("navigator")),
	)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Strs("sources", a.registry.IDs()).
		Str("events_transport", a.pubsub.Transport).
		Msg("Services initialized")
	return a, nil
}

// buildRegistry registers the catalog adapter and every configured feed.
func buildRegistry(cfg *config.Config, db *database.DB) (*source.Registry, error) {
	var adapters []source.Adapter
	if cfg.Sources.Catalog.Enabled {
		adapters = append(adapters, source.NewCatalogAdapter(db, cfg.Sources.Catalog.TrustLevel, cfg.Sources.Catalog.PullLimit))
	}
	for _, fc := range cfg.Sources.Feeds {
		feed, err := source.BuildFeedAdapter(fc)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", fc.ID, err)
		}
		adapters = append(adapters, feed)
	}
	return source.NewRegistry(adapters...)
}

// openEvents opens the Watermill transport, the publishing bus and, when
// enabled, the recorder that persists events to DuckDB.
func (a *app) openEvents(ctx context.Context, cfg *config.Config) error {
	ecfg := eventsConfig(cfg.Events)
	if err := ecfg.Validate(); err != nil {
		return err
	}

	logger := logging.WithComponent("events")
	ps, err := eventprocessor.Open(ctx, ecfg, logger)
	if err != nil {
		return fmt.Errorf("open event transport: %w", err)
	}
	a.pubsub = ps
	a.closers = append(a.closers, ps.Close)

	a.bus = eventprocessor.NewBus(ps.Publisher, ecfg, logger)
	a.bus.SetCircuitBreaker(eventprocessor.NewPublishBreaker("event-publish", 30*ecfg.PublishTimeout))
	a.closers = append(a.closers, a.bus.Close)

	if ecfg.Enabled && cfg.Events.Record {
		a.recorder, err = eventprocessor.NewRecorder(ps.Subscriber, a.db, ecfg, recordedEventTypes, logger)
		if err != nil {
			return fmt.Errorf("event recorder: %w", err)
		}
	}
	return nil
}

// eventsConfig overlays the configured events section on the defaults.
func eventsConfig(c config.EventsConfig) eventprocessor.Config {
	ec := eventprocessor.DefaultConfig()
	ec.Enabled = c.Enabled
	ec.NATSURL = c.NATSURL
	ec.EmbeddedServer = c.EmbeddedServer
	if c.StoreDir != "" {
		ec.StoreDir = c.StoreDir
	}
	if c.StreamName != "" {
		ec.StreamName = c.StreamName
	}
	if c.SubjectPrefix != "" {
		ec.SubjectPrefix = c.SubjectPrefix
	}
	if c.StreamMaxAge > 0 {
		ec.StreamMaxAge = c.StreamMaxAge
	}
	if c.PublishTimeout > 0 {
		ec.PublishTimeout = c.PublishTimeout
	}
	return ec
}

// addServices registers the background services with the tree.
func (a *app) addServices(tree *supervisor.SupervisorTree, cfg *config.Config) {
	tree.AddStorageService(services.NewCheckpointGCService(a.checkpoints, 0, 0))

	if len(a.registry.Pullers()) > 0 {
		var reeval services.TrustReevaluator
		if cfg.Aggregation.ReevaluateOnSync {
			reeval = a.reevaluator
		}
		tree.AddIngestService(services.NewSyncLoopService(a.engine, reeval, cfg.Aggregation.SyncInterval, true))
	} else {
		logging.Info().Msg("No incremental sources configured, scheduled sync disabled")
	}

	if a.recorder != nil {
		tree.AddIngestService(services.NewRunnerService("event-recorder", a.recorder))
	}
}

// Close releases everything buildApp opened, last opened first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.Error().Err(err).Msg("Error during shutdown")
		}
	}
	a.closers = nil
}
