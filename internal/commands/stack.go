package commands

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/attendance"
	"github.com/klabast/wb-services/attendance/internal/config"
	"github.com/klabast/wb-services/attendance/internal/events"
	"github.com/klabast/wb-services/attendance/internal/kv"
)

// stack is one store with the three components sharing its change bus.
type stack struct {
	store      kv.Store
	bus        *events.Bus
	registry   *attendance.Registry
	daily      *attendance.Daily
	aggregator *attendance.Aggregator
}

func openStore(cfg *config.Config, log *zap.Logger) (kv.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		log.Debug("opening sqlite store", zap.String("path", cfg.DatabasePath()))
		return kv.NewSQLiteStore(cfg.DatabasePath())
	default:
		log.Debug("opening file store", zap.String("dir", cfg.DataDir))
		return kv.NewFileStore(cfg.DataDir, log)
	}
}

// openStack wires the components over the configured store. "Today" is
// taken in the configured timezone. aggOpts go to the aggregator only.
func (c *cli) openStack(aggOpts ...attendance.Option) (*stack, error) {
	store, err := openStore(c.cfg, c.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", c.cfg.Backend, err)
	}

	opts := []attendance.Option{
		attendance.WithClock(c.clock()),
		attendance.WithLogger(c.log),
		attendance.WithDebounce(c.cfg.Debounce()),
	}

	bus := events.NewBus()
	registry := attendance.NewRegistry(store, bus, opts...)
	daily := attendance.NewDaily(store, bus, opts...)
	return &stack{
		store:      store,
		bus:        bus,
		registry:   registry,
		daily:      daily,
		aggregator: attendance.NewAggregator(registry, daily, bus, append(opts, aggOpts...)...),
	}, nil
}

// clock returns the time source in the configured timezone. Config has
// already validated the zone.
func (c *cli) clock() func() time.Time {
	loc, err := c.cfg.Location()
	if err != nil {
		loc = time.Local
	}
	now := c.now
	if now == nil {
		now = time.Now
	}
	return func() time.Time { return now().In(loc) }
}

func (s *stack) Close() error {
	s.aggregator.Stop()
	return s.store.Close()
}
