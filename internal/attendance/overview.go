package attendance

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/events"
)

// Overview aggregates every subject's records. DailyMarked counts daily
// calendar entries; the two views are never reconciled.
type Overview struct {
	Stats
	DailyMarked int `json:"dailyMarked"`
}

// Aggregator recomputes the overview whenever either store changes.
type Aggregator struct {
	registry *Registry
	daily    *Daily
	bus      *events.Bus
	cfg      settings

	mu          sync.Mutex
	timer       *time.Timer
	unsubscribe func()
	pending     sync.WaitGroup
}

func NewAggregator(registry *Registry, daily *Daily, bus *events.Bus, opts ...Option) *Aggregator {
	return &Aggregator{registry: registry, daily: daily, bus: bus, cfg: newSettings(opts)}
}

// ComputeOverview scans the registry and counts daily entries.
func (a *Aggregator) ComputeOverview() (Overview, error) {
	classes, err := a.registry.Classes()
	if err != nil {
		return Overview{}, err
	}
	present, total := 0, 0
	for _, s := range classes {
		st := s.Stats()
		present += st.Present
		total += st.Total
	}

	daily, err := a.daily.Entries()
	if err != nil {
		return Overview{}, err
	}
	return Overview{Stats: NewStats(present, total), DailyMarked: len(daily)}, nil
}

// Start subscribes to store changes and, when a sink is set, renders once
// right away.
func (a *Aggregator) Start() {
	a.mu.Lock()
	if a.unsubscribe == nil && a.bus != nil {
		a.unsubscribe = a.bus.Subscribe(a.onChange)
	}
	a.mu.Unlock()

	if a.cfg.sink != nil {
		a.render()
	}
}

// Stop unsubscribes, cancels a pending recompute and waits for one that
// is already running.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.timer != nil {
		if a.timer.Stop() {
			a.pending.Done()
		}
		a.timer = nil
	}
	a.mu.Unlock()

	a.pending.Wait()
}

func (a *Aggregator) onChange(c events.Change) {
	if c.Key != KeyClasses && c.Key != KeyDaily {
		return
	}
	if a.cfg.debounce <= 0 {
		a.render()
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unsubscribe == nil {
		return
	}
	if a.timer != nil && a.timer.Stop() {
		a.pending.Done()
	}
	a.pending.Add(1)
	a.timer = time.AfterFunc(a.cfg.debounce, a.fire)
}

func (a *Aggregator) fire() {
	defer a.pending.Done()
	a.render()
}

func (a *Aggregator) render() {
	overview, err := a.ComputeOverview()
	if err != nil {
		a.cfg.log.Error("failed to compute overview", zap.Error(err))
		return
	}
	a.cfg.log.Debug("overview recomputed",
		zap.Int("present", overview.Present),
		zap.Int("total", overview.Total),
		zap.Int("percentage", overview.Percentage),
		zap.Int("daily_marked", overview.DailyMarked))
	if a.cfg.sink != nil {
		a.cfg.sink(overview)
	}
}
