package attendance

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/events"
	"github.com/klabast/wb-services/attendance/internal/kv"
)

// Daily is the whole-day calendar stored under KeyDaily.
type Daily struct {
	store kv.Store
	bus   *events.Bus
	cfg   settings
	mu    sync.Mutex
	wmu   sync.Mutex // held by writers until their change is published
}

// NewDaily returns a calendar on store. bus may be nil.
func NewDaily(store kv.Store, bus *events.Bus, opts ...Option) *Daily {
	return &Daily{store: store, bus: bus, cfg: newSettings(opts)}
}

func (d *Daily) load() (DailyMap, error) {
	data, ok, err := d.store.Get(KeyDaily)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KeyDaily, err)
	}
	if !ok {
		return DailyMap{}, nil
	}
	daily, err := ParseDaily(data)
	if err != nil {
		d.cfg.log.Warn("discarding malformed stored data", zap.String("key", KeyDaily), zap.Error(err))
		return DailyMap{}, nil
	}
	return daily, nil
}

func (d *Daily) update(fn func(DailyMap) error) (DailyMap, error) {
	d.wmu.Lock()
	defer d.wmu.Unlock()

	daily, err := d.locked(fn)
	if err != nil {
		return nil, err
	}
	if d.bus != nil {
		d.bus.Publish(events.Change{Key: KeyDaily, Data: daily.Clone()})
	}
	return daily, nil
}

func (d *Daily) locked(fn func(DailyMap) error) (DailyMap, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	daily, err := d.load()
	if err != nil {
		return nil, err
	}
	if err := fn(daily); err != nil {
		return nil, err
	}
	data, err := json.Marshal(daily)
	if err != nil {
		return nil, err
	}
	if err := d.store.Set(KeyDaily, data); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", KeyDaily, err)
	}
	return daily, nil
}

// Entries returns a copy of every daily entry.
func (d *Daily) Entries() (DailyMap, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

// ToggleDay cycles date through none -> present -> absent -> none and
// returns the new status, "" once the entry is removed.
func (d *Daily) ToggleDay(date string) (Status, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}

	var next Status
	_, err := d.update(func(m DailyMap) error {
		switch m[date] {
		case "":
			next = StatusPresent
			m[date] = next
		case StatusPresent:
			next = StatusAbsent
			m[date] = next
		default:
			next = ""
			delete(m, date)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// SetDayStatus overwrites the status for date.
func (d *Daily) SetDayStatus(date string, status Status) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	_, err := d.update(func(m DailyMap) error {
		m[date] = status
		return nil
	})
	return err
}

// MarkToday sets today's status and returns today's date.
func (d *Daily) MarkToday(status Status) (string, error) {
	today := d.cfg.today()
	if err := d.SetDayStatus(today, status); err != nil {
		return "", err
	}
	return today, nil
}

// ClearAll removes every entry.
func (d *Daily) ClearAll() error {
	d.wmu.Lock()
	defer d.wmu.Unlock()

	d.mu.Lock()
	err := d.store.Delete(KeyDaily)
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", KeyDaily, err)
	}
	if d.bus != nil {
		d.bus.Publish(events.Change{Key: KeyDaily, Data: DailyMap{}})
	}
	d.cfg.log.Info("daily calendar cleared")
	return nil
}

// RenderMonth builds the grid for month of year. Months outside 1..12
// roll over into the neighbouring years.
func (d *Daily) RenderMonth(year int, month time.Month) (MonthGrid, error) {
	entries, err := d.Entries()
	if err != nil {
		return MonthGrid{}, err
	}
	return BuildMonth(year, month, entries), nil
}

// CurrentMonth renders the month containing today.
func (d *Daily) CurrentMonth() (MonthGrid, error) {
	now := d.cfg.now()
	return d.RenderMonth(now.Year(), now.Month())
}
