package attendance

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/events"
	"github.com/klabast/wb-services/attendance/internal/kv"
)

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func(prompt string) bool

// Registry is the class registry stored under KeyClasses.
type Registry struct {
	store kv.Store
	bus   *events.Bus
	cfg   settings
	mu    sync.Mutex

	// wmu is held from load until the change is published, so
	// broadcasts go out in write order. Readers only take mu.
	wmu sync.Mutex
}

// NewRegistry returns a registry on store. bus may be nil.
func NewRegistry(store kv.Store, bus *events.Bus, opts ...Option) *Registry {
	return &Registry{store: store, bus: bus, cfg: newSettings(opts)}
}

// load reads the registry. Corrupt content reads as an empty registry.
func (r *Registry) load() (Classes, error) {
	data, ok, err := r.store.Get(KeyClasses)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KeyClasses, err)
	}
	if !ok {
		return Classes{}, nil
	}
	classes, err := ParseClasses(data)
	if err != nil {
		r.cfg.log.Warn("discarding malformed stored data", zap.String("key", KeyClasses), zap.Error(err))
		return Classes{}, nil
	}
	return classes, nil
}

func (r *Registry) persist(classes Classes) error {
	data, err := json.Marshal(classes)
	if err != nil {
		return err
	}
	if err := r.store.Set(KeyClasses, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", KeyClasses, err)
	}
	return nil
}

// update runs fn on a fresh copy and persists it when fn reports a change.
// The change is published after mu is released.
func (r *Registry) update(fn func(Classes) (bool, error)) error {
	r.wmu.Lock()
	defer r.wmu.Unlock()

	classes, changed, err := r.locked(fn)
	if err != nil || !changed {
		return err
	}
	r.publish(classes)
	return nil
}

func (r *Registry) locked(fn func(Classes) (bool, error)) (Classes, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	classes, err := r.load()
	if err != nil {
		return nil, false, err
	}
	changed, err := fn(classes)
	if err != nil || !changed {
		return nil, false, err
	}
	if err := r.persist(classes); err != nil {
		return nil, false, err
	}
	return classes, true, nil
}

func (r *Registry) publish(classes Classes) {
	if r.bus != nil {
		r.bus.Publish(events.Change{Key: KeyClasses, Data: classes.Clone()})
	}
}

// Classes returns a copy of the whole registry.
func (r *Registry) Classes() (Classes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// AddSubject creates a subject with no records.
func (r *Registry) AddSubject(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	err := r.update(func(c Classes) (bool, error) {
		if _, ok := c[name]; ok {
			return false, fmt.Errorf("%w: %s", ErrDuplicateSubject, name)
		}
		c[name] = &Subject{Records: []Record{}}
		return true, nil
	})
	if err != nil {
		return "", err
	}
	r.cfg.log.Info("subject added", zap.String("subject", name))
	return name, nil
}

// SetTodayStatus records status for today, replacing an earlier status
// for the same day.
func (r *Registry) SetTodayStatus(name string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	name = strings.TrimSpace(name)
	today := r.cfg.today()

	return r.update(func(c Classes) (bool, error) {
		subject, ok := c[name]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrSubjectNotFound, name)
		}
		subject.put(Record{Date: today, Status: status})
		return true, nil
	})
}

// DeleteTodayRecord removes today's record. It is a no-op when there is none.
func (r *Registry) DeleteTodayRecord(name string) error {
	name = strings.TrimSpace(name)
	today := r.cfg.today()

	return r.update(func(c Classes) (bool, error) {
		subject, ok := c[name]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrSubjectNotFound, name)
		}
		i := subject.indexOf(today)
		if i < 0 {
			return false, nil
		}
		subject.Records = append(subject.Records[:i], subject.Records[i+1:]...)
		return true, nil
	})
}

// DeleteSubject removes a subject and its records once confirm agrees.
func (r *Registry) DeleteSubject(name string, confirm ConfirmFunc) error {
	name = strings.TrimSpace(name)
	classes, err := r.Classes()
	if err != nil {
		return err
	}
	if _, ok := classes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrSubjectNotFound, name)
	}
	if confirm == nil || !confirm(fmt.Sprintf("Delete %s and all its records?", name)) {
		return ErrNotConfirmed
	}

	err = r.update(func(c Classes) (bool, error) {
		if _, ok := c[name]; !ok {
			return false, fmt.Errorf("%w: %s", ErrSubjectNotFound, name)
		}
		delete(c, name)
		return true, nil
	})
	if err != nil {
		return err
	}
	r.cfg.log.Info("subject deleted", zap.String("subject", name))
	return nil
}

// ClearAll drops the whole registry.
func (r *Registry) ClearAll() error {
	r.wmu.Lock()
	defer r.wmu.Unlock()

	r.mu.Lock()
	err := r.store.Delete(KeyClasses)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", KeyClasses, err)
	}
	r.publish(Classes{})
	return nil
}

// ComputeStats counts the records of one subject.
func (r *Registry) ComputeStats(name string) (Stats, error) {
	subject, err := r.Subject(name)
	if err != nil {
		return Stats{}, err
	}
	return subject.Stats(), nil
}

// Subject returns a copy of one subject. Names are trimmed like in
// AddSubject, as in every lookup.
func (r *Registry) Subject(name string) (*Subject, error) {
	name = strings.TrimSpace(name)
	classes, err := r.Classes()
	if err != nil {
		return nil, err
	}
	subject, ok := classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, name)
	}
	return subject, nil
}

// List returns every subject sorted by name.
func (r *Registry) List() ([]SubjectSummary, error) {
	classes, err := r.Classes()
	if err != nil {
		return nil, err
	}
	out := make([]SubjectSummary, 0, len(classes))
	for _, name := range classes.Names() {
		s := classes[name]
		out = append(out, SubjectSummary{Name: name, Records: s.Records, Stats: s.Stats()})
	}
	return out, nil
}

// ExportAll serializes the registry as indented JSON.
func (r *Registry) ExportAll() ([]byte, error) {
	classes, err := r.Classes()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(classes, "", "  ")
}

// ImportAll validates data and replaces the whole registry with it. On
// error nothing is written.
func (r *Registry) ImportAll(data []byte) (int, error) {
	imported, err := ParseClasses(data)
	if err != nil {
		return 0, err
	}

	err = r.update(func(c Classes) (bool, error) {
		for name := range c {
			delete(c, name)
		}
		for name, s := range imported {
			c[name] = s
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	r.cfg.log.Info("registry imported", zap.Int("subjects", len(imported)))
	return len(imported), nil
}
