package attendance

import (
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is how long the aggregator waits for a burst of changes
// to settle before recomputing.
const DefaultDebounce = 80 * time.Millisecond

// Option configures a Registry, Daily or Aggregator.
type Option func(*settings)

type settings struct {
	now      func() time.Time
	log      *zap.Logger
	debounce time.Duration
	sink     func(Overview)
}

func newSettings(opts []Option) settings {
	s := settings{
		now:      time.Now,
		log:      zap.NewNop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithClock sets the time source used for "today". The returned time's
// location decides which calendar day it is.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDebounce sets the aggregator delay. Zero recomputes synchronously
// on every change.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithSink sets the aggregator's render target.
func WithSink(sink func(Overview)) Option {
	return func(s *settings) {
		s.sink = sink
	}
}

func (s settings) today() string {
	return s.now().Format(DateLayout)
}
