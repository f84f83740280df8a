package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(func(c Change) { got = append(got, "first:"+c.Key) })
	bus.Subscribe(func(c Change) { got = append(got, "second:"+c.Key) })

	bus.Publish(Change{Key: "attendanceData"})

	assert.Equal(t, []string{"first:attendanceData", "second:attendanceData"}, got)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0

	unsubscribe := bus.Subscribe(func(Change) { calls++ })
	bus.Publish(Change{Key: "dailyAttendance"})
	unsubscribe()
	unsubscribe()
	bus.Publish(Change{Key: "dailyAttendance"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestPublishWithoutSubscribers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewBus().Publish(Change{Key: "attendanceData", Data: map[string]any{}})
	})
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	calls := 0

	var unsubscribe func()
	unsubscribe = bus.Subscribe(func(Change) {
		calls++
		unsubscribe()
	})
	bus.Subscribe(func(Change) { calls++ })

	bus.Publish(Change{Key: "k"})
	bus.Publish(Change{Key: "k"})

	assert.Equal(t, 3, calls)
}
