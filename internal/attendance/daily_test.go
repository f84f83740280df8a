package attendance

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/attendance/internal/events"
	"github.com/klabast/wb-services/attendance/internal/kv"
)

func newTestDaily(t *testing.T, date string) (*Daily, *kv.MemoryStore, *events.Bus) {
	t.Helper()
	store := kv.NewMemoryStore()
	bus := events.NewBus()
	return NewDaily(store, bus, WithClock(newFixedClock(date).now)), store, bus
}

func TestToggleDayCycle(t *testing.T) {
	daily, _, _ := newTestDaily(t, "2024-03-15")

	want := []Status{StatusPresent, StatusAbsent, ""}
	for round := 0; round < 2; round++ {
		for _, w := range want {
			got, err := daily.ToggleDay("2024-03-01")
			require.NoError(t, err)
			assert.Equal(t, w, got)

			entries, err := daily.Entries()
			require.NoError(t, err)
			status, ok := entries["2024-03-01"]
			if w == "" {
				assert.False(t, ok, "entry should be removed, not blanked")
			} else {
				assert.Equal(t, w, status)
			}
		}
	}
}

func TestToggleDayLeavesOtherDates(t *testing.T) {
	daily, _, _ := newTestDaily(t, "2024-03-15")
	require.NoError(t, daily.SetDayStatus("2024-03-02", StatusAbsent))

	_, err := daily.ToggleDay("2024-03-01")
	require.NoError(t, err)

	entries, err := daily.Entries()
	require.NoError(t, err)
	assert.Equal(t, DailyMap{"2024-03-01": StatusPresent, "2024-03-02": StatusAbsent}, entries)
}

func TestSetDayStatusOverwrites(t *testing.T) {
	daily, _, bus := newTestDaily(t, "2024-03-15")
	var got []events.Change
	bus.Subscribe(func(c events.Change) { got = append(got, c) })

	require.NoError(t, daily.SetDayStatus("2024-03-01", StatusPresent))
	require.NoError(t, daily.SetDayStatus("2024-03-01", StatusAbsent))

	entries, err := daily.Entries()
	require.NoError(t, err)
	assert.Equal(t, DailyMap{"2024-03-01": StatusAbsent}, entries)

	require.Len(t, got, 2)
	assert.Equal(t, KeyDaily, got[1].Key)
	assert.Equal(t, DailyMap{"2024-03-01": StatusAbsent}, got[1].Data)
}

func TestDailyValidation(t *testing.T) {
	daily, _, _ := newTestDaily(t, "2024-03-15")

	for _, bad := range []string{"", "2024-3-1", "2024-02-30", "01.03.2024", "today"} {
		_, err := daily.ToggleDay(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, "date %q", bad)
		assert.ErrorIs(t, daily.SetDayStatus(bad, StatusPresent), ErrInvalidDate, "date %q", bad)
	}
	assert.ErrorIs(t, daily.SetDayStatus("2024-03-01", "Present"), ErrInvalidStatus)
}

func TestMarkToday(t *testing.T) {
	daily, _, _ := newTestDaily(t, "2024-03-15")

	date, err := daily.MarkToday(StatusPresent)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", date)

	_, err = daily.MarkToday(StatusAbsent)
	require.NoError(t, err)

	entries, err := daily.Entries()
	require.NoError(t, err)
	assert.Equal(t, DailyMap{"2024-03-15": StatusAbsent}, entries)
}

func TestDailyClearAll(t *testing.T) {
	daily, store, bus := newTestDaily(t, "2024-03-15")
	require.NoError(t, daily.SetDayStatus("2024-03-01", StatusPresent))
	require.NoError(t, daily.SetDayStatus("2024-03-02", StatusAbsent))

	var last events.Change
	bus.Subscribe(func(c events.Change) { last = c })

	require.NoError(t, daily.ClearAll())

	entries, err := daily.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, ok, err := store.Get(KeyDaily)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, events.Change{Key: KeyDaily, Data: DailyMap{}}, last)
}

func TestDailyReadsLegacyCasing(t *testing.T) {
	daily, store, _ := newTestDaily(t, "2024-03-15")
	require.NoError(t, store.Set(KeyDaily, []byte(`{"2024-03-01":"Present","2024-03-02":"Absent"}`)))

	got, err := daily.ToggleDay("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, got)

	got, err = daily.ToggleDay("2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, Status(""), got)
}

func TestDailyCorruptStoreReadsEmpty(t *testing.T) {
	daily, store, _ := newTestDaily(t, "2024-03-15")
	require.NoError(t, store.Set(KeyDaily, []byte(`["nope"]`)))

	entries, err := daily.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	grid, err := daily.RenderMonth(2024, time.March)
	require.NoError(t, err)
	assert.Len(t, grid.Cells, 31)
}

func TestCurrentMonth(t *testing.T) {
	daily, _, _ := newTestDaily(t, "2024-02-10")
	require.NoError(t, daily.SetDayStatus("2024-02-29", StatusPresent))

	grid, err := daily.CurrentMonth()
	require.NoError(t, err)
	assert.Equal(t, 2024, grid.Year)
	assert.Equal(t, time.February, grid.Month)
	require.Len(t, grid.Cells, 29)
	assert.Equal(t, StatusPresent, grid.Cells[28].Status)
}

func TestConcurrentDayWritesBroadcastInWriteOrder(t *testing.T) {
	daily, _, bus := newTestDaily(t, "2024-03-15")

	var (
		mu   sync.Mutex
		last DailyMap
		seen []int
	)
	bus.Subscribe(func(c events.Change) {
		entries := c.Data.(DailyMap)
		mu.Lock()
		defer mu.Unlock()
		last = entries
		seen = append(seen, len(entries))
	})

	const writers = 20
	var wg sync.WaitGroup
	for i := 1; i <= writers; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			assert.NoError(t, daily.SetDayStatus(fmt.Sprintf("2024-03-%02d", day), StatusPresent))
		}(i)
	}
	wg.Wait()

	entries, err := daily.Entries()
	require.NoError(t, err)
	require.Len(t, seen, writers)
	for i, n := range seen {
		assert.Equal(t, i+1, n, "broadcast %d out of order", i)
	}
	assert.Equal(t, entries, last)
}
