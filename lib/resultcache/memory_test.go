package resultcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"ctutimetable-backend/lib/timetable"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemory() (*Memory, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 8, 12, 7, 0, 0, 0, time.UTC)}
	cache := NewMemory()
	cache.now = clock.Now
	return cache, clock
}

var ct101 = []timetable.StudyGroup{{
	GroupSymbol: "G1",
	Capacity:    40,
	Remaining:   5,
	WeeksText:   "14 tuần",
	ClassLabel:  "L01",
	Slots:       []timetable.ScheduleSlot{{Room: "101", Weekday: 1, Periods: []int{2, 3, 4}}},
}}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestMemory()
	key := Key{Semester: 1, Year: 2024, SubjectId: "CT101"}

	cache.Put(ctx, key, ct101, 60*time.Second)
	value, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, ct101, value)

	clock.Advance(59 * time.Second)
	_, ok = cache.Get(ctx, key)
	require.True(t, ok)

	clock.Advance(time.Second)
	_, ok = cache.Get(ctx, key)
	require.False(t, ok)
	require.Equal(t, 0, cache.Len())
	require.Empty(t, cache.entries)
}

func TestMemoryValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestMemory()
	key := Key{Semester: 1, Year: 2024, SubjectId: "CT101"}

	stored := timetable.Clone(ct101)
	cache.Put(ctx, key, stored, time.Minute)
	stored[0].Slots[0].Room = "changed after put"

	value, ok := cache.Get(ctx, key)
	require.True(t, ok)
	value[0].Remaining = 0
	value[0].Slots[0].Periods[0] = 99
	value[0].Slots = append(value[0].Slots, timetable.ScheduleSlot{Room: "extra", Weekday: 3, Periods: []int{1}})

	again, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, ct101, again)
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestMemory()

	keys := []Key{
		{Semester: 1, Year: 2024, SubjectId: "CT101"},
		{Semester: 2, Year: 2024, SubjectId: "CT101"},
		{Semester: 1, Year: 2023, SubjectId: "CT101"},
		{Semester: 1, Year: 2024, SubjectId: "CT102"},
	}
	for i, key := range keys {
		cache.Put(ctx, key, []timetable.StudyGroup{{GroupSymbol: key.String(), Capacity: i}}, time.Minute)
	}
	require.Equal(t, len(keys), cache.Len())

	for i, key := range keys {
		value, ok := cache.Get(ctx, key)
		require.True(t, ok)
		require.Equal(t, i, value[0].Capacity)
	}

	_, ok := cache.Get(ctx, Key{Semester: 3, Year: 2024, SubjectId: "CT101"})
	require.False(t, ok)
}

func TestMemoryPutOverwrites(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestMemory()
	key := Key{Semester: 1, Year: 2024, SubjectId: "CT101"}

	cache.Put(ctx, key, nil, 10*time.Second)
	clock.Advance(5 * time.Second)
	cache.Put(ctx, key, ct101, 10*time.Second)
	clock.Advance(9 * time.Second)

	value, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, ct101, value)
}

func TestMemoryRejectsNonPositiveTtl(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestMemory()
	key := Key{Semester: 1, Year: 2024, SubjectId: "CT101"}

	cache.Put(ctx, key, ct101, 0)
	cache.Put(ctx, key, ct101, -time.Second)
	require.Equal(t, 0, cache.Len())
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestMemory()

	cache.Put(ctx, Key{Semester: 1, Year: 2024, SubjectId: "CT101"}, ct101, time.Minute)
	cache.Put(ctx, Key{Semester: 1, Year: 2024, SubjectId: "CT102"}, ct101, time.Hour)
	cache.Put(ctx, Key{Semester: 2, Year: 2023, SubjectId: "CT103"}, ct101, time.Minute)

	require.Equal(t, 0, cache.Sweep(ctx))

	clock.Advance(time.Minute)
	require.Equal(t, 2, cache.Sweep(ctx))
	require.Equal(t, 1, cache.Len())
	require.NotContains(t, cache.entries, 2)

	_, ok := cache.Get(ctx, Key{Semester: 1, Year: 2024, SubjectId: "CT102"})
	require.True(t, ok)

	clock.Advance(time.Hour)
	require.Equal(t, 1, cache.Sweep(ctx))
	require.Empty(t, cache.entries)
}

func TestRunSweeper(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	cache, clock := newTestMemory()
	cache.Put(ctx, Key{Semester: 1, Year: 2024, SubjectId: "CT101"}, ct101, time.Minute)
	clock.Advance(time.Minute)

	done := make(chan struct{})
	go func() {
		cache.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return cache.Len() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
