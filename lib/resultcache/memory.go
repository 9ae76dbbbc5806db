package resultcache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ctutimetable-backend/lib/timetable"
	"ctutimetable-backend/lib/timezone"
)

type entry struct {
	value     []timetable.StudyGroup
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

type subjects = map[string]entry
type years = map[int]subjects

// Memory is an in process Cache keyed by semester, then year, then subject.
// Expired entries are evicted when read and by Sweep. Values are copied on
// the way in and out so callers never share them.
type Memory struct {
	mu      sync.Mutex
	entries map[int]years
	now     func() time.Time
	metrics instruments
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[int]years),
		now:     timezone.Now,
		metrics: newInstruments("memory"),
	}
}

func (m *Memory) Get(ctx context.Context, key Key) ([]timetable.StudyGroup, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key.Semester][key.Year][key.SubjectId]
	if !ok {
		m.metrics.lookup(ctx, false)
		return nil, false
	}
	if e.expired(m.now()) {
		m.remove(key)
		m.metrics.evicted(ctx, 1)
		m.metrics.lookup(ctx, false)
		return nil, false
	}
	m.metrics.lookup(ctx, true)
	return timetable.Clone(e.value), true
}

func (m *Memory) Put(ctx context.Context, key Key, value []timetable.StudyGroup, ttl time.Duration) {
	if ttl <= 0 {
		slog.WarnContext(ctx, "refusing to cache with non-positive ttl", "key", key.String(), "ttl", ttl)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byYear, ok := m.entries[key.Semester]
	if !ok {
		byYear = make(years)
		m.entries[key.Semester] = byYear
	}
	bySubject, ok := byYear[key.Year]
	if !ok {
		bySubject = make(subjects)
		byYear[key.Year] = bySubject
	}
	bySubject[key.SubjectId] = entry{
		value:     timetable.Clone(value),
		expiresAt: m.now().Add(ttl),
	}
}

// remove deletes key and prunes the levels it leaves empty, m.mu must be held.
func (m *Memory) remove(key Key) {
	byYear := m.entries[key.Semester]
	bySubject := byYear[key.Year]
	delete(bySubject, key.SubjectId)
	if len(bySubject) == 0 {
		delete(byYear, key.Year)
	}
	if len(byYear) == 0 {
		delete(m.entries, key.Semester)
	}
}

// Sweep evicts every expired entry and returns how many were removed.
func (m *Memory) Sweep(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for semester, byYear := range m.entries {
		for year, bySubject := range byYear {
			for subjectId, e := range bySubject {
				if e.expired(now) {
					delete(bySubject, subjectId)
					removed++
				}
			}
			if len(bySubject) == 0 {
				delete(byYear, year)
			}
		}
		if len(byYear) == 0 {
			delete(m.entries, semester)
		}
	}

	m.metrics.evicted(ctx, removed)
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Memory) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := m.Sweep(ctx)
			if removed > 0 {
				slog.DebugContext(ctx, "swept result cache", "removed", removed)
			}
		}
	}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, byYear := range m.entries {
		for _, bySubject := range byYear {
			count += len(bySubject)
		}
	}
	return count
}
