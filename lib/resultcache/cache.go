// Package resultcache stores parsed group listings per term and subject for a
// limited time.
package resultcache

import (
	"context"
	"fmt"
	"time"

	"ctutimetable-backend/lib/timetable"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Key addresses one cached listing.
type Key struct {
	Semester  int
	Year      int
	SubjectId string
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d:%s", k.Semester, k.Year, k.SubjectId)
}

// Cache is implemented by Memory and Redis. Backend failures are never
// surfaced, a failed Get is a miss and a failed Put is dropped.
type Cache interface {
	Get(ctx context.Context, key Key) ([]timetable.StudyGroup, bool)
	// Put stores value until ttl elapses, a non-positive ttl stores nothing.
	Put(ctx context.Context, key Key, value []timetable.StudyGroup, ttl time.Duration)
}

var meter = otel.Meter("resultcache")

type instruments struct {
	lookups   metric.Int64Counter
	evictions metric.Int64Counter
	backend   attribute.KeyValue
}

func newInstruments(backend string) instruments {
	lookups, err := meter.Int64Counter(
		"timetable.cache.lookups",
		metric.WithDescription("Result cache lookups by outcome."),
	)
	if err != nil {
		otel.Handle(err)
	}
	evictions, err := meter.Int64Counter(
		"timetable.cache.evictions",
		metric.WithDescription("Expired entries removed from the result cache."),
	)
	if err != nil {
		otel.Handle(err)
	}
	return instruments{
		lookups:   lookups,
		evictions: evictions,
		backend:   attribute.String("backend", backend),
	}
}

func (i instruments) lookup(ctx context.Context, hit bool) {
	if i.lookups == nil {
		return
	}
	i.lookups.Add(ctx, 1, metric.WithAttributes(i.backend, attribute.Bool("hit", hit)))
}

func (i instruments) evicted(ctx context.Context, n int) {
	if i.evictions == nil || n == 0 {
		return
	}
	i.evictions.Add(ctx, int64(n), metric.WithAttributes(i.backend))
}
