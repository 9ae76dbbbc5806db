// Package catalog answers timetable and subject name queries, scraping the
// portal only when the result cache and the subject store cannot.
package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"ctutimetable-backend/lib/resultcache"
	"ctutimetable-backend/lib/scrapers/htql"
	"ctutimetable-backend/lib/subjectstore"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("services/catalog")

// ErrSubjectNotFound is returned when the portal has no subject with the requested id.
var ErrSubjectNotFound = errors.New("catalog: subject not found")

// Scraper is implemented by *htql.Client.
type Scraper interface {
	GroupCells(ctx context.Context, session htql.Session, semester, year int, subjectId string) ([]string, error)
	SubjectName(ctx context.Context, session htql.Session, semester, year int, subjectId string) (string, bool, error)
	AvailableTerm(ctx context.Context, session htql.Session) (htql.SchoolYear, error)
}

// Sessions is implemented by *session.Manager.
type Sessions interface {
	Session(ctx context.Context) (htql.Session, error)
	Renew(ctx context.Context, stale htql.Session) (htql.Session, error)
}

type Options struct {
	Scraper  Scraper
	Sessions Sessions
	Cache    resultcache.Cache
	Names    subjectstore.Store
	// how long a scraped listing is served from the cache
	TTL time.Duration
}

type Service struct {
	scraper  Scraper
	sessions Sessions
	cache    resultcache.Cache
	names    subjectstore.Store
	ttl      time.Duration

	fetches singleflight.Group

	termMu sync.RWMutex
	term   htql.SchoolYear
}

func NewService(opts Options) *Service {
	return &Service{
		scraper:  opts.Scraper,
		sessions: opts.Sessions,
		cache:    opts.Cache,
		names:    opts.Names,
		ttl:      opts.TTL,
	}
}
