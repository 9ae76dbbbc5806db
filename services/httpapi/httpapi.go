// Package httpapi exposes the catalog over a small JSON REST surface.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"ctutimetable-backend/lib/scrapers/htql"
	"ctutimetable-backend/lib/timetable"
	"ctutimetable-backend/services/catalog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Catalog is implemented by *catalog.Service.
type Catalog interface {
	Term(ctx context.Context) (htql.SchoolYear, error)
	RefreshTerm(ctx context.Context) (htql.SchoolYear, error)
	Groups(ctx context.Context, term htql.SchoolYear, subjectIds []string) (map[string][]timetable.StudyGroup, error)
	SubjectName(ctx context.Context, subjectId string) (string, error)
	Subjects(ctx context.Context) (map[string]string, error)
	SearchSubjects(ctx context.Context, query string, limit int) ([]catalog.SubjectMatch, error)
}

type RateLimit struct {
	// zero disables rate limiting
	Requests int
	Window   time.Duration
}

type Options struct {
	Catalog Catalog
	// origins allowed to read responses, empty allows any origin
	AllowOrigins []string
	RateLimit    RateLimit
}

type server struct {
	catalog Catalog
}

// NewHandler builds the router with its middleware stack.
func NewHandler(opts Options) http.Handler {
	s := server{catalog: opts.Catalog}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors(opts.AllowOrigins))
	if opts.RateLimit.Requests > 0 {
		r.Use(httprate.Limit(
			opts.RateLimit.Requests,
			opts.RateLimit.Window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, r, http.StatusTooManyRequests, "too many requests, please try again later")
			}),
		))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/term", s.getTerm)
	r.Get("/groups/{subjectIds}", s.getGroups)
	r.Get("/subjects", s.getSubjects)
	r.Get("/subjects/{subjectId}", s.getSubject)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})

	return otelhttp.NewHandler(r, "httpapi")
}
