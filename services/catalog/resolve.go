package catalog

import (
	"context"
	"log/slog"
	"sync"

	"ctutimetable-backend/lib/resultcache"
	"ctutimetable-backend/lib/scrapers/htql"
	"ctutimetable-backend/lib/timetable"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Resolve returns the study groups of a subject in term, from the cache when
// possible. Rejected sessions are reported as is, see withSessionRetry.
// Concurrent misses for the same subject and term share one scrape.
func (s *Service) Resolve(ctx context.Context, term htql.SchoolYear, subjectId string, session htql.Session) ([]timetable.StudyGroup, error) {
	key := resultcache.Key{Semester: term.Semester, Year: term.Year, SubjectId: subjectId}
	if groups, ok := s.cache.Get(ctx, key); ok {
		return groups, nil
	}

	// a retry with a renewed session must not join a fetch still using the stale one
	flight := key.String() + "@" + string(session)
	result := s.fetches.DoChan(flight, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		groups, err := s.fetch(fetchCtx, key, session)
		if err != nil {
			return nil, err
		}
		s.cache.Put(fetchCtx, key, groups, s.ttl)
		return groups, nil
	})

	select {
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]timetable.StudyGroup), nil
	}
}

func (s *Service) fetch(ctx context.Context, key resultcache.Key, session htql.Session) ([]timetable.StudyGroup, error) {
	ctx, span := tracer.Start(ctx, "fetch")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key.String()))

	cells, err := s.scraper.GroupCells(ctx, session, key.Semester, key.Year, key.SubjectId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape group listing")
		return nil, err
	}
	groups, err := timetable.Parse(cells)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse group listing")
		return nil, err
	}
	return groups, nil
}

// withSessionRetry runs fn with the current session and, if the portal
// rejects it, once more with a renewed session.
func (s *Service) withSessionRetry(ctx context.Context, fn func(session htql.Session) error) error {
	session, err := s.sessions.Session(ctx)
	if err != nil {
		return err
	}
	err = fn(session)
	if !htql.SessionRejected(err) {
		return err
	}

	slog.InfoContext(ctx, "portal rejected session, logging in again", "err", err)
	session, err = s.sessions.Renew(ctx, session)
	if err != nil {
		return err
	}
	return fn(session)
}

// Groups resolves every subject concurrently. Any failure fails the batch.
func (s *Service) Groups(ctx context.Context, term htql.SchoolYear, subjectIds []string) (map[string][]timetable.StudyGroup, error) {
	ctx, span := tracer.Start(ctx, "Groups")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("subject_ids", subjectIds))

	var mu sync.Mutex
	result := make(map[string][]timetable.StudyGroup, len(subjectIds))

	g, ctx := errgroup.WithContext(ctx)
	for _, subjectId := range subjectIds {
		g.Go(func() error {
			var groups []timetable.StudyGroup
			err := s.withSessionRetry(ctx, func(session htql.Session) error {
				var err error
				groups, err = s.Resolve(ctx, term, subjectId, session)
				return err
			})
			if err != nil {
				return err
			}

			mu.Lock()
			result[subjectId] = groups
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve groups")
		return nil, err
	}
	return result, nil
}
