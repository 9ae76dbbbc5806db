package catalog

import (
	"context"
	"log/slog"

	"ctutimetable-backend/lib/scrapers/htql"
)

// Term returns the registration term, discovering it on first use.
func (s *Service) Term(ctx context.Context) (htql.SchoolYear, error) {
	s.termMu.RLock()
	term := s.term
	s.termMu.RUnlock()
	if term.Year != 0 {
		return term, nil
	}
	return s.RefreshTerm(ctx)
}

// RefreshTerm discovers the registration term again and keeps it for
// later calls to Term.
func (s *Service) RefreshTerm(ctx context.Context) (htql.SchoolYear, error) {
	var term htql.SchoolYear
	err := s.withSessionRetry(ctx, func(session htql.Session) error {
		var err error
		term, err = s.scraper.AvailableTerm(ctx, session)
		return err
	})
	if err != nil {
		return htql.SchoolYear{}, err
	}

	s.termMu.Lock()
	s.term = term
	s.termMu.Unlock()

	slog.InfoContext(ctx, "registration term", "year", term.Year, "semester", term.Semester)
	return term, nil
}
