package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"ctutimetable-backend/lib/scrapers/htql"

	"github.com/antzucaro/matchr"
)

// SubjectName returns the stored name of a subject, scraping and storing it
// with the current term when it is not known yet.
func (s *Service) SubjectName(ctx context.Context, subjectId string) (string, error) {
	name, found, err := s.names.Find(ctx, subjectId)
	if err != nil {
		return "", err
	}
	if found {
		return name, nil
	}

	term, err := s.Term(ctx)
	if err != nil {
		return "", err
	}
	err = s.withSessionRetry(ctx, func(session htql.Session) error {
		var err error
		name, found, err = s.scraper.SubjectName(ctx, session, term.Semester, term.Year, subjectId)
		return err
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrSubjectNotFound
	}

	if err := s.names.Insert(ctx, subjectId, name); err != nil {
		slog.WarnContext(ctx, "failed to store subject name", "subject_id", subjectId, "err", err)
	}
	return name, nil
}

// Subjects returns every stored subject name by id.
func (s *Service) Subjects(ctx context.Context) (map[string]string, error) {
	return s.names.FindAll(ctx)
}

type SubjectMatch struct {
	SubjectId  string  `json:"id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// minSimilarity drops matches that share little more than a few letters
const minSimilarity = 0.6

// SearchSubjects ranks stored subjects by how closely their id or name
// resembles query and returns at most limit of them.
func (s *Service) SearchSubjects(ctx context.Context, query string, limit int) ([]SubjectMatch, error) {
	names, err := s.names.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	matches := []SubjectMatch{}
	for id, name := range names {
		similarity := max(
			matchr.JaroWinkler(query, strings.ToLower(id), false),
			matchr.JaroWinkler(query, strings.ToLower(name), false),
		)
		if similarity < minSimilarity {
			continue
		}
		matches = append(matches, SubjectMatch{SubjectId: id, Name: name, Similarity: similarity})
	}

	slices.SortFunc(matches, func(a, b SubjectMatch) int {
		if a.Similarity != b.Similarity {
			if a.Similarity > b.Similarity {
				return -1
			}
			return 1
		}
		return strings.Compare(a.SubjectId, b.SubjectId)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
