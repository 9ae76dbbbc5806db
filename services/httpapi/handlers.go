package httpapi

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"ctutimetable-backend/lib/scrapers/htql"

	"github.com/go-chi/chi/v5"
)

const defaultSearchLimit = 20

func (s server) healthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, "ok")
}

func (s server) getTerm(w http.ResponseWriter, r *http.Request) {
	get := s.catalog.Term
	if r.URL.Query().Get("refresh") == "true" {
		get = s.catalog.RefreshTerm
	}
	term, err := get(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, term)
}

// parseSubjectIds splits a comma separated id list, dropping whitespace and
// empty entries and upper casing what is left.
func parseSubjectIds(raw string) []string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, raw)

	var ids []string
	for _, id := range strings.Split(compact, ",") {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func parseTerm(r *http.Request) (htql.SchoolYear, error) {
	query := r.URL.Query()
	year, err := strconv.Atoi(query.Get("year"))
	if err != nil || year <= 0 {
		return htql.SchoolYear{}, fmt.Errorf("%w: invalid or missing query parameter year", errValidation)
	}
	semester, err := strconv.Atoi(query.Get("semester"))
	if err != nil || semester < 1 || semester > 3 {
		return htql.SchoolYear{}, fmt.Errorf("%w: invalid or missing query parameter semester", errValidation)
	}
	return htql.SchoolYear{Year: year, Semester: semester}, nil
}

func (s server) getGroups(w http.ResponseWriter, r *http.Request) {
	term, err := parseTerm(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	subjectIds := parseSubjectIds(chi.URLParam(r, "subjectIds"))
	if len(subjectIds) == 0 {
		writeFailure(w, r, fmt.Errorf("%w: no subject ids given", errValidation))
		return
	}

	groups, err := s.catalog.Groups(r.Context(), term, subjectIds)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, groups)
}

func (s server) getSubjects(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	search := strings.TrimSpace(query.Get("search"))
	if search == "" {
		subjects, err := s.catalog.Subjects(r.Context())
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeData(w, r, subjects)
		return
	}

	limit := defaultSearchLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeFailure(w, r, fmt.Errorf("%w: invalid query parameter limit", errValidation))
			return
		}
		limit = parsed
	}
	matches, err := s.catalog.SearchSubjects(r.Context(), search, limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, matches)
}

func (s server) getSubject(w http.ResponseWriter, r *http.Request) {
	subjectId := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "subjectId")))
	if subjectId == "" {
		writeFailure(w, r, fmt.Errorf("%w: no subject id given", errValidation))
		return
	}

	name, err := s.catalog.SubjectName(r.Context(), subjectId)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, name)
}
