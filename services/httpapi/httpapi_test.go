package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ctutimetable-backend/lib/scrapers/htql"
	"ctutimetable-backend/lib/timetable"
	"ctutimetable-backend/services/catalog"

	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	term       htql.SchoolYear
	refreshed  htql.SchoolYear
	groups     map[string][]timetable.StudyGroup
	groupsErr  error
	names      map[string]string
	lastTerm   htql.SchoolYear
	lastIds    []string
	lastSearch string
	lastLimit  int
}

func (f *fakeCatalog) Term(ctx context.Context) (htql.SchoolYear, error) {
	return f.term, nil
}

func (f *fakeCatalog) RefreshTerm(ctx context.Context) (htql.SchoolYear, error) {
	f.term = f.refreshed
	return f.term, nil
}

func (f *fakeCatalog) Groups(ctx context.Context, term htql.SchoolYear, subjectIds []string) (map[string][]timetable.StudyGroup, error) {
	f.lastTerm = term
	f.lastIds = subjectIds
	if f.groupsErr != nil {
		return nil, f.groupsErr
	}
	result := make(map[string][]timetable.StudyGroup)
	for _, id := range subjectIds {
		result[id] = f.groups[id]
	}
	return result, nil
}

func (f *fakeCatalog) SubjectName(ctx context.Context, subjectId string) (string, error) {
	name, ok := f.names[subjectId]
	if !ok {
		return "", catalog.ErrSubjectNotFound
	}
	return name, nil
}

func (f *fakeCatalog) Subjects(ctx context.Context) (map[string]string, error) {
	return f.names, nil
}

func (f *fakeCatalog) SearchSubjects(ctx context.Context, query string, limit int) ([]catalog.SubjectMatch, error) {
	f.lastSearch = query
	f.lastLimit = limit
	return []catalog.SubjectMatch{{SubjectId: "CT101", Name: f.names["CT101"], Similarity: 1}}, nil
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		term:      htql.SchoolYear{Year: 2024, Semester: 1},
		refreshed: htql.SchoolYear{Year: 2024, Semester: 2},
		groups: map[string][]timetable.StudyGroup{
			"CT101": {{
				GroupSymbol: "G1",
				Capacity:    40,
				Remaining:   5,
				WeeksText:   "14 tuần",
				ClassLabel:  "L01",
				Slots:       []timetable.ScheduleSlot{{Room: "101", Weekday: 1, Periods: []int{2, 3, 4}}},
			}},
		},
		names: map[string]string{"CT101": "Lập trình căn bản"},
	}
}

func do(t *testing.T, handler http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for key, values := range header {
		req.Header[key] = values
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetGroups(t *testing.T) {
	fake := newFakeCatalog()
	handler := NewHandler(Options{Catalog: fake})

	rec := do(t, handler, "/groups/%20ct101,%20ct102,,CT101?year=2024&semester=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"CT101", "CT102"}, fake.lastIds)
	require.Equal(t, htql.SchoolYear{Year: 2024, Semester: 2}, fake.lastTerm)
	require.Empty(t, rec.Header().Get("ETag"))
	require.JSONEq(t, `{"data": {
		"CT101": [{
			"kihieu": "G1", "siso": 40, "conlai": 5, "tuanhoc": "14 tuần", "lopHP": "L01",
			"buoihoc": [{"phong": "101", "thu": 1, "tiet": [2, 3, 4]}]
		}],
		"CT102": null
	}}`, rec.Body.String())
}

func TestGetGroupsValidation(t *testing.T) {
	testCases := []struct {
		name string
		path string
	}{
		{name: "missing year", path: "/groups/CT101?semester=1"},
		{name: "missing semester", path: "/groups/CT101?year=2024"},
		{name: "bad semester", path: "/groups/CT101?year=2024&semester=4"},
		{name: "bad year", path: "/groups/CT101?year=abc&semester=1"},
		{name: "no ids", path: "/groups/,,?year=2024&semester=1"},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			fake := newFakeCatalog()
			rec := do(t, NewHandler(Options{Catalog: fake}), test.path, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Nil(t, fake.lastIds)

			var body struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestGetGroupsErrorStatus(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{err: fmt.Errorf("row at cell 10: %w", timetable.ErrNoRows), status: http.StatusNotFound},
		{err: htql.ErrInvalidSession, status: http.StatusServiceUnavailable},
		{err: htql.ErrEmptyListing, status: http.StatusServiceUnavailable},
		{err: htql.ErrAuth, status: http.StatusBadGateway},
		{err: fmt.Errorf("%w: 500", htql.ErrUpstream), status: http.StatusBadGateway},
		{err: timetable.ErrMalformedRow, status: http.StatusBadGateway},
	}

	for _, test := range testCases {
		t.Run(test.err.Error(), func(t *testing.T) {
			fake := newFakeCatalog()
			fake.groupsErr = test.err
			rec := do(t, NewHandler(Options{Catalog: fake}), "/groups/CT101?year=2024&semester=1", nil)
			require.Equal(t, test.status, rec.Code)
		})
	}
}

func TestGetSubjects(t *testing.T) {
	fake := newFakeCatalog()
	handler := NewHandler(Options{Catalog: fake})

	rec := do(t, handler, "/subjects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data": {"CT101": "Lập trình căn bản"}}`, rec.Body.String())

	rec = do(t, handler, "/subjects?search=lap+trinh&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "lap trinh", fake.lastSearch)
	require.Equal(t, 5, fake.lastLimit)
	require.JSONEq(t, `{"data": [{"id": "CT101", "name": "Lập trình căn bản", "similarity": 1}]}`, rec.Body.String())

	rec = do(t, handler, "/subjects?search=x&limit=0", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSubject(t *testing.T) {
	handler := NewHandler(Options{Catalog: newFakeCatalog()})

	rec := do(t, handler, "/subjects/ct101", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data": "Lập trình căn bản"}`, rec.Body.String())

	rec = do(t, handler, "/subjects/XX000", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTerm(t *testing.T) {
	handler := NewHandler(Options{Catalog: newFakeCatalog()})

	rec := do(t, handler, "/term", nil)
	require.JSONEq(t, `{"data": {"year": 2024, "semester": 1}}`, rec.Body.String())

	rec = do(t, handler, "/term?refresh=true", nil)
	require.JSONEq(t, `{"data": {"year": 2024, "semester": 2}}`, rec.Body.String())

	rec = do(t, handler, "/term", nil)
	require.JSONEq(t, `{"data": {"year": 2024, "semester": 2}}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	open := NewHandler(Options{Catalog: newFakeCatalog()})
	rec := do(t, open, "/healthz", http.Header{"Origin": {"https://example.com"}})
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	restricted := NewHandler(Options{
		Catalog:      newFakeCatalog(),
		AllowOrigins: []string{"https://timetable.example.com"},
	})
	rec = do(t, restricted, "/healthz", http.Header{"Origin": {"https://timetable.example.com"}})
	require.Equal(t, "https://timetable.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, restricted, "/healthz", http.Header{"Origin": {"https://evil.example.com"}})
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	handler := NewHandler(Options{
		Catalog:   newFakeCatalog(),
		RateLimit: RateLimit{Requests: 2, Window: time.Minute},
	})

	for range 2 {
		require.Equal(t, http.StatusOK, do(t, handler, "/healthz", nil).Code)
	}
	require.Equal(t, http.StatusTooManyRequests, do(t, handler, "/healthz", nil).Code)
}

func TestNotFound(t *testing.T) {
	rec := do(t, NewHandler(Options{Catalog: newFakeCatalog()}), "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
