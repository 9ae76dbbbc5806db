package htql

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ctutimetable-backend/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var timetableCellClass = regexp.MustCompile(`^(main_3|level_1_\d)$`)

func isTimetableCell(class string) bool {
	return timetableCellClass.MatchString(class)
}

var subjectNameRegex = regexp.MustCompile(`Tên Học phần : ([^\t\n]*)\t`)

// postListing submits the subject lookup form and returns the raw page.
func (c *Client) postListing(ctx context.Context, session Session, semester, year int, subjectId string) (string, error) {
	res, err := c.request(ctx, session).
		SetQueryParam("action", listingAction).
		SetFormData(map[string]string{
			"cmbHocKy":  strconv.Itoa(semester),
			"cmbNamHoc": strconv.Itoa(year),
			"txtMaMH":   subjectId,
		}).
		Post(listingPath)
	if err := checkResponse(res, err); err != nil {
		return "", err
	}
	return res.String(), nil
}

// GroupCells fetches the group listing of a subject and returns the text of
// its timetable cells in document order, header row included.
func (c *Client) GroupCells(ctx context.Context, session Session, semester, year int, subjectId string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "client:GroupCells")
	defer span.End()
	span.SetAttributes(
		attribute.String("subject_id", subjectId),
		attribute.Int("semester", semester),
		attribute.Int("year", year),
	)

	body, err := c.postListing(ctx, session, semester, year, subjectId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch group listing")
		return nil, err
	}
	if strings.Contains(body, logoutMarker) {
		span.SetStatus(codes.Error, ErrInvalidSession.Error())
		return nil, ErrInvalidSession
	}

	body = strings.ReplaceAll(body, "&nbsp;", "")
	cells, err := htmlutil.ExtractCells(strings.NewReader(body), isTimetableCell)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to tokenize group listing")
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if len(cells) == 0 {
		span.SetStatus(codes.Error, ErrEmptyListing.Error())
		return nil, ErrEmptyListing
	}

	span.SetAttributes(attribute.Int("cells", len(cells)))
	return cells, nil
}

// SubjectName looks up the display name of a subject. found is false when the
// portal knows no subject with that id.
func (c *Client) SubjectName(ctx context.Context, session Session, semester, year int, subjectId string) (name string, found bool, err error) {
	ctx, span := tracer.Start(ctx, "client:SubjectName")
	defer span.End()
	span.SetAttributes(attribute.String("subject_id", subjectId))

	body, err := c.postListing(ctx, session, semester, year, subjectId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch subject page")
		return "", false, err
	}
	if strings.Contains(body, logoutMarker) {
		span.SetStatus(codes.Error, ErrInvalidSession.Error())
		return "", false, ErrInvalidSession
	}

	groups := subjectNameRegex.FindStringSubmatch(body)
	if len(groups) < 2 {
		span.SetStatus(codes.Error, "failed to find subject name")
		return "", false, fmt.Errorf("%w: subject name field not found", ErrParse)
	}

	name = strings.TrimSpace(groups[1])
	return name, name != "", nil
}
