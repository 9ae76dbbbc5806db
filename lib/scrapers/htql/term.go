package htql

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SchoolYear is a registration term, Year is the year the academic year starts in.
type SchoolYear struct {
	Year     int `json:"year"`
	Semester int `json:"semester"`
}

func (y SchoolYear) String() string {
	return fmt.Sprintf("%d-%d/HK%d", y.Year, y.Year+1, y.Semester)
}

var (
	yearValue     = regexp.MustCompile(`^20\d\d$`)
	semesterValue = regexp.MustCompile(`^[123]$`)
)

// AvailableTerm reads the term preselected in the listing form, which is the
// term currently open for registration.
func (c *Client) AvailableTerm(ctx context.Context, session Session) (SchoolYear, error) {
	ctx, span := tracer.Start(ctx, "client:AvailableTerm")
	defer span.End()

	res, err := c.request(ctx, session).
		SetQueryParam("action", listingAction).
		Get(listingPath)
	if err := checkResponse(res, err); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch listing form")
		return SchoolYear{}, err
	}
	if strings.Contains(res.String(), logoutMarker) {
		span.SetStatus(codes.Error, ErrInvalidSession.Error())
		return SchoolYear{}, ErrInvalidSession
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return SchoolYear{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	var term SchoolYear
	doc.Find("option[selected]").Each(func(_ int, option *goquery.Selection) {
		value := strings.TrimSpace(option.AttrOr("value", ""))
		switch {
		case term.Year == 0 && yearValue.MatchString(value):
			term.Year, _ = strconv.Atoi(value)
		case term.Semester == 0 && semesterValue.MatchString(value):
			term.Semester, _ = strconv.Atoi(value)
		}
	})
	if term.Year == 0 || term.Semester == 0 {
		span.SetStatus(codes.Error, "failed to find selected term")
		return SchoolYear{}, fmt.Errorf("%w: selected year or semester not found", ErrParse)
	}

	span.SetAttributes(attribute.Int("year", term.Year), attribute.Int("semester", term.Semester))
	return term, nil
}
