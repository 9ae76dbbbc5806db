// Package timetable turns the flat cell sequence of the portal's group listing
// into study groups.
//
// A listing row normally spans 10 cells:
//
//	0 ordinal | 1 group symbol | 2 weekday | 3 start period | 4 period count |
//	5 room | 6 capacity | 7 remaining | 8 weeks | 9 class label
//
// Groups without an assigned schedule are rendered without the weekday, start
// period, period count and room cells, so their row is only 6 cells wide and the
// weeks cell (which then sits at index 4) carries a "*".
package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	rowWidth        = 10
	headerWidth     = rowWidth
	noScheduleWidth = 6
	// a no-schedule row taken as the final 7 cells of the listing keeps all 7
	noScheduleTail   = 7
	markerField      = 4
	noScheduleMarker = "*"
)

var (
	// ErrNoRows means the listing had a header but no groups, the subject is
	// unknown or not offered in the requested term.
	ErrNoRows = errors.New("timetable: invalid subject id or subject is not offered in this semester")
	// ErrMalformedRow means a row was too short or carried a non-numeric number field.
	ErrMalformedRow = errors.New("timetable: malformed row")
)

// LogicalRow is one reconstructed listing row. No-schedule rows have zero
// Weekday, StartPeriod, PeriodCount and an empty Room.
type LogicalRow struct {
	GroupSymbol string
	Weekday     int
	StartPeriod int
	PeriodCount int
	Room        string
	Capacity    int
	Remaining   int
	WeeksText   string
	ClassLabel  string
}

// Scheduled reports whether the row describes an actual meeting.
func (r LogicalRow) Scheduled() bool {
	return r.Weekday != 0
}

// Periods returns the consecutive run of PeriodCount periods starting at StartPeriod.
func (r LogicalRow) Periods() []int {
	if r.PeriodCount <= 0 {
		return nil
	}
	periods := make([]int, r.PeriodCount)
	for i := range periods {
		periods[i] = r.StartPeriod + i
	}
	return periods
}

// Reconstruct rebuilds the logical rows of a listing from its cells. The
// first 10 cells are the table header. Every cell after the header belongs
// to exactly one row.
func Reconstruct(cells []string) ([]LogicalRow, error) {
	var rows []LogicalRow

	pos := headerWidth
	for pos < len(cells) {
		end := min(pos+rowWidth, len(cells))
		candidate := cells[pos:end]

		if len(candidate) > markerField && strings.Contains(candidate[markerField], noScheduleMarker) {
			// the row is narrower than 10 cells, whatever follows the 6th cell
			// is the start of the next row.
			if len(candidate) != noScheduleTail {
				candidate = candidate[:min(len(candidate), noScheduleWidth)]
			}
			row, err := noScheduleRow(candidate)
			if err != nil {
				return nil, fmt.Errorf("row at cell %d: %w", pos, err)
			}
			rows = append(rows, row)
			pos += len(candidate)
			continue
		}

		row, err := scheduledRow(candidate)
		if err != nil {
			return nil, fmt.Errorf("row at cell %d: %w", pos, err)
		}
		rows = append(rows, row)
		pos = end
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func noScheduleRow(cells []string) (LogicalRow, error) {
	if len(cells) < noScheduleWidth {
		return LogicalRow{}, fmt.Errorf("%w: expected %d cells, got %d", ErrMalformedRow, noScheduleWidth, len(cells))
	}
	p := fieldParser{cells: cells}
	row := LogicalRow{
		GroupSymbol: cells[1],
		Capacity:    p.int(2, "capacity"),
		Remaining:   p.int(3, "remaining"),
		WeeksText:   cells[4],
		ClassLabel:  cells[5],
	}
	return row, p.err
}

func scheduledRow(cells []string) (LogicalRow, error) {
	if len(cells) < rowWidth {
		return LogicalRow{}, fmt.Errorf("%w: expected %d cells, got %d", ErrMalformedRow, rowWidth, len(cells))
	}
	p := fieldParser{cells: cells}
	row := LogicalRow{
		GroupSymbol: cells[1],
		Weekday:     p.int(2, "weekday"),
		StartPeriod: p.int(3, "start period"),
		PeriodCount: p.int(4, "period count"),
		Room:        cells[5],
		Capacity:    p.int(6, "capacity"),
		Remaining:   p.int(7, "remaining"),
		WeeksText:   cells[8],
		ClassLabel:  cells[9],
	}
	if p.err != nil {
		return LogicalRow{}, p.err
	}
	if row.Scheduled() && row.PeriodCount < 1 {
		return LogicalRow{}, fmt.Errorf("%w: group %s has %d periods", ErrMalformedRow, row.GroupSymbol, row.PeriodCount)
	}
	return row, nil
}

// fieldParser keeps the first conversion error so a row can be parsed field by field.
type fieldParser struct {
	cells []string
	err   error
}

func (p *fieldParser) int(index int, name string) int {
	if p.err != nil {
		return 0
	}
	value, err := strconv.Atoi(strings.TrimSpace(p.cells[index]))
	if err != nil {
		p.err = fmt.Errorf("%w: %s %q is not a number", ErrMalformedRow, name, p.cells[index])
		return 0
	}
	return value
}
