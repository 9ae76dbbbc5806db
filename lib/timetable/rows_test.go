package timetable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var header = []string{
	"STT", "Kí hiệu", "Thứ", "Tiết BĐ", "Số tiết",
	"Phòng", "Sĩ số", "Còn lại", "Tuần học", "Lớp HP",
}

func listing(rows ...[]string) []string {
	cells := append([]string{}, header...)
	for _, row := range rows {
		cells = append(cells, row...)
	}
	return cells
}

func TestReconstruct(t *testing.T) {
	testCases := []struct {
		name   string
		cells  []string
		expect []LogicalRow
	}{
		{
			name:  "single scheduled row",
			cells: listing([]string{"1", "G1", "1", "2", "3", "101", "40", "5", "14 tuần", "L01"}),
			expect: []LogicalRow{
				{GroupSymbol: "G1", Weekday: 1, StartPeriod: 2, PeriodCount: 3, Room: "101", Capacity: 40, Remaining: 5, WeeksText: "14 tuần", ClassLabel: "L01"},
			},
		},
		{
			name: "consecutive scheduled rows",
			cells: listing(
				[]string{"1", "01", "2", "1", "3", "C1/101", "60", "12", "1234567890", "DI20V7A1"},
				[]string{"2", "01", "5", "6", "2", "C1/102", "60", "12", "1234567890", "DI20V7A1"},
			),
			expect: []LogicalRow{
				{GroupSymbol: "01", Weekday: 2, StartPeriod: 1, PeriodCount: 3, Room: "C1/101", Capacity: 60, Remaining: 12, WeeksText: "1234567890", ClassLabel: "DI20V7A1"},
				{GroupSymbol: "01", Weekday: 5, StartPeriod: 6, PeriodCount: 2, Room: "C1/102", Capacity: 60, Remaining: 12, WeeksText: "1234567890", ClassLabel: "DI20V7A1"},
			},
		},
		{
			name: "no-schedule row between scheduled rows",
			cells: listing(
				[]string{"1", "01", "2", "1", "3", "C1/101", "40", "3", "1234567890", "L01"},
				[]string{"2", "02", "40", "40", "*", "L02"},
				[]string{"3", "03", "4", "7", "3", "C1/103", "40", "0", "1234567890", "L03"},
			),
			expect: []LogicalRow{
				{GroupSymbol: "01", Weekday: 2, StartPeriod: 1, PeriodCount: 3, Room: "C1/101", Capacity: 40, Remaining: 3, WeeksText: "1234567890", ClassLabel: "L01"},
				{GroupSymbol: "02", Capacity: 40, Remaining: 40, WeeksText: "*", ClassLabel: "L02"},
				{GroupSymbol: "03", Weekday: 4, StartPeriod: 7, PeriodCount: 3, Room: "C1/103", Capacity: 40, Remaining: 0, WeeksText: "1234567890", ClassLabel: "L03"},
			},
		},
		{
			name: "consecutive no-schedule rows",
			cells: listing(
				[]string{"1", "A1", "30", "30", "*", "L01"},
				[]string{"2", "A2", "30", "29", "*", "L02"},
				[]string{"3", "A3", "30", "28", "*", "L03"},
			),
			expect: []LogicalRow{
				{GroupSymbol: "A1", Capacity: 30, Remaining: 30, WeeksText: "*", ClassLabel: "L01"},
				{GroupSymbol: "A2", Capacity: 30, Remaining: 29, WeeksText: "*", ClassLabel: "L02"},
				{GroupSymbol: "A3", Capacity: 30, Remaining: 28, WeeksText: "*", ClassLabel: "L03"},
			},
		},
		{
			name:  "no-schedule row as the whole tail",
			cells: listing([]string{"1", "A1", "30", "30", "*", "L01"}),
			expect: []LogicalRow{
				{GroupSymbol: "A1", Capacity: 30, Remaining: 30, WeeksText: "*", ClassLabel: "L01"},
			},
		},
		{
			name:  "no-schedule tail of exactly seven cells",
			cells: listing([]string{"1", "A1", "30", "30", "*", "L01", "ghi chú"}),
			expect: []LogicalRow{
				{GroupSymbol: "A1", Capacity: 30, Remaining: 30, WeeksText: "*", ClassLabel: "L01"},
			},
		},
		{
			name:  "scheduled row with weekday zero",
			cells: listing([]string{"1", "G9", "0", "0", "0", "-", "20", "20", "1234", "L09"}),
			expect: []LogicalRow{
				{GroupSymbol: "G9", Room: "-", Capacity: 20, Remaining: 20, WeeksText: "1234", ClassLabel: "L09"},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			rows, err := Reconstruct(test.cells)
			require.NoError(t, err)
			if diff := cmp.Diff(test.expect, rows); diff != "" {
				t.Fatalf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReconstructConsumesEveryCell(t *testing.T) {
	scheduled := []string{"1", "01", "3", "1", "2", "B1/201", "50", "10", "12345", "L01"}
	unscheduled := []string{"2", "02", "50", "50", "*", "L02"}

	cells := listing(scheduled, unscheduled, scheduled, unscheduled, unscheduled, scheduled)
	rows, err := Reconstruct(cells)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	consumed := 0
	for _, row := range rows {
		if row.Scheduled() {
			consumed += rowWidth
		} else {
			consumed += noScheduleWidth
		}
	}
	require.Equal(t, len(cells)-headerWidth, consumed)
}

func TestReconstructErrors(t *testing.T) {
	testCases := []struct {
		name   string
		cells  []string
		expect error
	}{
		{
			name:   "no cells",
			cells:  nil,
			expect: ErrNoRows,
		},
		{
			name:   "header only",
			cells:  listing(),
			expect: ErrNoRows,
		},
		{
			name:   "truncated scheduled row",
			cells:  listing([]string{"1", "G1", "1", "2", "3", "101"}),
			expect: ErrMalformedRow,
		},
		{
			name:   "truncated no-schedule row",
			cells:  listing([]string{"1", "A1", "30", "30", "*"}),
			expect: ErrMalformedRow,
		},
		{
			name:   "non-numeric weekday",
			cells:  listing([]string{"1", "G1", "Hai", "2", "3", "101", "40", "5", "14", "L01"}),
			expect: ErrMalformedRow,
		},
		{
			name:   "non-numeric capacity in no-schedule row",
			cells:  listing([]string{"1", "A1", "n/a", "30", "*", "L01"}),
			expect: ErrMalformedRow,
		},
		{
			name:   "scheduled row without periods",
			cells:  listing([]string{"1", "G1", "3", "2", "0", "101", "40", "5", "14", "L01"}),
			expect: ErrMalformedRow,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			rows, err := Reconstruct(test.cells)
			require.ErrorIs(t, err, test.expect)
			require.Nil(t, rows)
		})
	}
}

func TestPeriods(t *testing.T) {
	row := LogicalRow{Weekday: 2, StartPeriod: 6, PeriodCount: 4}
	require.Equal(t, []int{6, 7, 8, 9}, row.Periods())
	require.Nil(t, LogicalRow{}.Periods())
}
