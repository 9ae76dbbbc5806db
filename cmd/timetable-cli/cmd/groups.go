package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"ctutimetable-backend/lib/scrapers/htql"
	"ctutimetable-backend/lib/timetable"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	groupsYear     int
	groupsSemester int
)

func init() {
	groupsCmd.Flags().IntVar(&groupsYear, "year", 0, "Academic year the term starts in, defaults to the term open for registration.")
	groupsCmd.Flags().IntVar(&groupsSemester, "semester", 0, "Semester (1, 2 or 3), defaults to the term open for registration.")
	rootCmd.AddCommand(groupsCmd)
}

var groupsCmd = &cobra.Command{
	Use:   "groups <subject id>...",
	Short: "Print the study groups and schedule of one or more subjects.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := htql.SchoolYear{Year: groupsYear, Semester: groupsSemester}
		if term.Year == 0 || term.Semester == 0 {
			current, err := service.Term(cmd.Context())
			if err != nil {
				return err
			}
			if term.Year == 0 {
				term.Year = current.Year
			}
			if term.Semester == 0 {
				term.Semester = current.Semester
			}
		}

		var subjectIds []string
		for _, arg := range args {
			for _, id := range strings.Split(arg, ",") {
				if id = strings.ToUpper(strings.TrimSpace(id)); id != "" {
					subjectIds = append(subjectIds, id)
				}
			}
		}

		groups, err := service.Groups(cmd.Context(), term, subjectIds)
		if err != nil {
			return err
		}

		t := newTable()
		t.SetTitle(term.String())
		t.AppendHeader(table.Row{"Subject", "Group", "Class", "Capacity", "Remaining", "Day", "Periods", "Room", "Weeks"})
		t.AppendRows(groupRows(groups))
		t.Render()
		return nil
	},
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// groupRows flattens groups into one row per meeting, groups without a
// schedule get a single row with empty meeting columns.
func groupRows(groups map[string][]timetable.StudyGroup) []table.Row {
	subjectIds := make([]string, 0, len(groups))
	for id := range groups {
		subjectIds = append(subjectIds, id)
	}
	slices.Sort(subjectIds)

	var rows []table.Row
	for _, subjectId := range subjectIds {
		for _, group := range groups[subjectId] {
			prefix := table.Row{subjectId, group.GroupSymbol, group.ClassLabel, group.Capacity, group.Remaining}
			if len(group.Slots) == 0 {
				rows = append(rows, append(prefix, "", "", "", group.WeeksText))
				continue
			}
			for _, slot := range group.Slots {
				row := slices.Clone(prefix)
				row = append(row, weekdayName(slot.Weekday), periodRange(slot.Periods), slot.Room, group.WeeksText)
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// the portal numbers Monday as 2 and Sunday as 8
func weekdayName(weekday int) string {
	if weekday == 8 {
		return "CN"
	}
	return fmt.Sprintf("Thứ %d", weekday)
}

func periodRange(periods []int) string {
	switch len(periods) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(periods[0])
	default:
		return fmt.Sprintf("%d-%d", periods[0], periods[len(periods)-1])
	}
}
