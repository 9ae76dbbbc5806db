package timetable

import "slices"

// ScheduleSlot is one weekly meeting of a study group.
type ScheduleSlot struct {
	Room    string `json:"phong"`
	Weekday int    `json:"thu"`
	Periods []int  `json:"tiet"`
}

// StudyGroup is a class section of a subject together with its meetings.
type StudyGroup struct {
	GroupSymbol string         `json:"kihieu"`
	Capacity    int            `json:"siso"`
	Remaining   int            `json:"conlai"`
	WeeksText   string         `json:"tuanhoc"`
	ClassLabel  string         `json:"lopHP"`
	Slots       []ScheduleSlot `json:"buoihoc"`
}

// Aggregate folds rows into one StudyGroup per group symbol, in order of first
// appearance. The shared fields come from the first row of a group and every
// scheduled row contributes one slot.
func Aggregate(rows []LogicalRow) []StudyGroup {
	groups := []StudyGroup{}
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.GroupSymbol]
		if !ok {
			i = len(groups)
			index[row.GroupSymbol] = i
			groups = append(groups, StudyGroup{
				GroupSymbol: row.GroupSymbol,
				Capacity:    row.Capacity,
				Remaining:   row.Remaining,
				WeeksText:   row.WeeksText,
				ClassLabel:  row.ClassLabel,
				Slots:       []ScheduleSlot{},
			})
		}
		if !row.Scheduled() {
			continue
		}
		groups[i].Slots = append(groups[i].Slots, ScheduleSlot{
			Room:    row.Room,
			Weekday: row.Weekday,
			Periods: row.Periods(),
		})
	}

	return groups
}

// Parse runs Reconstruct and Aggregate over the cells of a listing.
func Parse(cells []string) ([]StudyGroup, error) {
	rows, err := Reconstruct(cells)
	if err != nil {
		return nil, err
	}
	return Aggregate(rows), nil
}

// Clone returns a deep copy of groups, nil and empty slices are preserved.
func Clone(groups []StudyGroup) []StudyGroup {
	if groups == nil {
		return nil
	}
	out := make([]StudyGroup, len(groups))
	for i, group := range groups {
		out[i] = group
		if group.Slots != nil {
			out[i].Slots = make([]ScheduleSlot, len(group.Slots))
			for j, slot := range group.Slots {
				slot.Periods = slices.Clone(slot.Periods)
				out[i].Slots[j] = slot
			}
		}
	}
	return out
}
