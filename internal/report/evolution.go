package report

import (
	"fmt"
	"sort"

	"github.com/iwvelando/construction-pricing/pkg/datetime"
	"github.com/iwvelando/construction-pricing/pkg/plan"
)

// EvolutionPoint is one month of the cumulative direct cost timeline.
type EvolutionPoint struct {
	Month      string   `json:"month"`
	Cost       float64  `json:"cost"`
	Cumulative float64  `json:"cumulative"`
	Notes      []string `json:"notes,omitempty"`
}

// Evolution builds the monthly cumulative direct cost from the project start
// month to the end month. A task's cost is booked on the month it ends; tasks
// ending before the project starts are booked on the first month and tasks
// ending after it extend the timeline.
func Evolution(p *plan.Plan) ([]EvolutionPoint, error) {
	if p == nil || len(p.Tasks) == 0 {
		return nil, nil
	}

	startMonth, err := datetime.MonthOf(p.ProjectStartDate)
	if err != nil {
		return nil, fmt.Errorf("project start date: %w", err)
	}
	endMonth, err := datetime.MonthOf(p.ProjectEndDate)
	if err != nil {
		return nil, fmt.Errorf("project end date: %w", err)
	}
	if inverted, _ := datetime.MonthBeforeOrEqual(endMonth, startMonth); inverted {
		endMonth = startMonth
	}

	costs := make(map[string]float64)
	notes := make(map[string][]string)
	for _, task := range p.Tasks {
		month, err := datetime.MonthOf(task.EndDate)
		if err != nil {
			return nil, fmt.Errorf("task %d (%s) end date: %w", task.ID, task.TaskName, err)
		}
		if before, _ := datetime.MonthBeforeOrEqual(month, startMonth); before {
			month = startMonth
		}
		if after, _ := datetime.MonthBeforeOrEqual(endMonth, month); after {
			endMonth = month
		}
		costs[month] += task.TotalCost()
		notes[month] = append(notes[month], task.TaskName)
	}

	var timeline []EvolutionPoint
	cumulative := 0.0
	month := startMonth
	for {
		cumulative += costs[month]
		point := EvolutionPoint{
			Month:      month,
			Cost:       costs[month],
			Cumulative: cumulative,
		}
		if len(notes[month]) > 0 {
			point.Notes = append([]string(nil), notes[month]...)
			sort.Strings(point.Notes)
		}
		timeline = append(timeline, point)

		if month == endMonth {
			break
		}
		next, err := datetime.IncrementMonth(month)
		if err != nil {
			return timeline, err
		}
		month = next
	}

	return timeline, nil
}
