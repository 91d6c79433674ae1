package plan

import (
	"sort"

	"github.com/iwvelando/construction-pricing/pkg/mathutil"
)

// ABC classes, by cumulative share of the direct cost.
const (
	ClassA = "A"
	ClassB = "B"
	ClassC = "C"
)

const (
	classALimit = 80.0
	classBLimit = 95.0
)

// ABCItem is a task ranked on the ABC curve.
type ABCItem struct {
	TaskID            int     `json:"taskId"`
	TaskName          string  `json:"taskName"`
	Phase             string  `json:"phase"`
	TotalCost         float64 `json:"totalCost"`
	Weight            float64 `json:"weight"`
	CumulativePercent float64 `json:"cumulativePercent"`
	Class             string  `json:"class"`
}

// ABCClassSummary aggregates the tasks of one class.
type ABCClassSummary struct {
	Count int     `json:"count"`
	Cost  float64 `json:"cost"`
}

// ABCCurve is the Pareto classification of the plan's tasks by cost.
type ABCCurve struct {
	GrandTotal float64                    `json:"grandTotal"`
	Items      []ABCItem                  `json:"items"`
	Summary    map[string]ABCClassSummary `json:"summary"`
}

// Empty reports whether there were no costs to classify.
func (c ABCCurve) Empty() bool {
	return len(c.Items) == 0
}

// ClassifyABC ranks tasks with a positive cost from the most to the least
// expensive. Tasks within the first 80% of the cumulative cost are class A,
// up to 95% class B, the rest class C.
func ClassifyABC(tasks []Task) ABCCurve {
	curve := ABCCurve{
		Summary: map[string]ABCClassSummary{
			ClassA: {},
			ClassB: {},
			ClassC: {},
		},
	}

	costed := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task.TotalCost() > 0 {
			costed = append(costed, task)
			curve.GrandTotal += task.TotalCost()
		}
	}
	if curve.GrandTotal == 0 {
		return curve
	}

	sort.SliceStable(costed, func(i, j int) bool {
		return costed[i].TotalCost() > costed[j].TotalCost()
	})

	cumulative := 0.0
	curve.Items = make([]ABCItem, 0, len(costed))
	for _, task := range costed {
		cost := task.TotalCost()
		cumulative += cost
		item := ABCItem{
			TaskID:            task.ID,
			TaskName:          task.TaskName,
			Phase:             task.Phase,
			TotalCost:         cost,
			Weight:            mathutil.CalculatePercentage(cost, curve.GrandTotal),
			CumulativePercent: mathutil.CalculatePercentage(cumulative, curve.GrandTotal),
		}
		switch {
		case item.CumulativePercent <= classALimit:
			item.Class = ClassA
		case item.CumulativePercent <= classBLimit:
			item.Class = ClassB
		default:
			item.Class = ClassC
		}

		summary := curve.Summary[item.Class]
		summary.Count++
		summary.Cost += cost
		curve.Summary[item.Class] = summary

		curve.Items = append(curve.Items, item)
	}

	return curve
}
