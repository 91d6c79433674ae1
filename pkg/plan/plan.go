// Package plan models the construction plan returned by the external
// generator: tasks with material and labor costs, material deliveries and
// the payment schedule. It derives the direct cost and the project duration
// fed into the pricing engine.
package plan

import (
	"fmt"

	"github.com/iwvelando/construction-pricing/pkg/datetime"
)

// Task statuses used by the generator.
const (
	TaskNotStarted = "Não Iniciado"
	TaskInProgress = "Em Andamento"
	TaskDone       = "Concluído"
	TaskLate       = "Atrasado"
)

// Payment categories.
const (
	CategoryLabor    = "Mão de Obra"
	CategoryMaterial = "Material"
)

// Plan is a complete construction plan.
type Plan struct {
	ProjectStartDate   string               `json:"projectStartDate" yaml:"projectStartDate"`
	ProjectEndDate     string               `json:"projectEndDate" yaml:"projectEndDate"`
	Budget             Budget               `json:"budget" yaml:"budget"`
	Tasks              []Task               `json:"tasks" yaml:"tasks"`
	MaterialDeliveries []MaterialDelivery   `json:"materialDeliveries,omitempty" yaml:"materialDeliveries,omitempty"`
	PaymentSchedule    []PaymentInstallment `json:"paymentSchedule,omitempty" yaml:"paymentSchedule,omitempty"`
}

// Budget is the generator's budget summary.
type Budget struct {
	Total      float64 `json:"total" yaml:"total"`
	Materials  float64 `json:"materials" yaml:"materials"`
	Labor      float64 `json:"labor" yaml:"labor"`
	ManagerFee float64 `json:"managerFee" yaml:"managerFee"`
}

// Task is one scheduled construction task.
type Task struct {
	ID            int     `json:"id" yaml:"id"`
	Phase         string  `json:"phase" yaml:"phase"`
	TaskName      string  `json:"taskName" yaml:"taskName"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
	Assignee      string  `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	StartDate     string  `json:"startDate" yaml:"startDate"`
	EndDate       string  `json:"endDate" yaml:"endDate"`
	Status        string  `json:"status,omitempty" yaml:"status,omitempty"`
	Dependencies  string  `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	CostMaterials float64 `json:"costMaterials" yaml:"costMaterials"`
	CostLabor     float64 `json:"costLabor" yaml:"costLabor"`
	Notes         string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// TotalCost returns the task's material plus labor cost.
func (t Task) TotalCost() float64 {
	return t.CostMaterials + t.CostLabor
}

// MaterialDelivery schedules a material delivery for a task.
type MaterialDelivery struct {
	ID            int    `json:"id" yaml:"id"`
	MaterialName  string `json:"materialName" yaml:"materialName"`
	RelatedTaskID int    `json:"relatedTaskId" yaml:"relatedTaskId"`
	DeliveryDate  string `json:"deliveryDate" yaml:"deliveryDate"`
	Supplier      string `json:"supplier,omitempty" yaml:"supplier,omitempty"`
	Status        string `json:"status,omitempty" yaml:"status,omitempty"`
}

// PaymentInstallment is one entry of the payment schedule.
type PaymentInstallment struct {
	ID          int     `json:"id" yaml:"id"`
	Description string  `json:"description" yaml:"description"`
	DueDate     string  `json:"dueDate" yaml:"dueDate"`
	Amount      float64 `json:"amount" yaml:"amount"`
	Status      string  `json:"status,omitempty" yaml:"status,omitempty"`
	Category    string  `json:"category" yaml:"category"`
}

// DirectCost sums material and labor costs over all tasks.
func DirectCost(tasks []Task) float64 {
	total := 0.0
	for _, task := range tasks {
		total += task.TotalCost()
	}
	return total
}

// DirectCost sums material and labor costs over the plan's tasks.
func (p *Plan) DirectCost() float64 {
	if p == nil {
		return 0
	}
	return DirectCost(p.Tasks)
}

// DurationDays returns the project length in days, 0 when the dates are
// missing or inverted.
func (p *Plan) DurationDays() float64 {
	if p == nil {
		return 0
	}
	return datetime.DurationDays(p.ProjectStartDate, p.ProjectEndDate)
}

// DurationMonths returns the project length in average months, defaulting
// when the plan has no positive length.
func (p *Plan) DurationMonths() float64 {
	if p == nil {
		return datetime.DurationMonths("", "")
	}
	return datetime.DurationMonths(p.ProjectStartDate, p.ProjectEndDate)
}

// PaymentTotals sums the payment schedule per category.
func (p *Plan) PaymentTotals() map[string]float64 {
	totals := make(map[string]float64)
	if p == nil {
		return totals
	}
	for _, installment := range p.PaymentSchedule {
		totals[installment.Category] += installment.Amount
	}
	return totals
}

// Validate returns warnings about inconsistencies that do not prevent the
// plan from being priced.
func (p *Plan) Validate() []string {
	var warnings []string
	if p == nil {
		return warnings
	}

	if _, err := datetime.ParseDate(p.ProjectStartDate); err != nil {
		warnings = append(warnings, fmt.Sprintf("project start date: %v", err))
	}
	if _, err := datetime.ParseDate(p.ProjectEndDate); err != nil {
		warnings = append(warnings, fmt.Sprintf("project end date: %v", err))
	}

	taskIDs := make(map[int]struct{}, len(p.Tasks))
	for _, task := range p.Tasks {
		taskIDs[task.ID] = struct{}{}
		if task.CostMaterials < 0 || task.CostLabor < 0 {
			warnings = append(warnings, fmt.Sprintf("task %d (%s) has a negative cost", task.ID, task.TaskName))
		}
		start, startErr := datetime.ParseDate(task.StartDate)
		end, endErr := datetime.ParseDate(task.EndDate)
		if startErr != nil || endErr != nil {
			warnings = append(warnings, fmt.Sprintf("task %d (%s) has invalid dates", task.ID, task.TaskName))
			continue
		}
		if end.Before(start) {
			warnings = append(warnings, fmt.Sprintf("task %d (%s) ends before it starts", task.ID, task.TaskName))
		}
	}

	for _, delivery := range p.MaterialDeliveries {
		if _, ok := taskIDs[delivery.RelatedTaskID]; !ok {
			warnings = append(warnings, fmt.Sprintf("delivery %d (%s) references unknown task %d",
				delivery.ID, delivery.MaterialName, delivery.RelatedTaskID))
		}
	}

	return warnings
}
