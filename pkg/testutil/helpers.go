// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/construction-pricing/internal/config"
	"github.com/iwvelando/construction-pricing/pkg/plan"
	"github.com/iwvelando/construction-pricing/pkg/pricing"
)

// SamplePlan returns a four-task plan with a direct cost of 100000 running
// from 2024-01-10 to 2024-04-20.
func SamplePlan() *plan.Plan {
	return &plan.Plan{
		ProjectStartDate: "2024-01-10",
		ProjectEndDate:   "2024-04-20",
		Budget:           plan.Budget{Total: 100000, Materials: 66000, Labor: 34000},
		Tasks: []plan.Task{
			{ID: 1, Phase: "Fundação", TaskName: "Sapatas", StartDate: "2024-01-10", EndDate: "2024-01-31", CostMaterials: 20000, CostLabor: 10000},
			{ID: 2, Phase: "Estrutura", TaskName: "Pilares", StartDate: "2024-02-01", EndDate: "2024-03-15", CostMaterials: 40000, CostLabor: 20000},
			{ID: 3, Phase: "Estrutura", TaskName: "Lajes", StartDate: "2024-02-10", EndDate: "2024-03-30", CostMaterials: 5000, CostLabor: 3000},
			{ID: 4, Phase: "Acabamento", TaskName: "Pintura", StartDate: "2024-04-01", EndDate: "2024-04-20", CostMaterials: 1000, CostLabor: 1000},
		},
		MaterialDeliveries: []plan.MaterialDelivery{
			{ID: 1, MaterialName: "Cimento", RelatedTaskID: 1, DeliveryDate: "2024-01-08", Supplier: "Votorantim"},
		},
		PaymentSchedule: []plan.PaymentInstallment{
			{ID: 1, Description: "Sinal", DueDate: "2024-01-10", Amount: 5000, Category: plan.CategoryLabor},
			{ID: 2, Description: "Cimento", DueDate: "2024-01-08", Amount: 7000, Category: plan.CategoryMaterial},
		},
	}
}

// SampleConfiguration returns a project priced with the default indirect
// costs, taxes and margin over SamplePlan.
func SampleConfiguration() *config.Configuration {
	return &config.Configuration{
		Project: config.Project{
			Name:            "Residencial Aurora",
			Client:          "Maria Souza",
			Plan:            SamplePlan(),
			NetProfitMargin: 22,
			IndirectCosts:   config.DefaultIndirectCosts(),
			Taxes:           config.DefaultTaxes(),
		},
	}
}

// FindScenario finds a scenario row by label in a financing block.
// Returns a pointer to the row if found, nil otherwise.
func FindScenario(block pricing.FinancingBlock, label string) *pricing.ScenarioRow {
	for i := range block.Scenarios {
		if block.Scenarios[i].Label == label {
			return &block.Scenarios[i]
		}
	}
	return nil
}
