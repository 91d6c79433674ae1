package plan

import (
	"github.com/iwvelando/construction-pricing/pkg/mathutil"
)

// Phase is a construction phase with its reference share of the total cost.
type Phase struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// ReferencePhases is the cost distribution by phase of a standard
// single-family residence (CUB/SP, 09/2021).
var ReferencePhases = []Phase{
	{Name: "Serviços preliminares", Percent: 3.25},
	{Name: "Movimento de terra", Percent: 0.5},
	{Name: "Infraestrutura", Percent: 3.25},
	{Name: "Superestrutura", Percent: 13.65},
	{Name: "Vedação", Percent: 8.9},
	{Name: "Esquadrias", Percent: 9.1},
	{Name: "Cobertura", Percent: 4.75},
	{Name: "Instalações hidráulicas e sanitárias", Percent: 12.75},
	{Name: "Instalações elétricas", Percent: 4.5},
	{Name: "Impermeabilização e isolamento térmico", Percent: 0.75},
	{Name: "Revestimento (pisos, paredes e forros)", Percent: 27.0},
	{Name: "Vidros", Percent: 0.75},
	{Name: "Pintura", Percent: 7.35},
	{Name: "Serviços complementares", Percent: 3.5},
}

// PhaseCost is a phase with the share of a total cost attributed to it.
type PhaseCost struct {
	Phase
	Cost float64 `json:"cost"`
}

// PhaseBreakdown distributes totalCost over the reference phases. A
// non-positive or non-finite total yields zero costs and valid=false.
func PhaseBreakdown(totalCost float64) (breakdown []PhaseCost, valid bool) {
	valid = mathutil.IsFinite(totalCost) && totalCost > 0
	breakdown = make([]PhaseCost, 0, len(ReferencePhases))
	for _, phase := range ReferencePhases {
		entry := PhaseCost{Phase: phase}
		if valid {
			entry.Cost = mathutil.ApplyPercentage(totalCost, phase.Percent)
		}
		breakdown = append(breakdown, entry)
	}
	return breakdown, valid
}
