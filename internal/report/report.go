// Package report assembles the financial report of a construction project:
// the BDI pricing, the investment scenario matrix, the ABC curve, the phase
// breakdown and the cumulative cost timeline.
package report

import (
	"fmt"

	"github.com/iwvelando/construction-pricing/internal/config"
	"github.com/iwvelando/construction-pricing/pkg/plan"
	"github.com/iwvelando/construction-pricing/pkg/pricing"
	"go.uber.org/zap"
)

// Report holds every figure derived for one project.
type Report struct {
	Name           string             `json:"name"`
	Client         string             `json:"client,omitempty"`
	DirectCost     float64            `json:"directCost"`
	DurationMonths float64            `json:"durationMonths"`
	IndirectCosts  map[string]string  `json:"indirectCosts"`
	Taxes          map[string]string  `json:"taxes"`
	MarginPercent  float64            `json:"netProfitMarginPercent"`
	Financials     pricing.Result     `json:"financials"`
	Matrix         pricing.Matrix     `json:"matrix"`
	ABC            plan.ABCCurve      `json:"abc"`
	Phases         []plan.PhaseCost   `json:"phases"`
	PhasesValid    bool               `json:"phasesValid"`
	Evolution      []EvolutionPoint   `json:"evolution,omitempty"`
	PaymentTotals  map[string]float64 `json:"paymentTotals,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
}

// Build computes the report of the configured project. Everything is
// recomputed from the configuration on each call.
func Build(logger *zap.Logger, conf *config.Configuration) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		return Report{}, fmt.Errorf("no project configuration")
	}

	p := conf.Project.Plan
	rep := Report{
		Name:           conf.Project.Name,
		Client:         conf.Project.Client,
		DirectCost:     conf.DirectCost(),
		DurationMonths: conf.DurationMonths(),
		IndirectCosts:  conf.Project.IndirectCosts,
		Taxes:          conf.Project.Taxes,
		MarginPercent:  conf.Project.NetProfitMargin,
		Warnings:       conf.ValidateConfiguration(),
	}

	rep.Financials = pricing.Calculate(conf.PricingInput())
	logger.Debug("priced project",
		zap.String("op", "report.Build"),
		zap.String("project", rep.Name),
		zap.String("status", string(rep.Financials.Status)),
		zap.Float64("directCost", rep.DirectCost),
		zap.Float64("bdiRate", rep.Financials.BDIRate),
		zap.Float64("finalPrice", rep.Financials.FinalPrice),
	)
	if !rep.Financials.Priceable() {
		logger.Warn("project cannot be priced",
			zap.String("op", "report.Build"),
			zap.String("project", rep.Name),
			zap.Error(rep.Financials.Err()),
		)
		if rep.Financials.Status == pricing.StatusOutOfRange {
			rep.Warnings = append(rep.Warnings, rep.Financials.Err().Error())
		}
	}

	rep.Matrix = pricing.BuildMatrix(conf.MatrixInput())
	logger.Debug("built investment matrix",
		zap.String("op", "report.Build"),
		zap.Float64("annualInterestRate", rep.Matrix.AnnualInterestRatePercent),
		zap.Float64("durationMonths", rep.Matrix.ProjectDurationMonths),
		zap.Int("levels", len(rep.Matrix.Levels)),
	)

	rep.Phases, rep.PhasesValid = plan.PhaseBreakdown(rep.DirectCost)

	if p != nil {
		rep.ABC = plan.ClassifyABC(p.Tasks)
		rep.PaymentTotals = p.PaymentTotals()

		evolution, err := Evolution(p)
		if err != nil {
			return rep, fmt.Errorf("failed to build cost evolution for project %s: %w", rep.Name, err)
		}
		rep.Evolution = evolution
	} else {
		rep.ABC = plan.ClassifyABC(nil)
	}

	return rep, nil
}
