package pricing

import (
	"math"

	"github.com/iwvelando/construction-pricing/pkg/constants"
	"github.com/iwvelando/construction-pricing/pkg/mathutil"
)

// ProfitScenario is a named net-profit margin, in percent.
type ProfitScenario struct {
	Label         string  `json:"label" yaml:"label"`
	MarginPercent float64 `json:"marginPercent" yaml:"marginPercent"`
}

// FinancingLevel is the fraction of the direct cost that is financed.
type FinancingLevel struct {
	Label    string  `json:"label" yaml:"label"`
	Fraction float64 `json:"fraction" yaml:"fraction"`
}

// SaleTiming is the number of months, counted from the project start, until
// the property is sold and the financing is repaid.
type SaleTiming struct {
	Label  string  `json:"label"`
	Months float64 `json:"months"`
}

// DefaultProfitScenarios returns the pessimistic, realistic and optimistic
// margins.
func DefaultProfitScenarios() []ProfitScenario {
	return []ProfitScenario{
		{Label: "Cenário Pessimista (15%)", MarginPercent: 15},
		{Label: "Cenário Realista (22%)", MarginPercent: 22},
		{Label: "Cenário Otimista (30%)", MarginPercent: 30},
	}
}

// DefaultFinancingLevels returns the 0%, 50% and 100% financing levels.
func DefaultFinancingLevels() []FinancingLevel {
	return []FinancingLevel{
		{Label: "Análise com 0% de Financiamento do Custo Direto", Fraction: 0},
		{Label: "Análise com 50% de Financiamento do Custo Direto", Fraction: 0.5},
		{Label: "Análise com 100% de Financiamento do Custo Direto", Fraction: 1},
	}
}

// DefaultSaleTimings returns the pre-sale, at-delivery and post-delivery
// timings for a project of the given duration in months. Non-positive
// durations fall back to the default project duration.
func DefaultSaleTimings(durationMonths float64) []SaleTiming {
	durationMonths = SanitizeDuration(durationMonths)
	return []SaleTiming{
		{Label: "VENDA NA PLANTA", Months: durationMonths * 0.5},
		{Label: "VENDA NA ENTREGA", Months: durationMonths},
		{Label: "VENDA 6 MESES PÓS-ENTREGA", Months: durationMonths + constants.PostDeliveryMonths},
	}
}

// SanitizeDuration replaces non-positive or non-finite durations with the
// default project duration.
func SanitizeDuration(months float64) float64 {
	if !mathutil.IsFinite(months) || months <= 0 {
		return constants.DefaultProjectDurationMonths
	}
	return months
}

// SanitizeInterestRate replaces negative or non-finite annual rates with the
// default financing rate.
func SanitizeInterestRate(percent float64) float64 {
	if !mathutil.IsFinite(percent) || percent < 0 {
		return constants.DefaultAnnualInterestRate
	}
	return percent
}

// ParseInterestRate reads an annual rate typed by the user, falling back to
// the default rate for text that is not a non-negative number.
func ParseInterestRate(text string) float64 {
	value, ok := parseLeadingFloat(text)
	if !ok {
		return constants.DefaultAnnualInterestRate
	}
	return SanitizeInterestRate(value)
}

// MatrixInput holds the parameters of the investment scenario matrix.
type MatrixInput struct {
	DirectCost                float64
	IndirectCosts             map[string]string
	Taxes                     map[string]string
	ProfitScenarios           []ProfitScenario
	FinancingLevels           []FinancingLevel
	AnnualInterestRatePercent float64
	ProjectDurationMonths     float64
	// SaleTimings overrides the timings derived from ProjectDurationMonths.
	SaleTimings []SaleTiming
}

// Cell is the outcome of one financing level, profit scenario and sale timing.
// OutOfRange cells overflowed and hold zeros.
type Cell struct {
	Interest    float64 `json:"interest"`
	FinalProfit float64 `json:"finalProfit"`
	ROI         float64 `json:"roi"`
	OutOfRange  bool    `json:"outOfRange,omitempty"`
}

// ScenarioRow carries a profit scenario's price figures and one cell per
// sale timing.
type ScenarioRow struct {
	ProfitScenario
	Status    Status  `json:"status"`
	SalePrice float64 `json:"salePrice"`
	NetProfit float64 `json:"netProfit"`
	EBITDA    float64 `json:"ebitda"`
	Cells     []Cell  `json:"cells"`
}

// FinancingBlock groups the scenario rows of one financing level.
type FinancingBlock struct {
	FinancingLevel
	FinancedAmount float64       `json:"financedAmount"`
	Scenarios      []ScenarioRow `json:"scenarios"`
}

// Matrix is the grid indexed by financing level, profit scenario and sale
// timing.
type Matrix struct {
	AnnualInterestRatePercent float64          `json:"annualInterestRatePercent"`
	ProjectDurationMonths     float64          `json:"projectDurationMonths"`
	SaleTimings               []SaleTiming     `json:"saleTimings"`
	Levels                    []FinancingBlock `json:"levels"`
}

// Lookup returns the cell at the given indexes.
func (m Matrix) Lookup(level, scenario, timing int) (Cell, bool) {
	if level < 0 || level >= len(m.Levels) {
		return Cell{}, false
	}
	rows := m.Levels[level].Scenarios
	if scenario < 0 || scenario >= len(rows) {
		return Cell{}, false
	}
	cells := rows[scenario].Cells
	if timing < 0 || timing >= len(cells) {
		return Cell{}, false
	}
	return cells[timing], true
}

// CompoundInterest returns the interest accrued on principal after the given
// number of months at a monthly rate. Nothing financed accrues nothing, even
// when the growth factor overflows; other overflows yield +Inf or NaN.
func CompoundInterest(principal, monthlyRate, months float64) float64 {
	if principal == 0 {
		return 0
	}
	return principal * (math.Pow(1+monthlyRate, months) - 1)
}

// BuildMatrix computes the investment scenario matrix. Empty scenario,
// financing or timing lists fall back to the defaults.
func BuildMatrix(in MatrixInput) Matrix {
	directCost := mathutil.Finite(in.DirectCost)
	rate := SanitizeInterestRate(in.AnnualInterestRatePercent)
	duration := SanitizeDuration(in.ProjectDurationMonths)

	scenarios := in.ProfitScenarios
	if len(scenarios) == 0 {
		scenarios = DefaultProfitScenarios()
	}
	levels := in.FinancingLevels
	if len(levels) == 0 {
		levels = DefaultFinancingLevels()
	}
	timings := in.SaleTimings
	if len(timings) == 0 {
		timings = DefaultSaleTimings(duration)
	}

	priced := make([]ScenarioRow, len(scenarios))
	for i, scenario := range scenarios {
		priced[i] = priceScenario(directCost, in.IndirectCosts, in.Taxes, scenario)
	}

	monthlyRate := mathutil.PercentToFraction(rate) / constants.MonthsPerYear
	matrix := Matrix{
		AnnualInterestRatePercent: rate,
		ProjectDurationMonths:     duration,
		SaleTimings:               append([]SaleTiming(nil), timings...),
		Levels:                    make([]FinancingBlock, 0, len(levels)),
	}

	for _, level := range levels {
		financed := directCost * mathutil.Finite(level.Fraction)
		block := FinancingBlock{
			FinancingLevel: level,
			FinancedAmount: mathutil.Finite(financed),
			Scenarios:      make([]ScenarioRow, 0, len(priced)),
		}
		for _, base := range priced {
			row := base
			row.Cells = make([]Cell, 0, len(timings))
			for _, timing := range timings {
				row.Cells = append(row.Cells, cellFor(financed, monthlyRate, timing.Months, row.NetProfit, directCost))
			}
			block.Scenarios = append(block.Scenarios, row)
		}
		matrix.Levels = append(matrix.Levels, block)
	}

	return matrix
}

func cellFor(financed, monthlyRate, months, netProfit, directCost float64) Cell {
	interest := CompoundInterest(financed, monthlyRate, months)
	cell := Cell{Interest: interest, FinalProfit: netProfit - interest}
	if directCost > 0 {
		cell.ROI = mathutil.FractionToPercent(cell.FinalProfit / directCost)
	}
	if !mathutil.IsFinite(cell.Interest) || !mathutil.IsFinite(cell.FinalProfit) || !mathutil.IsFinite(cell.ROI) {
		return Cell{OutOfRange: true}
	}
	return cell
}

// priceScenario runs a profit scenario through the single-scenario formula.
// Scenarios without a price keep zero sale price, profit and EBITDA.
func priceScenario(directCost float64, indirectCosts, taxes map[string]string, scenario ProfitScenario) ScenarioRow {
	result := calculate(directCost, totalsFor(indirectCosts, taxes, scenario.MarginPercent))
	row := ScenarioRow{ProfitScenario: scenario, Status: result.Status}
	if !result.Priceable() {
		return row
	}
	row.SalePrice = result.FinalPrice
	row.NetProfit = result.NetProfit
	row.EBITDA = result.EBITDA
	return row
}
