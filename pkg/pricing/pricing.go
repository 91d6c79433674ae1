// Package pricing implements the BDI pricing engine: it turns a direct cost,
// indirect-cost and tax percentages and a target net-profit margin into a
// sale price and its financial decomposition, and derives the investment
// scenario matrix from it.
//
// Every function in this package is pure. Results are recomputed from the
// current inputs on every call and nothing is retained between calls.
package pricing

import (
	"errors"

	"github.com/iwvelando/construction-pricing/pkg/constants"
	"github.com/iwvelando/construction-pricing/pkg/mathutil"
)

// ErrUnpriceable reports that taxes plus profit margin reach 100% of the sale
// price, leaving nothing to cover the cost of the work.
var ErrUnpriceable = errors.New(constants.UnpriceableMessage)

// ErrOutOfRange reports that the inputs are so large that a derived value
// overflows float64.
var ErrOutOfRange = errors.New(constants.OutOfRangeMessage)

// Status classifies a pricing result.
type Status string

const (
	// StatusOK is a regular, fully priced result.
	StatusOK Status = "ok"
	// StatusNoCost means the project has no costed tasks yet; every monetary
	// value is zero.
	StatusNoCost Status = "no_cost"
	// StatusUnpriceable means taxes and margin leave no room for costs. The
	// monetary values must not be presented as a price.
	StatusUnpriceable Status = "unpriceable"
	// StatusOutOfRange means a total or derived value overflowed. Every
	// monetary value is zero and must not be presented as a price.
	StatusOutOfRange Status = "out_of_range"
)

// Input holds the pricing parameters of a single scenario. Percentages are
// kept as text, the way they are typed by the user.
type Input struct {
	DirectCost             float64           `json:"directCost" yaml:"directCost"`
	IndirectCosts          map[string]string `json:"indirectCosts" yaml:"indirectCosts"`
	Taxes                  map[string]string `json:"taxes" yaml:"taxes"`
	NetProfitMarginPercent float64           `json:"netProfitMarginPercent" yaml:"netProfitMarginPercent"`
}

// Result is the financial decomposition of a sale price.
type Result struct {
	Status Status `json:"status"`

	TotalIndirect float64 `json:"totalIndirect"`
	TotalTaxes    float64 `json:"totalTaxes"`
	ProfitMargin  float64 `json:"profitMargin"`

	// BDIRate is the markup ratio applied to the direct cost (0.6786 = 67.86%).
	BDIRate            float64 `json:"bdiRate"`
	DirectCost         float64 `json:"directCost"`
	FinalPrice         float64 `json:"finalPrice"`
	GrossMargin        float64 `json:"grossMargin"`
	IndirectCostsValue float64 `json:"indirectCostsValue"`
	EBITDA             float64 `json:"ebitda"`
	TaxesValue         float64 `json:"taxesValue"`
	NetProfit          float64 `json:"netProfit"`
	// ROI is net profit over direct cost, in percent.
	ROI float64 `json:"roi"`
}

// Priceable reports whether the result holds a sale price that may be shown
// to a client.
func (r Result) Priceable() bool {
	return r.Status == StatusOK || r.Status == StatusNoCost
}

// Err returns ErrUnpriceable or ErrOutOfRange for results that hold no
// price, and nil otherwise.
func (r Result) Err() error {
	return r.Status.Err()
}

// Err returns the error matching a status that holds no price.
func (s Status) Err() error {
	switch s {
	case StatusUnpriceable:
		return ErrUnpriceable
	case StatusOutOfRange:
		return ErrOutOfRange
	default:
		return nil
	}
}

// BDIPercent returns the BDI rate in percent.
func (r Result) BDIPercent() float64 {
	return mathutil.FractionToPercent(r.BDIRate)
}

// Calculate prices a single scenario.
//
// The sale price is directCost × (1 + BDI) with
// BDI = (1 + totalIndirect) / (1 − (totalTaxes + margin)) − 1. Indirect costs
// are a share of the direct cost while taxes and margin are shares of the
// final price, so the price decomposes exactly into direct cost, indirect
// costs, taxes and net profit.
func Calculate(in Input) Result {
	directCost := mathutil.Finite(in.DirectCost)
	totals := totalsFor(in.IndirectCosts, in.Taxes, in.NetProfitMarginPercent)
	return calculate(directCost, totals)
}

// totals are the parsed percentage sums shared by every scenario of a matrix.
type totals struct {
	indirect float64
	taxes    float64
	margin   float64
}

func totalsFor(indirectCosts, taxes map[string]string, marginPercent float64) totals {
	return totals{
		indirect: SumPercents(indirectCosts),
		taxes:    SumPercents(taxes),
		margin:   mathutil.PercentToFraction(mathutil.Finite(marginPercent)),
	}
}

func (t totals) denominator() float64 {
	return 1 - (t.taxes + t.margin)
}

func calculate(directCost float64, t totals) Result {
	result := Result{
		Status:        StatusOK,
		TotalIndirect: t.indirect,
		TotalTaxes:    t.taxes,
		ProfitMargin:  t.margin,
		DirectCost:    directCost,
	}

	if !mathutil.IsFinite(t.indirect) || !mathutil.IsFinite(t.taxes) {
		return outOfRange(result)
	}

	denominator := t.denominator()
	switch {
	case denominator <= 0:
		result.Status = StatusUnpriceable
	case directCost <= 0:
		result.Status = StatusNoCost
	default:
		result.BDIRate = (1+t.indirect)/denominator - 1
		result.FinalPrice = directCost * (1 + result.BDIRate)
	}

	result.GrossMargin = result.FinalPrice - directCost
	result.IndirectCostsValue = directCost * t.indirect
	result.EBITDA = result.GrossMargin - result.IndirectCostsValue
	result.TaxesValue = result.FinalPrice * t.taxes
	result.NetProfit = result.FinalPrice * t.margin
	if directCost > 0 {
		result.ROI = mathutil.FractionToPercent(result.NetProfit / directCost)
	}

	for _, v := range []float64{
		result.BDIRate, result.FinalPrice, result.GrossMargin, result.IndirectCostsValue,
		result.EBITDA, result.TaxesValue, result.NetProfit, result.ROI,
	} {
		if !mathutil.IsFinite(v) {
			return outOfRange(result)
		}
	}
	return result
}

// outOfRange keeps the inputs of r and clears every derived value.
func outOfRange(r Result) Result {
	return Result{
		Status:        StatusOutOfRange,
		TotalIndirect: mathutil.Finite(r.TotalIndirect),
		TotalTaxes:    mathutil.Finite(r.TotalTaxes),
		ProfitMargin:  r.ProfitMargin,
		DirectCost:    r.DirectCost,
	}
}

// ImpliedMargin inverts the pricing formula: it returns the net-profit
// margin, in percent, that selling at price yields for the given costs and
// taxes. The margin may be negative when the price does not cover costs and
// taxes.
func ImpliedMargin(directCost float64, indirectCosts, taxes map[string]string, price float64) (float64, error) {
	directCost = mathutil.Finite(directCost)
	price = mathutil.Finite(price)
	if directCost <= 0 || price <= 0 {
		return 0, ErrUnpriceable
	}

	totalIndirect := SumPercents(indirectCosts)
	totalTaxes := SumPercents(taxes)
	margin := 1 - totalTaxes - (1+totalIndirect)*directCost/price
	return mathutil.FractionToPercent(margin), nil
}
