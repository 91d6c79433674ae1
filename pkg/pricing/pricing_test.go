package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/iwvelando/construction-pricing/pkg/mathutil"
)

func defaultIndirectCosts() map[string]string {
	return map[string]string{"admin": "2", "insurance": "1", "guarantee": "0.5", "risk": "1.5"}
}

func defaultTaxes() map[string]string {
	return map[string]string{"irpj": "1.2", "csll": "1.08", "pis": "0.65", "cofins": "3", "iss": "5", "inss": "4.5"}
}

func defaultInput() Input {
	return Input{
		DirectCost:             100000,
		IndirectCosts:          defaultIndirectCosts(),
		Taxes:                  defaultTaxes(),
		NetProfitMarginPercent: 22,
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"Whole number", "2", 0.02},
		{"Decimal", "0.65", 0.0065},
		{"Half typed decimal", "1.", 0.01},
		{"Leading point", ".5", 0.005},
		{"Surrounding spaces", " 2.5 ", 0.025},
		{"Trailing percent sign", "3%", 0.03},
		{"Decimal comma", "1,08", 0.0108},
		{"Negative", "-1", -0.01},
		{"Exponent", "1e1", 0.1},
		{"Dangling exponent", "4e", 0.04},
		{"Empty", "", 0},
		{"Letters", "abc", 0},
		{"Lone sign", "-", 0},
		{"Lone point", ".", 0},
		{"Infinity text", "Infinity", 0},
		{"NaN text", "NaN", 0},
		{"Overflow", "1e400", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParsePercent(tt.input)
			if math.IsNaN(result) || math.IsInf(result, 0) {
				t.Fatalf("ParsePercent(%q) returned non-finite %v", tt.input, result)
			}
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("ParsePercent(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSumPercents(t *testing.T) {
	if got := SumPercents(defaultIndirectCosts()); math.Abs(got-0.05) > 1e-12 {
		t.Errorf("expected total indirect 0.05, got %v", got)
	}
	if got := SumPercents(defaultTaxes()); math.Abs(got-0.1543) > 1e-12 {
		t.Errorf("expected total taxes 0.1543, got %v", got)
	}
	if got := SumPercents(nil); got != 0 {
		t.Errorf("expected nil map to sum to 0, got %v", got)
	}
	if got := SumPercents(map[string]string{"admin": "2", "risk": "abc", "guarantee": ""}); math.Abs(got-0.02) > 1e-12 {
		t.Errorf("expected unparseable components to count as 0, got %v", got)
	}
}

func TestCalculateConcreteScenario(t *testing.T) {
	result := Calculate(defaultInput())

	if result.Status != StatusOK {
		t.Fatalf("expected status %s, got %s", StatusOK, result.Status)
	}
	if err := result.Err(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"totalIndirect", result.TotalIndirect, 0.05},
		{"totalTaxes", result.TotalTaxes, 0.1543},
		{"profitMargin", result.ProfitMargin, 0.22},
		{"bdiRate", result.BDIRate, 0.678120505},
		{"finalPrice", result.FinalPrice, 167812.0505},
		{"grossMargin", result.GrossMargin, 67812.0505},
		{"indirectCostsValue", result.IndirectCostsValue, 5000},
		{"ebitda", result.EBITDA, 62812.0505},
		{"taxesValue", result.TaxesValue, 25893.3994},
		{"netProfit", result.NetProfit, 36918.6511},
		{"roi", result.ROI, 36.9186511},
	}
	for _, c := range checks {
		if !mathutil.WithinTolerance(c.got, c.expected, 1e-3) {
			t.Errorf("%s = %v, expected %v", c.name, c.got, c.expected)
		}
	}

	if !mathutil.WithinTolerance(result.BDIPercent(), 67.8120505, 1e-6) {
		t.Errorf("BDIPercent() = %v, expected 67.81", result.BDIPercent())
	}
}

func TestCalculateInvariants(t *testing.T) {
	in := defaultInput()
	result := Calculate(in)

	if !mathutil.WithinTolerance(result.FinalPrice, in.DirectCost*(1+result.BDIRate), 1e-6) {
		t.Errorf("finalPrice %v != directCost × (1 + bdiRate)", result.FinalPrice)
	}
	if !mathutil.WithinTolerance(result.GrossMargin, result.FinalPrice-in.DirectCost, 1e-6) {
		t.Errorf("grossMargin %v != finalPrice − directCost", result.GrossMargin)
	}
	if !mathutil.WithinTolerance(result.EBITDA, result.GrossMargin-result.IndirectCostsValue, 1e-6) {
		t.Errorf("ebitda %v != grossMargin − indirectCostsValue", result.EBITDA)
	}
	if !mathutil.WithinTolerance(result.NetProfit, result.FinalPrice*0.22, 1e-6) {
		t.Errorf("netProfit %v != finalPrice × margin", result.NetProfit)
	}
	if !mathutil.WithinTolerance(result.ROI, result.NetProfit/in.DirectCost*100, 1e-9) {
		t.Errorf("roi %v != netProfit / directCost", result.ROI)
	}
}

func TestCalculateDecomposition(t *testing.T) {
	directCosts := []float64{0.01, 1, 1234.56, 100000, 7.5e6}
	margins := []float64{0, 5, 15, 22, 30, 40, 80}
	indirect := []map[string]string{
		nil,
		defaultIndirectCosts(),
		{"admin": "12.5", "risk": "7"},
	}
	taxes := []map[string]string{
		nil,
		defaultTaxes(),
		{"iss": "5"},
	}

	for _, dc := range directCosts {
		for _, margin := range margins {
			for _, ic := range indirect {
				for _, tx := range taxes {
					result := Calculate(Input{DirectCost: dc, IndirectCosts: ic, Taxes: tx, NetProfitMarginPercent: margin})
					if result.Status != StatusOK {
						continue
					}
					residual := result.FinalPrice - dc - result.IndirectCostsValue - result.TaxesValue - result.NetProfit
					if math.Abs(residual) > 1e-9*math.Max(1, result.FinalPrice) {
						t.Errorf("dc=%v margin=%v: price does not decompose, residual %v", dc, margin, residual)
					}
				}
			}
		}
	}
}

func TestCalculateZeroDirectCost(t *testing.T) {
	for _, dc := range []float64{0, -500, math.NaN(), math.Inf(1)} {
		in := defaultInput()
		in.DirectCost = dc
		result := Calculate(in)

		if result.Status != StatusNoCost {
			t.Errorf("dc=%v: expected status %s, got %s", dc, StatusNoCost, result.Status)
		}
		if result.FinalPrice != 0 || result.ROI != 0 || result.BDIRate != 0 {
			t.Errorf("dc=%v: expected zero price, bdi and roi, got %+v", dc, result)
		}
		if !result.Priceable() {
			t.Errorf("dc=%v: a project without costs is not an unpriceable input", dc)
		}
		if result.Err() != nil {
			t.Errorf("dc=%v: expected no error, got %v", dc, result.Err())
		}
	}
}

func TestCalculateUnpriceable(t *testing.T) {
	tests := []struct {
		name   string
		taxes  map[string]string
		margin float64
	}{
		{"Exactly 100 percent", map[string]string{"iss": "60"}, 40},
		{"Above 100 percent", map[string]string{"iss": "70"}, 40},
		{"Margin alone", nil, 100},
		{"Margin above 100", nil, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Calculate(Input{
				DirectCost:             100000,
				IndirectCosts:          defaultIndirectCosts(),
				Taxes:                  tt.taxes,
				NetProfitMarginPercent: tt.margin,
			})

			if result.Status != StatusUnpriceable {
				t.Fatalf("expected status %s, got %s", StatusUnpriceable, result.Status)
			}
			if result.Priceable() {
				t.Error("expected Priceable() to be false")
			}
			if !errors.Is(result.Err(), ErrUnpriceable) {
				t.Errorf("expected ErrUnpriceable, got %v", result.Err())
			}
			if result.BDIRate != 0 || result.FinalPrice != 0 {
				t.Errorf("expected zero bdi and price, got bdi=%v price=%v", result.BDIRate, result.FinalPrice)
			}
			for name, v := range map[string]float64{
				"grossMargin": result.GrossMargin,
				"ebitda":      result.EBITDA,
				"taxesValue":  result.TaxesValue,
				"netProfit":   result.NetProfit,
				"roi":         result.ROI,
			} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("%s is not finite: %v", name, v)
				}
			}
		})
	}
}

func TestCalculateUnpriceableWinsOverNoCost(t *testing.T) {
	result := Calculate(Input{DirectCost: 0, NetProfitMarginPercent: 100})
	if result.Status != StatusUnpriceable {
		t.Errorf("expected status %s, got %s", StatusUnpriceable, result.Status)
	}
}

func TestCalculateMarginMonotonicity(t *testing.T) {
	previous := Calculate(Input{DirectCost: 100000, IndirectCosts: defaultIndirectCosts(), Taxes: defaultTaxes(), NetProfitMarginPercent: 5})
	for margin := 5.5; margin <= 40; margin += 0.5 {
		current := Calculate(Input{DirectCost: 100000, IndirectCosts: defaultIndirectCosts(), Taxes: defaultTaxes(), NetProfitMarginPercent: margin})
		if current.FinalPrice <= previous.FinalPrice {
			t.Errorf("margin %v: finalPrice %v did not increase from %v", margin, current.FinalPrice, previous.FinalPrice)
		}
		if current.BDIRate <= previous.BDIRate {
			t.Errorf("margin %v: bdiRate %v did not increase from %v", margin, current.BDIRate, previous.BDIRate)
		}
		if current.NetProfit <= previous.NetProfit {
			t.Errorf("margin %v: netProfit %v did not increase from %v", margin, current.NetProfit, previous.NetProfit)
		}
		previous = current
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	first := Calculate(defaultInput())
	second := Calculate(defaultInput())
	if first != second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestCalculateDoesNotMutateInput(t *testing.T) {
	in := defaultInput()
	in.Taxes["iss"] = "abc"
	_ = Calculate(in)
	if in.Taxes["iss"] != "abc" {
		t.Errorf("expected tax text to be left untouched, got %q", in.Taxes["iss"])
	}
}

func TestImpliedMargin(t *testing.T) {
	result := Calculate(defaultInput())

	margin, err := ImpliedMargin(100000, defaultIndirectCosts(), defaultTaxes(), result.FinalPrice)
	if err != nil {
		t.Fatalf("ImpliedMargin returned error: %v", err)
	}
	if !mathutil.WithinTolerance(margin, 22, 1e-9) {
		t.Errorf("expected implied margin 22, got %v", margin)
	}

	margin, err = ImpliedMargin(100000, defaultIndirectCosts(), defaultTaxes(), 100000)
	if err != nil {
		t.Fatalf("ImpliedMargin returned error: %v", err)
	}
	if margin >= 0 {
		t.Errorf("selling at direct cost should imply a negative margin, got %v", margin)
	}

	if _, err := ImpliedMargin(100000, nil, nil, 0); !errors.Is(err, ErrUnpriceable) {
		t.Errorf("expected ErrUnpriceable for zero price, got %v", err)
	}
	if _, err := ImpliedMargin(0, nil, nil, 1000); !errors.Is(err, ErrUnpriceable) {
		t.Errorf("expected ErrUnpriceable for zero direct cost, got %v", err)
	}
}

func TestCalculateOutOfRange(t *testing.T) {
	manyHuge := make(map[string]string)
	for i := 0; i < 200; i++ {
		manyHuge[fmt.Sprintf("item%d", i)] = "1e308"
	}

	tests := []struct {
		name          string
		indirectCosts map[string]string
		directCost    float64
	}{
		{"Huge indirect cost", map[string]string{"admin": "1e308"}, 100000},
		{"Overflowing indirect total", manyHuge, 100000},
		{"Overflowing price", defaultIndirectCosts(), math.MaxFloat64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Calculate(Input{
				DirectCost:             tt.directCost,
				IndirectCosts:          tt.indirectCosts,
				Taxes:                  defaultTaxes(),
				NetProfitMarginPercent: 22,
			})

			if result.Status != StatusOutOfRange {
				t.Fatalf("expected status %s, got %s", StatusOutOfRange, result.Status)
			}
			if result.Priceable() {
				t.Error("expected Priceable() to be false")
			}
			if !errors.Is(result.Err(), ErrOutOfRange) {
				t.Errorf("expected ErrOutOfRange, got %v", result.Err())
			}
			for name, v := range map[string]float64{
				"totalIndirect":      result.TotalIndirect,
				"totalTaxes":         result.TotalTaxes,
				"bdiRate":            result.BDIRate,
				"finalPrice":         result.FinalPrice,
				"grossMargin":        result.GrossMargin,
				"indirectCostsValue": result.IndirectCostsValue,
				"ebitda":             result.EBITDA,
				"taxesValue":         result.TaxesValue,
				"netProfit":          result.NetProfit,
				"roi":                result.ROI,
			} {
				if !mathutil.IsFinite(v) {
					t.Errorf("%s is not finite: %v", name, v)
				}
			}
			if result.FinalPrice != 0 || result.EBITDA != 0 {
				t.Errorf("expected zero price and EBITDA, got price=%v ebitda=%v", result.FinalPrice, result.EBITDA)
			}
			if _, err := json.Marshal(result); err != nil {
				t.Errorf("expected the result to encode as JSON, got %v", err)
			}
		})
	}
}
