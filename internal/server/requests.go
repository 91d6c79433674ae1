package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iwvelando/construction-pricing/pkg/format"
	"github.com/iwvelando/construction-pricing/pkg/pricing"
)

// textValue accepts a JSON string, number or null and keeps it as typed.
type textValue string

func (t *textValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*t = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = textValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("expected text or number, got %s", trimmed)
		}
		*t = textValue(n.String())
	}
	return nil
}

func textMap(values map[string]textValue) map[string]string {
	if values == nil {
		return nil
	}
	out := make(map[string]string, len(values))
	for name, value := range values {
		out[name] = string(value)
	}
	return out
}

type pricingRequest struct {
	DirectCost             float64              `json:"directCost"`
	IndirectCosts          map[string]textValue `json:"indirectCosts"`
	Taxes                  map[string]textValue `json:"taxes"`
	NetProfitMarginPercent float64              `json:"netProfitMarginPercent"`
}

func (r pricingRequest) input() pricing.Input {
	return pricing.Input{
		DirectCost:             r.DirectCost,
		IndirectCosts:          textMap(r.IndirectCosts),
		Taxes:                  textMap(r.Taxes),
		NetProfitMarginPercent: r.NetProfitMarginPercent,
	}
}

type matrixRequest struct {
	DirectCost            float64                  `json:"directCost"`
	IndirectCosts         map[string]textValue     `json:"indirectCosts"`
	Taxes                 map[string]textValue     `json:"taxes"`
	AnnualInterestRate    textValue                `json:"annualInterestRate"`
	ProjectDurationMonths float64                  `json:"projectDurationMonths"`
	ProfitScenarios       []pricing.ProfitScenario `json:"profitScenarios,omitempty"`
	FinancingLevels       []pricing.FinancingLevel `json:"financingLevels,omitempty"`
}

func (r matrixRequest) input() pricing.MatrixInput {
	return pricing.MatrixInput{
		DirectCost:                r.DirectCost,
		IndirectCosts:             textMap(r.IndirectCosts),
		Taxes:                     textMap(r.Taxes),
		ProfitScenarios:           r.ProfitScenarios,
		FinancingLevels:           r.FinancingLevels,
		AnnualInterestRatePercent: pricing.ParseInterestRate(string(r.AnnualInterestRate)),
		ProjectDurationMonths:     r.ProjectDurationMonths,
	}
}

// pricingDisplay holds the values as they are shown to the client. Results
// without a price show the explanatory message instead.
type pricingDisplay struct {
	BDI                string `json:"bdi"`
	FinalPrice         string `json:"finalPrice"`
	GrossMargin        string `json:"grossMargin"`
	IndirectCostsValue string `json:"indirectCostsValue"`
	EBITDA             string `json:"ebitda"`
	TaxesValue         string `json:"taxesValue"`
	NetProfit          string `json:"netProfit"`
	ROI                string `json:"roi"`
}

func displayFor(result pricing.Result) pricingDisplay {
	if err := result.Err(); err != nil {
		msg := err.Error()
		indirect := msg
		if result.Status == pricing.StatusUnpriceable {
			indirect = format.SafeCurrency(result.IndirectCostsValue)
		}
		return pricingDisplay{
			BDI:                msg,
			FinalPrice:         msg,
			GrossMargin:        msg,
			IndirectCostsValue: indirect,
			EBITDA:             msg,
			TaxesValue:         msg,
			NetProfit:          msg,
			ROI:                msg,
		}
	}
	return pricingDisplay{
		BDI:                format.Percent(result.BDIPercent(), 2),
		FinalPrice:         format.SafeCurrency(result.FinalPrice),
		GrossMargin:        format.SafeCurrency(result.GrossMargin),
		IndirectCostsValue: format.SafeCurrency(result.IndirectCostsValue),
		EBITDA:             format.SafeCurrency(result.EBITDA),
		TaxesValue:         format.SafeCurrency(result.TaxesValue),
		NetProfit:          format.SafeCurrency(result.NetProfit),
		ROI:                format.Percent(result.ROI, 2),
	}
}

type pricingResponse struct {
	Result  pricing.Result `json:"result"`
	Message string         `json:"message,omitempty"`
	Display pricingDisplay `json:"display"`
}

func newPricingResponse(result pricing.Result) pricingResponse {
	resp := pricingResponse{Result: result, Display: displayFor(result)}
	if err := result.Err(); err != nil {
		resp.Message = err.Error()
	}
	return resp
}

// projectRequest is the body of the project create and update endpoints.
// The plan is decoded leniently, the way generated plans are imported.
type projectRequest struct {
	Name     string          `json:"name"`
	Client   string          `json:"client"`
	Settings settingsRequest `json:"settings"`
	Plan     json.RawMessage `json:"plan,omitempty"`
}

type settingsRequest struct {
	DirectCost         float64              `json:"directCost"`
	NetProfitMargin    *float64             `json:"netProfitMargin"`
	IndirectCosts      map[string]textValue `json:"indirectCosts"`
	Taxes              map[string]textValue `json:"taxes"`
	AnnualInterestRate textValue            `json:"annualInterestRate"`
	FinancingLevels    []float64            `json:"financingLevels,omitempty"`
	ProfitScenarios    []float64            `json:"profitScenarios,omitempty"`
}

func (r projectRequest) hasPlan() bool {
	trimmed := strings.TrimSpace(string(r.Plan))
	return trimmed != "" && trimmed != "null"
}
