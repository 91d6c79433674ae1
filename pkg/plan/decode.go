package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/hjson/hjson-go/v4"
)

// ErrEmptyPlan is returned when the generator produced no content.
var ErrEmptyPlan = errors.New("empty construction plan")

// Decode parses a construction plan produced by the external generator.
// Generated JSON is frequently malformed (markdown fences, trailing commas,
// single quotes); when strict decoding fails the payload is repaired and
// decoded again, and hand-edited Hjson plans are accepted last. The
// returned flag reports whether the payload was not strict JSON.
func Decode(raw []byte) (*Plan, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, ErrEmptyPlan
	}

	var p Plan
	strictErr := json.Unmarshal(trimmed, &p)
	if strictErr == nil {
		return &p, false, nil
	}

	repaired, repairErr := jsonrepair.RepairJSON(string(trimmed))
	if repairErr == nil {
		p = Plan{}
		if repairErr = json.Unmarshal([]byte(repaired), &p); repairErr == nil {
			return &p, true, nil
		}
	}

	p = Plan{}
	if err := hjson.Unmarshal(trimmed, &p); err == nil {
		return &p, true, nil
	}

	return nil, false, fmt.Errorf("failed to decode construction plan: %w (repair: %v)", strictErr, repairErr)
}
