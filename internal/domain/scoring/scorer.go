package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Outcome is the result of scoring a single item.
type Outcome struct {
	// Score is the composite score on a 0-100 scale, rounded to 3 decimals.
	Score float64
	// Breakdown holds the component subscores that produced the composite.
	Breakdown map[string]float64
	// InputChecksum hashes the extracted inputs for audit.
	InputChecksum string
}

// BreakdownJSON renders the breakdown map for storage.
func (o Outcome) BreakdownJSON() json.RawMessage {
	b, err := json.Marshal(o.Breakdown)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

// Scorer computes a score for an item document under a pinned configuration.
// Implementations must be pure: the same document and config always yield the
// same outcome, since results are deduplicated by idempotency key.
type Scorer interface {
	Score(ctx context.Context, document json.RawMessage, cfg Config) (Outcome, error)
}

// CompositeScorer blends an academic subscore and an experience subscore into
// a weighted composite. Inputs are pulled out of the item document with the
// JMESPath expressions named by the config.
type CompositeScorer struct{}

// NewCompositeScorer creates a CompositeScorer.
func NewCompositeScorer() *CompositeScorer {
	return &CompositeScorer{}
}

// Score implements Scorer.
//
// Extraction failures are permanent: a document missing a scoring input will
// be missing it on every retry. Context cancellation is transient so an
// interrupted worker leaves the job redeliverable.
func (s *CompositeScorer) Score(ctx context.Context, document json.RawMessage, cfg Config) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, Transient(err)
	}

	inputs, err := extractInputs(document, cfg)
	if err != nil {
		return Outcome{}, err
	}

	gpaScale := cfg.Param(ParamGPAScale, 4.0)
	testScale := cfg.Param(ParamTestScale, 100)
	internshipCap := cfg.Param(ParamInternshipCap, 5)
	yearsCap := cfg.Param(ParamYearsCap, 10)

	academic := clamp(
		ratio(inputs[InputGPA], gpaScale)*60+
			ratio(inputs[InputTestScore], testScale)*40,
		0, 100)
	experience := clamp(
		ratio(math.Min(inputs[InputInternships], internshipCap), internshipCap)*50+
			ratio(math.Min(inputs[InputYears], yearsCap), yearsCap)*50,
		0, 100)

	composite := clamp(
		cfg.Param(ParamWeightAcademic, 0.6)*academic+
			cfg.Param(ParamWeightExperience, 0.4)*experience,
		0, 100)

	return Outcome{
		Score: round3(composite),
		Breakdown: map[string]float64{
			"academic":   round3(academic),
			"experience": round3(experience),
		},
		InputChecksum: InputChecksum(inputs, cfg.Version),
	}, nil
}

// extractInputs evaluates every configured extract expression against the
// document and coerces the results to float64.
func extractInputs(document json.RawMessage, cfg Config) (map[string]float64, error) {
	var doc any
	if err := json.Unmarshal(document, &doc); err != nil {
		return nil, Permanentf("item document is not valid JSON: %v", err)
	}

	inputs := make(map[string]float64, len(cfg.Extract))
	for name, expr := range cfg.Extract {
		raw, err := jmespath.Search(expr, doc)
		if err != nil {
			return nil, Permanentf("extract %q (%s): %v", name, expr, err)
		}
		if raw == nil {
			return nil, Permanentf("extract %q (%s): field missing from document", name, expr)
		}
		v, err := toFloat(raw)
		if err != nil {
			return nil, Permanentf("extract %q (%s): %v", name, expr, err)
		}
		if v < 0 {
			return nil, Permanentf("extract %q (%s): value must be non-negative, got %g", name, expr, v)
		}
		inputs[name] = v
	}
	return inputs, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func ratio(v, scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return v / scale
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
