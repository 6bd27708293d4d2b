package generator

import (
	"fmt"
	"math"

	"github.com/limaJavier/surgery-scheduling/pkg/catalog"
	"github.com/limaJavier/surgery-scheduling/pkg/model"
	"gonum.org/v1/gonum/stat/distuv"
)

// TruncatedNormal is a normal distribution restricted to [Low, High]
type TruncatedNormal struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// Quantile maps a uniform draw u in [0, 1) through the inverse CDF, clamped to the bounds
func (distribution TruncatedNormal) Quantile(u float64) float64 {
	standard := distuv.UnitNormal
	lower := standard.CDF((distribution.Low - distribution.Mean) / distribution.StdDev)
	upper := standard.CDF((distribution.High - distribution.Mean) / distribution.StdDev)

	// Both tails vanish numerically when the bounds are far from the mean
	if upper-lower <= 0 {
		return math.Min(math.Max(distribution.Mean, distribution.Low), distribution.High)
	}

	value := distribution.Mean + distribution.StdDev*standard.Quantile(lower+u*(upper-lower))
	return math.Min(math.Max(value, distribution.Low), distribution.High)
}

type SamplingMode uint8

const (
	SamplingUnspecified SamplingMode = iota
	ProcedureFirst                   // Draw the procedure from the direct table
	UnitFirst                        // Draw the clinical unit, then the procedure within it
)

func (mode SamplingMode) String() string {
	switch mode {
	case ProcedureFirst:
		return "procedure"
	case UnitFirst:
		return "unit"
	default:
		return "unspecified"
	}
}

func ParseSamplingMode(value string) (SamplingMode, bool) {
	switch value {
	case "procedure":
		return ProcedureFirst, true
	case "unit":
		return UnitFirst, true
	}
	return SamplingUnspecified, false
}

type DistributionParams struct {
	Priority              TruncatedNormal         `json:"priority"`
	CovidProbability      float64                 `json:"covidProbability"`
	SpecialtyProbability  float64                 `json:"specialtyProbability"` // Probability of the second specialty
	AnesthesiaProbability float64                 `json:"anesthesiaProbability"`
	Sampling              SamplingMode            `json:"sampling"`
	DelayEstimation       catalog.DelayEstimation `json:"delayEstimation"`
}

// DefaultParams mirrors the parameters of the historical experiments
func DefaultParams() DistributionParams {
	return DistributionParams{
		Priority:              TruncatedNormal{Low: 1, High: 120, Mean: 60, StdDev: 10},
		CovidProbability:      0.2,
		SpecialtyProbability:  0.17,
		AnesthesiaProbability: 0.2,
		Sampling:              ProcedureFirst,
		DelayEstimation:       catalog.DelayByProcedure,
	}
}

func (params DistributionParams) Validate() error {
	probabilities := []struct {
		name  string
		value float64
	}{
		{"covidProbability", params.CovidProbability},
		{"specialtyProbability", params.SpecialtyProbability},
		{"anesthesiaProbability", params.AnesthesiaProbability},
	}
	for _, probability := range probabilities {
		if math.IsNaN(probability.value) || probability.value < 0 || probability.value > 1 {
			return &model.ConfigurationError{Parameter: probability.name, Reason: fmt.Sprintf("%v is outside [0, 1]", probability.value)}
		}
	}

	switch {
	case !(params.Priority.StdDev > 0):
		return &model.ConfigurationError{Parameter: "priority.stdDev", Reason: "standard deviation must be positive"}
	case !(params.Priority.High > params.Priority.Low):
		return &model.ConfigurationError{Parameter: "priority", Reason: fmt.Sprintf("upper bound %v must exceed lower bound %v", params.Priority.High, params.Priority.Low)}
	case params.Sampling != ProcedureFirst && params.Sampling != UnitFirst:
		return &model.ConfigurationError{Parameter: "sampling", Reason: "sampling mode must be declared"}
	case params.DelayEstimation != catalog.DelayByProcedure && params.DelayEstimation != catalog.DelayByUnit:
		return &model.ConfigurationError{Parameter: "delayEstimation", Reason: "delay estimation must be declared"}
	case params.DelayEstimation == catalog.DelayByUnit && params.Sampling != UnitFirst:
		return &model.ConfigurationError{Parameter: "delayEstimation", Reason: "unit delay estimation requires unit-first sampling"}
	}
	return nil
}
