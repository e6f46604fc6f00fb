package domain

import (
	"math"
	"sort"
)

// RiskBin is one ordered class of the 0-5 risk scale. Max is exclusive.
type RiskBin struct {
	Max   float64
	Label string
	Color string
}

// RiskBins are the five classes used by the map legend and risk strip.
var RiskBins = []RiskBin{
	{Max: 0.5, Label: "Low", Color: "#22c55e"},
	{Max: 1.0, Label: "Low-Med", Color: "#84cc16"},
	{Max: 2.0, Label: "Med-High", Color: "#eab308"},
	{Max: 3.0, Label: "High", Color: "#f97316"},
	{Max: 5.0, Label: "Ext High", Color: "#ef4444"},
}

// BinFor returns the class of score. Upper bounds are exclusive, so 0.5 is
// Low-Med; anything at or above 3.0 (including scores past 5) is Ext High.
func BinFor(score float64) RiskBin {
	last := len(RiskBins) - 1
	for _, b := range RiskBins[:last] {
		if score < b.Max {
			return b
		}
	}
	return RiskBins[last]
}

// RiskLabel returns the class label of score.
func RiskLabel(score float64) string { return BinFor(score).Label }

// RiskColor returns the hex color of score's class.
func RiskColor(score float64) string { return BinFor(score).Color }

// DefaultRiskWeights are the WRI Aqueduct physical-quantity weights of the
// combined risk index.
var DefaultRiskWeights = map[string]float64{
	"baseline_stress":         0.25,
	"interannual_variability": 0.25,
	"seasonal_variability":    0.25,
	"groundwater_stress":      0.125,
	"drought_hazard":          0.0625,
	"flood_hazard":            0.0625,
}

// WeightedMean combines indicator scores with weights, renormalizing over
// the indicators that have both a weight and a finite score. It returns nil
// when no indicator qualifies.
func WeightedMean(scores map[string]*float64, weights map[string]float64) *float64 {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total, weightSum float64
	for _, k := range keys {
		s, ok := scores[k]
		w := weights[k]
		if !ok || s == nil || math.IsNaN(*s) || math.IsInf(*s, 0) || w <= 0 {
			continue
		}
		total += *s * w
		weightSum += w
	}
	if weightSum == 0 {
		return nil
	}
	mean := total / weightSum
	return &mean
}
