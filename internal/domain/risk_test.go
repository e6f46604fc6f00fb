package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLabel(t *testing.T) {
	tests := []struct {
		score float64
		label string
		color string
	}{
		{0, "Low", "#22c55e"},
		{0.49, "Low", "#22c55e"},
		{0.5, "Low-Med", "#84cc16"},
		{1.0, "Med-High", "#eab308"},
		{1.99, "Med-High", "#eab308"},
		{2.0, "High", "#f97316"},
		{3.0, "Ext High", "#ef4444"},
		{5.0, "Ext High", "#ef4444"},
		{7.5, "Ext High", "#ef4444"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.label, RiskLabel(tt.score), "label for %v", tt.score)
		assert.Equal(t, tt.color, RiskColor(tt.score), "color for %v", tt.score)
	}
}

func TestWeightedMean(t *testing.T) {
	t.Run("all indicators present", func(t *testing.T) {
		scores := map[string]*float64{
			"baseline_stress":         ptr(4),
			"interannual_variability": ptr(2),
			"seasonal_variability":    ptr(2),
			"groundwater_stress":      ptr(4),
			"drought_hazard":          ptr(0),
			"flood_hazard":            ptr(0),
		}
		got := WeightedMean(scores, DefaultRiskWeights)
		require.NotNil(t, got)
		assert.InDelta(t, 2.5, *got, 1e-9)
	})

	t.Run("renormalizes over present indicators", func(t *testing.T) {
		scores := map[string]*float64{
			"baseline_stress":    ptr(4),
			"groundwater_stress": ptr(1),
			"flood_hazard":       nil,
		}
		got := WeightedMean(scores, DefaultRiskWeights)
		require.NotNil(t, got)
		assert.InDelta(t, 3.0, *got, 1e-9)
	})

	t.Run("nothing qualifies", func(t *testing.T) {
		assert.Nil(t, WeightedMean(map[string]*float64{"unknown": ptr(3)}, DefaultRiskWeights))
	})
}
