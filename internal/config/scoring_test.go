package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScoring() ScoringConfig {
	return ScoringConfig{
		Weights: ScoringWeights{Structure: 0.4, Appeal: 0.6},
		Tiers: []TierThreshold{
			{MinScore: 90, Label: "top_tier"},
			{MinScore: 60, Label: "competitive"},
			{MinScore: 0, Label: "developing"},
		},
	}
}

func TestScoringConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScoringConfig)
		wantErr bool
	}{
		{
			name:   "valid config",
			mutate: func(c *ScoringConfig) {},
		},
		{
			name: "weights not summing to one",
			mutate: func(c *ScoringConfig) {
				c.Weights = ScoringWeights{Structure: 0.5, Appeal: 0.6}
			},
			wantErr: true,
		},
		{
			name: "negative weight",
			mutate: func(c *ScoringConfig) {
				c.Weights = ScoringWeights{Structure: -0.2, Appeal: 1.2}
			},
			wantErr: true,
		},
		{
			name: "weights summing within tolerance",
			mutate: func(c *ScoringConfig) {
				c.Weights = ScoringWeights{Structure: 0.1 + 0.2, Appeal: 0.7}
			},
		},
		{
			name: "no tiers",
			mutate: func(c *ScoringConfig) {
				c.Tiers = nil
			},
			wantErr: true,
		},
		{
			name: "tiers not descending",
			mutate: func(c *ScoringConfig) {
				c.Tiers = []TierThreshold{
					{MinScore: 60, Label: "competitive"},
					{MinScore: 90, Label: "top_tier"},
				}
			},
			wantErr: true,
		},
		{
			name: "overlapping tiers",
			mutate: func(c *ScoringConfig) {
				c.Tiers = []TierThreshold{
					{MinScore: 60, Label: "a"},
					{MinScore: 60, Label: "b"},
				}
			},
			wantErr: true,
		},
		{
			name: "empty tier label",
			mutate: func(c *ScoringConfig) {
				c.Tiers[1].Label = ""
			},
			wantErr: true,
		},
		{
			name: "min score above hundred",
			mutate: func(c *ScoringConfig) {
				c.Tiers[0].MinScore = 120
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validScoring()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTierForBoundaries(t *testing.T) {
	cfg := validScoring()

	assert.Equal(t, "competitive", cfg.TierFor(63.0))
	assert.Equal(t, "developing", cfg.TierFor(59.9))
	// Boundary is inclusive of the tier's min score.
	assert.Equal(t, "top_tier", cfg.TierFor(90.0))
	assert.Equal(t, "competitive", cfg.TierFor(60.0))
	assert.Equal(t, "developing", cfg.TierFor(0))
	assert.Equal(t, "top_tier", cfg.TierFor(100))
}

func TestTierForFloorFallback(t *testing.T) {
	cfg := ScoringConfig{
		Weights: ScoringWeights{Structure: 0.5, Appeal: 0.5},
		Tiers: []TierThreshold{
			{MinScore: 90, Label: "top_tier"},
			{MinScore: 50, Label: "competitive"},
		},
	}
	require.NoError(t, cfg.Validate())

	// Scores below every threshold land in the lowest tier.
	assert.Equal(t, "competitive", cfg.TierFor(10))
}

func TestScoringProviderRevalidates(t *testing.T) {
	provider := NewScoringProvider(validScoring())
	cfg, err := provider.Scoring()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cfg.Weights.Structure+cfg.Weights.Appeal, weightTolerance)

	bad := validScoring()
	bad.Weights.Appeal = 0.9
	_, err = NewScoringProvider(bad).Scoring()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
