package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig marks structural problems in the scoring section. It is
// a startup/availability failure, never a per-request retryable one.
var ErrInvalidConfig = errors.New("invalid scoring config")

const weightTolerance = 1e-9

type ScoringWeights struct {
	Structure float64 `mapstructure:"structure"`
	Appeal    float64 `mapstructure:"appeal"`
}

// TierThreshold maps a minimum overall score (inclusive) to a market tier
// label. Thresholds are kept sorted descending; the last entry is the
// catch-all floor.
type TierThreshold struct {
	MinScore float64 `mapstructure:"min_score"`
	Label    string  `mapstructure:"label"`
}

type ScoringConfig struct {
	Weights ScoringWeights  `mapstructure:"weights"`
	Tiers   []TierThreshold `mapstructure:"tiers"`
}

func (c *ScoringConfig) Validate() error {
	if c.Weights.Structure < 0 || c.Weights.Structure > 1 ||
		c.Weights.Appeal < 0 || c.Weights.Appeal > 1 {
		return fmt.Errorf("%w: weights must be within [0,1]", ErrInvalidConfig)
	}
	if math.Abs(c.Weights.Structure+c.Weights.Appeal-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights must sum to 1.0, got %v",
			ErrInvalidConfig, c.Weights.Structure+c.Weights.Appeal)
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("%w: at least one tier threshold is required", ErrInvalidConfig)
	}
	for i, tier := range c.Tiers {
		if tier.Label == "" {
			return fmt.Errorf("%w: tier %d has an empty label", ErrInvalidConfig, i)
		}
		if tier.MinScore < 0 || tier.MinScore > 100 {
			return fmt.Errorf("%w: tier %q min score %v out of range",
				ErrInvalidConfig, tier.Label, tier.MinScore)
		}
		if i > 0 && tier.MinScore >= c.Tiers[i-1].MinScore {
			return fmt.Errorf("%w: tiers must be sorted strictly descending by min score",
				ErrInvalidConfig)
		}
	}
	return nil
}

// TierFor selects the first threshold whose min score is at or below the
// overall score. Scores below every threshold fall into the lowest tier.
func (c *ScoringConfig) TierFor(overall float64) string {
	for _, tier := range c.Tiers {
		if overall >= tier.MinScore {
			return tier.Label
		}
	}
	return c.Tiers[len(c.Tiers)-1].Label
}

// ScoringProvider supplies the validated scoring configuration to the
// orchestrator.
type ScoringProvider interface {
	Scoring() (*ScoringConfig, error)
}

type staticScoringProvider struct {
	cfg ScoringConfig
}

// NewScoringProvider wraps an already-loaded scoring section. Validation
// is repeated on every fetch so a programmatically mutated config never
// reaches aggregation.
func NewScoringProvider(cfg ScoringConfig) ScoringProvider {
	return &staticScoringProvider{cfg: cfg}
}

func (p *staticScoringProvider) Scoring() (*ScoringConfig, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	cfg := p.cfg
	return &cfg, nil
}
