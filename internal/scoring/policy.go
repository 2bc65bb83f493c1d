package scoring

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

var ErrInvalidPolicy = errors.New("invalid scoring policy")

// Weights assigns each factor its share of the composite score.
type Weights struct {
	IncomeStability float64 `yaml:"income_stability" json:"income_stability"`
	ExpenseRatio    float64 `yaml:"expense_ratio" json:"expense_ratio"`
	BalanceHealth   float64 `yaml:"balance_health" json:"balance_health"`
	ExistingDebt    float64 `yaml:"existing_debt" json:"existing_debt"`
	BusinessGrowth  float64 `yaml:"business_growth" json:"business_growth"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.IncomeStability + w.ExpenseRatio + w.BalanceHealth + w.ExistingDebt + w.BusinessGrowth
}

// Policy is the scoring configuration handed to Score.
type Policy struct {
	Weights          Weights `yaml:"weights" json:"weights"`
	ApproveThreshold float64 `yaml:"approve_threshold" json:"approve_threshold"`
	ReviewThreshold  float64 `yaml:"review_threshold" json:"review_threshold"`
}

// DefaultPolicy returns the standard weighting and decision thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			IncomeStability: 0.25,
			ExpenseRatio:    0.25,
			BalanceHealth:   0.20,
			ExistingDebt:    0.15,
			BusinessGrowth:  0.15,
		},
		ApproveThreshold: 0.70,
		ReviewThreshold:  0.50,
	}
}

// Validate checks weights are non-negative and sum to 1, and that
// thresholds satisfy 0 <= review <= approve <= 1.
func (p Policy) Validate() error {
	w := p.Weights
	for name, v := range map[string]float64{
		"income_stability": w.IncomeStability,
		"expense_ratio":    w.ExpenseRatio,
		"balance_health":   w.BalanceHealth,
		"existing_debt":    w.ExistingDebt,
		"business_growth":  w.BusinessGrowth,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: weight %s is %v", ErrInvalidPolicy, name, v)
		}
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidPolicy, w.Sum())
	}
	if p.ReviewThreshold < 0 || p.ReviewThreshold > p.ApproveThreshold || p.ApproveThreshold > 1 {
		return fmt.Errorf("%w: thresholds review=%v approve=%v", ErrInvalidPolicy, p.ReviewThreshold, p.ApproveThreshold)
	}
	return nil
}

// LoadPolicy decodes a YAML policy. Fields left out keep their default values.
func LoadPolicy(r io.Reader) (Policy, error) {
	p := DefaultPolicy()
	if err := yaml.NewDecoder(r).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("decode scoring policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
