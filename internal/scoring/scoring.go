// Package scoring combines financial metrics into a bounded loan score,
// a decision tier and a per-factor explanation.
package scoring

import (
	"fmt"
	"math"

	"github.com/insightdelivered/statement-analyzer/internal/metrics"
)

// Decision is the discrete outcome of a recommendation.
type Decision string

const (
	Approved    Decision = "Approved"
	NeedsReview Decision = "Needs Review"
	Rejected    Decision = "Rejected"
)

// Factor names.
const (
	FactorIncomeStability = "Income Stability"
	FactorExpenseRatio    = "Expense to Income Ratio"
	FactorBalanceHealth   = "Balance Health"
	FactorExistingDebt    = "Existing Debt"
	FactorBusinessGrowth  = "Business Growth"
)

// Factor explains one weighted component of the composite score.
type Factor struct {
	Name        string   `json:"factor"`
	Weight      float64  `json:"weight"`
	Score       float64  `json:"score"`
	Weighted    float64  `json:"weighted"`
	Details     string   `json:"details"`
	MetricsUsed []string `json:"metrics_used"`
}

// Recommendation is the scoring outcome for one statement.
type Recommendation struct {
	Score    float64          `json:"score"`
	Decision Decision         `json:"decision"`
	Analysis []Factor         `json:"analysis"`
	Metrics  *metrics.Metrics `json:"metrics"`
}

// Score evaluates loan worthiness from m under policy p.
// It returns nil when there are no metrics to score.
func Score(m *metrics.Metrics, p Policy) *Recommendation {
	if m == nil {
		return nil
	}

	stability := float64(m.IncomeStability)
	ratio := float64(m.ExpenseToIncomeRatio)
	growth := float64(m.RevenueGrowth)

	incomeScore := clamp01(1 - stability)
	incomeDetails := "Unstable income pattern"
	if incomeScore > 0.7 {
		incomeDetails = "Stable income pattern"
	}

	expenseScore := clamp01(1 - ratio)
	expenseDetails := "No income observed"
	if !math.IsInf(ratio, 0) && !math.IsNaN(ratio) {
		expenseDetails = fmt.Sprintf("Uses %.1f%% of income", ratio*100)
	}

	balanceScore := 1.0
	if m.MinBalance <= 0 {
		balanceScore = clamp01(1 + divide(m.MinBalance, m.AvgMonthlyIncome))
	}
	balanceDetails := "Balance issues detected"
	if balanceScore > 0.7 {
		balanceDetails = "Maintains healthy balance"
	}

	debtScore := clamp01(1 - clamp01(divide(m.TotalLoanAmount, 12*m.AvgMonthlyIncome)))
	growthScore := clamp01(growth)

	w := p.Weights
	factors := []Factor{
		newFactor(FactorIncomeStability, w.IncomeStability, incomeScore, incomeDetails,
			"income_stability"),
		newFactor(FactorExpenseRatio, w.ExpenseRatio, expenseScore, expenseDetails,
			"expense_to_income_ratio"),
		newFactor(FactorBalanceHealth, w.BalanceHealth, balanceScore, balanceDetails,
			"min_balance", "avg_monthly_income"),
		newFactor(FactorExistingDebt, w.ExistingDebt, debtScore,
			fmt.Sprintf("Has %d existing loan payments", m.ExistingLoanPayments),
			"total_loan_amount", "avg_monthly_income", "existing_loan_payments"),
		newFactor(FactorBusinessGrowth, w.BusinessGrowth, growthScore,
			fmt.Sprintf("Revenue growth: %.1f%%", growth*100),
			"revenue_growth"),
	}

	var total float64
	for _, f := range factors {
		total += f.Weighted
	}
	total = clamp01(total)

	return &Recommendation{
		Score:    total,
		Decision: Decide(total, p),
		Analysis: factors,
		Metrics:  m,
	}
}

// Decide maps a composite score to a decision tier. Lower bounds are inclusive.
func Decide(score float64, p Policy) Decision {
	switch {
	case score >= p.ApproveThreshold:
		return Approved
	case score >= p.ReviewThreshold:
		return NeedsReview
	default:
		return Rejected
	}
}

func newFactor(name string, weight, score float64, details string, used ...string) Factor {
	return Factor{
		Name:        name,
		Weight:      weight,
		Score:       score,
		Weighted:    weight * score,
		Details:     details,
		MetricsUsed: used,
	}
}

// clamp01 bounds v to [0, 1]; NaN becomes 0.
func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// divide returns a/b, with 0/0 = 0 and x/0 = ±Inf by the sign of x.
func divide(a, b float64) float64 {
	if b == 0 {
		if a == 0 {
			return 0
		}
		return math.Inf(int(math.Copysign(1, a)))
	}
	return a / b
}
