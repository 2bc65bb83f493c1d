// Package metrics derives monthly and whole-period financial statistics from
// a categorized transaction stream.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// CategoryStats summarises the amounts of one category.
type CategoryStats struct {
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

// MonthlyFigure is one calendar month of the income/expense series.
type MonthlyFigure struct {
	Month    string  `json:"month"` // YYYY-MM
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// Metrics are the financial statistics of one transaction stream.
type Metrics struct {
	TotalDeposits        float64       `json:"total_deposits"`
	TotalWithdrawals     float64       `json:"total_withdrawals"`
	AvgMonthlyIncome     float64       `json:"avg_monthly_income"`
	AvgMonthlyExpenses   float64       `json:"avg_monthly_expenses"`
	IncomeStability      models.Number `json:"income_stability"`
	ExpenseToIncomeRatio models.Number `json:"expense_to_income_ratio"`
	AvgDailyBalance      float64       `json:"avg_daily_balance"`
	MinBalance           float64       `json:"min_balance"`
	ExistingLoanPayments int           `json:"existing_loan_payments"`
	TotalLoanAmount      float64       `json:"total_loan_amount"`
	RevenueGrowth        models.Number `json:"revenue_growth"`

	CategoryBreakdown map[models.Category]CategoryStats `json:"category_breakdown"`
	Monthly           []MonthlyFigure                   `json:"monthly"`
}

// CategoryTotals returns the signed amount sum per observed category.
func (m *Metrics) CategoryTotals() map[models.Category]float64 {
	if m == nil {
		return nil
	}
	out := make(map[models.Category]float64, len(m.CategoryBreakdown))
	for c, s := range m.CategoryBreakdown {
		out[c] = s.Sum
	}
	return out
}

// Compute derives Metrics from txns. It returns nil for an empty stream.
//
// Balances are the running sum of amounts in date order, sampled at the end
// of each transaction day; the stated balance column is not used.
func Compute(txns []models.Transaction) *Metrics {
	if len(txns) == 0 {
		return nil
	}

	sorted := make([]models.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	m := &Metrics{CategoryBreakdown: make(map[models.Category]CategoryStats)}

	var deposits, withdrawals, loanTotal, running decimal.Decimal
	var dayBalances []float64
	catSums := make(map[models.Category]decimal.Decimal)

	for i, t := range sorted {
		amt := decimal.NewFromFloat(t.Amount)
		if amt.IsPositive() {
			deposits = deposits.Add(amt)
		} else if amt.IsNegative() {
			withdrawals = withdrawals.Add(amt.Abs())
		}

		running = running.Add(amt)
		if i == len(sorted)-1 || !sameDay(t.Date, sorted[i+1].Date) {
			dayBalances = append(dayBalances, running.InexactFloat64())
		}

		cat := t.Category
		if cat == "" {
			cat = models.CategoryOther
		}
		if cat == models.CategoryLoanPayment {
			m.ExistingLoanPayments++
			loanTotal = loanTotal.Add(amt)
		}
		catSums[cat] = catSums[cat].Add(amt)
		s := m.CategoryBreakdown[cat]
		s.Count++
		m.CategoryBreakdown[cat] = s
	}

	m.TotalDeposits = deposits.InexactFloat64()
	m.TotalWithdrawals = withdrawals.InexactFloat64()
	m.TotalLoanAmount = loanTotal.Abs().InexactFloat64()

	for cat, sum := range catSums {
		s := m.CategoryBreakdown[cat]
		s.Sum = sum.InexactFloat64()
		s.Mean = sum.Div(decimal.NewFromInt(int64(s.Count))).InexactFloat64()
		m.CategoryBreakdown[cat] = s
	}

	m.AvgDailyBalance = mean(dayBalances)
	m.MinBalance = dayBalances[0]
	for _, b := range dayBalances[1:] {
		m.MinBalance = math.Min(m.MinBalance, b)
	}

	m.Monthly = monthlySeries(sorted)
	income := make([]float64, len(m.Monthly))
	expenses := make([]float64, len(m.Monthly))
	for i, f := range m.Monthly {
		income[i] = f.Income
		expenses[i] = f.Expenses
	}
	m.AvgMonthlyIncome = mean(income)
	m.AvgMonthlyExpenses = mean(expenses)

	m.IncomeStability = models.Number(incomeStability(income, m.AvgMonthlyIncome))
	if m.AvgMonthlyIncome == 0 {
		m.ExpenseToIncomeRatio = models.Number(math.Inf(1))
	} else {
		m.ExpenseToIncomeRatio = models.Number(m.AvgMonthlyExpenses / m.AvgMonthlyIncome)
	}
	m.RevenueGrowth = models.Number(revenueGrowth(income))

	return m
}

// monthlySeries buckets sorted transactions by calendar month. Every month
// from the first to the last transaction appears, with zeros when idle.
func monthlySeries(sorted []models.Transaction) []MonthlyFigure {
	first := monthStart(sorted[0].Date)
	last := monthStart(sorted[len(sorted)-1].Date)

	type bucket struct{ income, expenses decimal.Decimal }
	buckets := make(map[time.Time]*bucket)
	for _, t := range sorted {
		key := monthStart(t.Date)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		amt := decimal.NewFromFloat(t.Amount)
		if amt.IsPositive() {
			b.income = b.income.Add(amt)
		} else {
			b.expenses = b.expenses.Add(amt.Abs())
		}
	}

	var series []MonthlyFigure
	for month := first; !month.After(last); month = month.AddDate(0, 1, 0) {
		f := MonthlyFigure{Month: month.Format("2006-01")}
		if b, ok := buckets[month]; ok {
			f.Income = b.income.InexactFloat64()
			f.Expenses = b.expenses.InexactFloat64()
			f.Net = b.income.Sub(b.expenses).InexactFloat64()
		}
		series = append(series, f)
	}
	return series
}

// incomeStability is the coefficient of variation of monthly income using
// the sample standard deviation. Short or income-free histories score 1.
func incomeStability(income []float64, avg float64) float64 {
	if len(income) < 2 || avg == 0 {
		return 1
	}
	var ss float64
	for _, v := range income {
		ss += (v - avg) * (v - avg)
	}
	return math.Sqrt(ss/float64(len(income)-1)) / avg
}

func revenueGrowth(income []float64) float64 {
	if len(income) < 2 || income[0] == 0 {
		return 0
	}
	return (income[len(income)-1] - income[0]) / income[0]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
