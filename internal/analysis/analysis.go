// Package analysis runs the statement pipeline end to end:
// extraction, normalization, categorization, metrics and scoring.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/statement-analyzer/internal/categorizer"
	"github.com/insightdelivered/statement-analyzer/internal/logger"
	"github.com/insightdelivered/statement-analyzer/internal/metrics"
	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/normalizer"
	"github.com/insightdelivered/statement-analyzer/internal/parser"
	"github.com/insightdelivered/statement-analyzer/internal/scoring"
)

// Status is the outcome of a run that did not fail.
type Status string

const (
	StatusOK Status = "ok"
	// StatusInsufficientData means no valid transaction survived
	// normalization. Metrics and Recommendation are nil.
	StatusInsufficientData Status = "insufficient_data"
)

// Summary describes the transaction stream a report was built from.
type Summary struct {
	TransactionCount int        `json:"transaction_count"`
	Dropped          int        `json:"dropped"`
	FirstDate        *time.Time `json:"first_date,omitempty"`
	LastDate         *time.Time `json:"last_date,omitempty"`
}

// Report is the result of one analysis run.
type Report struct {
	RunID          string                      `json:"run_id"`
	Status         Status                      `json:"status"`
	Mode           models.Mode                 `json:"mode"`
	AccountHolder  string                      `json:"account_holder"`
	Convention     normalizer.Convention       `json:"convention"`
	Summary        Summary                     `json:"summary"`
	Transactions   []models.Transaction        `json:"transactions"`
	Metrics        *metrics.Metrics            `json:"metrics"`
	Recommendation *scoring.Recommendation     `json:"recommendation"`
	CategoryTotals map[models.Category]float64 `json:"category_totals,omitempty"`
	DebugLines     []models.DebugLine          `json:"debug_lines,omitempty"`
}

// Analyzer holds the configuration shared by every run. It carries no
// per-run state and is safe for concurrent use.
type Analyzer struct {
	Categorizer *categorizer.Categorizer
	Policy      scoring.Policy
}

// New returns an Analyzer with the built-in rules and policy.
func New() *Analyzer {
	return &Analyzer{
		Categorizer: categorizer.Default(),
		Policy:      scoring.DefaultPolicy(),
	}
}

// Analyze runs the pipeline over doc. An empty mode is detected from the
// document. Schema and input errors are returned as errors; an empty
// transaction stream is reported with StatusInsufficientData.
func (a *Analyzer) Analyze(ctx context.Context, doc models.Document, mode models.Mode) (*Report, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()

	detected, err := parser.DetectMode(doc)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = detected
	}

	ext, err := parser.New(mode)
	if err != nil {
		return nil, err
	}
	extraction, err := ext.Extract(doc)
	if err != nil {
		log.Debug().Err(err).Str("mode", string(mode)).Msg("extraction failed")
		return nil, err
	}
	log.Debug().
		Str("mode", string(mode)).
		Int("records", len(extraction.Records)).
		Str("account_holder", extraction.AccountHolder).
		Msg("records extracted")

	norm := normalizer.Normalize(extraction)
	log.Debug().
		Str("convention", string(norm.Convention)).
		Int("transactions", len(norm.Transactions)).
		Int("dropped", norm.Dropped).
		Msg("records normalized")

	txns := a.categorizer().Apply(norm.Transactions)

	report := &Report{
		RunID:         runID,
		Mode:          mode,
		AccountHolder: extraction.AccountHolder,
		Convention:    norm.Convention,
		Summary:       summarize(txns, norm.Dropped),
		Transactions:  txns,
		DebugLines:    extraction.DebugLines,
	}

	m := metrics.Compute(txns)
	if m == nil {
		report.Status = StatusInsufficientData
		log.Info().Str("status", string(report.Status)).Str("mode", string(mode)).Msg("analysis finished")
		return report, nil
	}
	log.Debug().
		Float64("avg_monthly_income", m.AvgMonthlyIncome).
		Float64("min_balance", m.MinBalance).
		Int("months", len(m.Monthly)).
		Msg("metrics computed")

	report.Status = StatusOK
	report.Metrics = m
	report.CategoryTotals = m.CategoryTotals()
	report.Recommendation = scoring.Score(m, a.Policy)

	log.Info().
		Str("status", string(report.Status)).
		Str("mode", string(mode)).
		Int("transactions", len(txns)).
		Float64("score", report.Recommendation.Score).
		Str("decision", string(report.Recommendation.Decision)).
		Msg("analysis finished")

	return report, nil
}

func (a *Analyzer) categorizer() *categorizer.Categorizer {
	if a.Categorizer == nil {
		return categorizer.Default()
	}
	return a.Categorizer
}

// summarize expects txns in date order.
func summarize(txns []models.Transaction, dropped int) Summary {
	s := Summary{TransactionCount: len(txns), Dropped: dropped}
	if len(txns) > 0 {
		first, last := txns[0].Date, txns[len(txns)-1].Date
		s.FirstDate, s.LastDate = &first, &last
	}
	return s
}
