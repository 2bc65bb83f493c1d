// Package categorizer assigns each transaction a category label by keyword
// containment over its description.
package categorizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

var ErrInvalidRules = errors.New("invalid category rules")

// Rule lists the keywords that identify one category.
type Rule struct {
	Name     models.Category `yaml:"name"`
	Keywords []string        `yaml:"keywords"`
}

// DefaultRules are tested in priority order; the first matching rule wins.
// Keywords match as plain substrings, so short tokens that hide inside
// common words ("emi" in premium, "vat" in private, "irs" in first, "tax"
// in taxi, "lease" in release) are spelled out as longer phrases or left out.
var DefaultRules = []Rule{
	{models.CategorySalary, []string{"salary", "salaries", "payroll", "wages", "stipend"}},
	{models.CategoryRent, []string{"rent", "landlord"}},
	{models.CategoryUtilities, []string{
		"utilit", "electric", "water", "gas bill", "power bill", "internet",
		"broadband", "telephone", "phone bill", "mobile bill", "telecom",
	}},
	{models.CategoryLoanPayment, []string{"loan", "mortgage", "repayment", "instalment", "installment"}},
	{models.CategoryEmployeeExpenses, []string{"employee", "staff", "reimburse", "allowance", "contractor"}},
	{models.CategorySupplies, []string{"supplies", "supplier", "supply", "inventory", "stationery", "materials", "wholesale"}},
	{models.CategoryInsurance, []string{"insurance", "premium", "assurance", "policy"}},
	{models.CategoryTax, []string{
		"income tax", "council tax", "corporation tax", "advance tax", "property tax", "road tax",
		"tax payment", "tax paid", "taxes", "vat payment", "vat return", "gst", "tds", "hmrc",
	}},
}

// Categorizer matches descriptions against an ordered rule table.
type Categorizer struct {
	rules []Rule
}

// New builds a Categorizer. An empty rule set falls back to DefaultRules.
func New(rules []Rule) (*Categorizer, error) {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if err := Validate(rules); err != nil {
		return nil, err
	}
	return &Categorizer{rules: rules}, nil
}

// Default returns a Categorizer over DefaultRules.
func Default() *Categorizer {
	return &Categorizer{rules: DefaultRules}
}

// Validate checks that every rule names a category from the closed set.
func Validate(rules []Rule) error {
	for i, r := range rules {
		if !r.Name.Valid() || r.Name == models.CategoryOther {
			return fmt.Errorf("%w: rule %d has unknown category %q", ErrInvalidRules, i+1, r.Name)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("%w: rule %d (%s) has no keywords", ErrInvalidRules, i+1, r.Name)
		}
	}
	return nil
}

// Categorize returns the category for a description, or CategoryOther.
// A keyword matches when it occurs anywhere in the lower-cased description,
// so run-together narrations such as "NEFTSALARYACME" still match.
func (c *Categorizer) Categorize(description string) models.Category {
	text := strings.ToLower(description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(text, kw) {
				return rule.Name
			}
		}
	}
	return models.CategoryOther
}

// Apply returns a copy of txns with Category set on each transaction.
func (c *Categorizer) Apply(txns []models.Transaction) []models.Transaction {
	if txns == nil {
		return nil
	}
	out := make([]models.Transaction, len(txns))
	for i, t := range txns {
		t.Category = c.Categorize(t.Description)
		out[i] = t
	}
	return out
}

type rulesFile struct {
	Categories []Rule `yaml:"categories"`
}

// LoadRules reads a YAML rule table of the form:
//
//	categories:
//	  - name: salary
//	    keywords: [salary, payroll]
func LoadRules(r io.Reader) ([]Rule, error) {
	var f rulesFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode category rules: %w", err)
	}
	if err := Validate(f.Categories); err != nil {
		return nil, err
	}
	return f.Categories, nil
}

// LoadRulesFile reads a YAML rule table from path.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open category rules %q: %w", path, err)
	}
	defer f.Close()
	return LoadRules(f)
}
