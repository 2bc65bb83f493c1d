package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

var (
	ErrEmptyDocument = errors.New("document has no page text or tables")
	ErrMixedInput    = errors.New("document mixes page text and tables; supply one ingestion mode")
	ErrUnknownMode   = errors.New("unknown ingestion mode")

	// ErrSchema marks statements whose layout cannot be analysed at all.
	ErrSchema              = errors.New("unidentifiable statement schema")
	ErrNoDateColumn        = fmt.Errorf("%w: no date column", ErrSchema)
	ErrNoDescriptionColumn = fmt.Errorf("%w: no description column", ErrSchema)
)

// Extractor turns a statement document into raw transaction records.
type Extractor interface {
	// Extract returns the recognised records in source encounter order.
	Extract(doc models.Document) (*models.Extraction, error)
	// Mode returns the ingestion mode this extractor handles.
	Mode() models.Mode
}

// New returns the extractor for the given ingestion mode.
func New(mode models.Mode) (Extractor, error) {
	switch mode {
	case models.ModeLine:
		return &LineParser{}, nil
	case models.ModeTable:
		return &TableParser{Rules: DefaultColumnRules}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// ParseMode maps a user-supplied mode name to a Mode.
// An empty name or "auto" returns "" so the caller can detect it.
func ParseMode(name string) (models.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return "", nil
	case "line", "text", "lines":
		return models.ModeLine, nil
	case "table", "tables", "tabular":
		return models.ModeTable, nil
	default:
		return "", fmt.Errorf("%w: %q (use line, table or auto)", ErrUnknownMode, name)
	}
}

// DetectMode picks the ingestion mode from what the document carries.
// Mixing page text and tables in one document is rejected.
func DetectMode(doc models.Document) (models.Mode, error) {
	hasPages := false
	for _, p := range doc.Pages {
		if strings.TrimSpace(p) != "" {
			hasPages = true
			break
		}
	}
	hasTables := len(doc.Tables) > 0

	switch {
	case hasPages && hasTables:
		return "", ErrMixedInput
	case hasPages:
		return models.ModeLine, nil
	case hasTables:
		return models.ModeTable, nil
	default:
		return "", ErrEmptyDocument
	}
}
