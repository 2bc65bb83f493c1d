package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// Load converts raw file bytes into a document, choosing the reader by
// file extension.
func Load(ctx context.Context, filename string, data []byte) (models.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		pages, err := PDFPages(ctx, data)
		if err != nil {
			return models.Document{}, err
		}
		return models.Document{Pages: pages}, nil
	case ".xlsx", ".xlsm":
		tables, err := XLSXTables(bytes.NewReader(data))
		if err != nil {
			return models.Document{}, err
		}
		return models.Document{Tables: tables}, nil
	case ".csv":
		tables, err := CSVTables(bytes.NewReader(data))
		if err != nil {
			return models.Document{}, err
		}
		return models.Document{Tables: tables}, nil
	case ".txt":
		return models.Document{Pages: SplitPages(string(data))}, nil
	default:
		return models.Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadFile reads path from disk and calls Load.
func LoadFile(ctx context.Context, path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, err
	}
	return Load(ctx, filepath.Base(path), data)
}

// SplitPages splits plain text on form feeds, dropping blank pages.
func SplitPages(text string) []string {
	var pages []string
	for _, p := range strings.Split(text, "\f") {
		if strings.TrimSpace(p) != "" {
			pages = append(pages, p)
		}
	}
	return pages
}
