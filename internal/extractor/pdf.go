package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/statement-analyzer/internal/logger"
)

var (
	// ErrUnreadable means the document produced no usable text or table.
	ErrUnreadable = errors.New("unreadable document")
	// ErrUnsupportedFormat means the file type is not handled.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// PDFPages returns the text of each page of a PDF held in memory.
// The pdf library is tried first; pdftotext (poppler-utils) is the fallback.
// Text that fails the readability check is never returned.
func PDFPages(ctx context.Context, data []byte) ([]string, error) {
	log := logger.FromContext(ctx)

	pages, libErr := pagesWithLibrary(data)
	if libErr == nil && IsReadable(pages) {
		log.Debug().Int("pages", len(pages)).Msg("pdf text extracted with library")
		return pages, nil
	}
	log.Debug().AnErr("library_error", libErr).Msg("pdf library text unusable, trying pdftotext")

	pages, cliErr := pagesWithPdftotext(ctx, data)
	if cliErr == nil && IsReadable(pages) {
		log.Debug().Int("pages", len(pages)).Msg("pdf text extracted with pdftotext")
		return pages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("%w: pdf: %v", ErrUnreadable, libErr)
	}
	return nil, fmt.Errorf("%w: no readable text in pdf, it may be scanned or use custom font encodings", ErrUnreadable)
}

func pagesWithLibrary(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	n := r.NumPage()
	if n == 0 {
		return nil, errors.New("pdf has no pages")
	}

	for _, method := range []func(*pdf.Reader, int) []string{pagesByRow, pagesByContent, pagesByPlainText} {
		pages = method(r, n)
		if IsReadable(pages) {
			return pages, nil
		}
	}
	return pages, nil
}

// pagesByRow keeps the library's own row grouping.
func pagesByRow(r *pdf.Reader, n int) []string {
	var pages []string
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

type glyph struct {
	x float64
	s string
}

// pagesByContent rebuilds rows from glyph coordinates. Glyphs sharing a
// rounded Y form one row, ordered left to right; wide gaps become column breaks.
func pagesByContent(r *pdf.Reader, n int) []string {
	const columnGap = 15.0

	var pages []string
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rows := make(map[int][]glyph)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rows[y] = append(rows[y], glyph{x: t.X, s: t.S})
		}

		ys := make([]int, 0, len(rows))
		for y := range rows {
			ys = append(ys, y)
		}
		// PDF Y grows upwards.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		lines := make([]string, 0, len(ys))
		for _, y := range ys {
			glyphs := rows[y]
			sort.Slice(glyphs, func(a, b int) bool { return glyphs[a].x < glyphs[b].x })

			var sb strings.Builder
			for j, g := range glyphs {
				if j > 0 && g.x-glyphs[j-1].x > columnGap {
					sb.WriteString("  ")
				}
				sb.WriteString(g.s)
			}
			if line := strings.TrimSpace(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func pagesByPlainText(r *pdf.Reader, n int) []string {
	var pages []string
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

// pagesWithPdftotext runs pdftotext over a temporary copy of data.
// pdftotext separates pages with form feeds.
func pagesWithPdftotext(ctx context.Context, data []byte) ([]string, error) {
	bin, err := exec.LookPath("pdftotext")
	if err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	out, err := exec.CommandContext(ctx, bin, "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := SplitPages(string(out))
	if len(pages) == 0 {
		return nil, errors.New("pdftotext produced no output")
	}
	return pages, nil
}

// statementWords appear in virtually every bank statement.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "withdrawal",
	"deposit", "narration", "cheque", "opening", "closing", "transfer",
	"page", "period",
}

// IsReadable reports whether extracted pages look like real statement text:
// more than 50 characters, over 60% plain ASCII, and at least one statement word.
func IsReadable(pages []string) bool {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	if n <= 50 || asciiRatio(pages) <= 0.6 {
		return false
	}
	text := strings.ToLower(strings.Join(pages, " "))
	for _, w := range statementWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// asciiRatio is strict on purpose: unicode.IsLetter accepts the accented
// garbage produced by identity-encoded fonts.
func asciiRatio(pages []string) float64 {
	total, readable := 0, 0
	for _, p := range pages {
		for _, r := range p {
			total++
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', unicode.IsSpace(r):
				readable++
			case strings.ContainsRune(".,-/:;()'\"£$€₹%&@#!?+=*", r):
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}
