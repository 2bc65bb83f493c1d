package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-analyzer/internal/analysis"
	"github.com/insightdelivered/statement-analyzer/internal/api"
	"github.com/insightdelivered/statement-analyzer/internal/categorizer"
	"github.com/insightdelivered/statement-analyzer/internal/config"
	"github.com/insightdelivered/statement-analyzer/internal/extractor"
	"github.com/insightdelivered/statement-analyzer/internal/logger"
	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/parser"
	"github.com/insightdelivered/statement-analyzer/internal/writer"
)

const version = "1.0.0"

func main() {
	modeFlag := flag.String("mode", "auto", "Ingestion mode: line, table or auto")
	configFlag := flag.String("config", "", "YAML config file (server, scoring, categories)")
	outputFlag := flag.String("output", "", "Write the JSON report to this file instead of stdout (single input only)")
	csvFlag := flag.Bool("csv", false, "Also write categorized transactions to <input>.csv")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of analysing files")
	addrFlag := flag.String("addr", "", "Listen address for -serve (overrides server.addr)")
	levelFlag := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides log_level)")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bank statement analyzer
by Insight Delivered

Extracts transactions from bank statements, categorizes them, computes
cash-flow metrics and scores loan worthiness.

Usage:
  statement-analyzer [flags] <statement> [statement ...]
  statement-analyzer -serve [-addr :8080]

Supported inputs: .pdf, .xlsx, .csv, .txt (pages separated by form feeds)

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Analyse a PDF statement and print the report
  statement-analyzer statement.pdf

  # Force table mode and keep a CSV of categorized transactions
  statement-analyzer -mode=table -csv export.xlsx

  # Custom scoring policy and categories
  statement-analyzer -config=policy.yaml -output=report.json statement.pdf
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-analyzer v%s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatalf("Config error: %v\n", err)
	}
	level := cfg.LogLevel
	if *levelFlag != "" {
		level = *levelFlag
	}
	log := logger.New(level)

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		fatalf("Config error: %v\n", err)
	}

	if *serveFlag {
		addr := cfg.Server.Addr
		if *addrFlag != "" {
			addr = *addrFlag
		}
		if err := serve(log, analyzer, addr, cfg.Server.BodyLimitMB); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *outputFlag != "" && flag.NArg() > 1 {
		fatalf("-output takes a single input file, got %d\n", flag.NArg())
	}

	mode, err := parser.ParseMode(*modeFlag)
	if err != nil {
		fatalf("%v\n", err)
	}

	ctx := logger.WithContext(context.Background(), log)
	for _, inputPath := range flag.Args() {
		if err := processFile(ctx, analyzer, inputPath, mode, *outputFlag, *csvFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func newAnalyzer(cfg config.Config) (*analysis.Analyzer, error) {
	a := &analysis.Analyzer{Categorizer: categorizer.Default(), Policy: cfg.Scoring}
	if len(cfg.Categories) > 0 {
		c, err := categorizer.New(cfg.Categories)
		if err != nil {
			return nil, err
		}
		a.Categorizer = c
	}
	return a, nil
}

func processFile(ctx context.Context, a *analysis.Analyzer, inputPath string, mode models.Mode, outputPath string, writeCSV bool) error {
	log := logger.FromContext(ctx)
	log.Info().Str("file", inputPath).Msg("processing")

	doc, err := extractor.LoadFile(ctx, inputPath)
	if err != nil {
		return err
	}

	report, err := a.Analyze(ctx, doc, mode)
	if err != nil {
		return err
	}
	if report.Status == analysis.StatusInsufficientData {
		log.Warn().Str("file", inputPath).Int("dropped", report.Summary.Dropped).
			Msg("no usable transactions found; the statement layout may not match line or table mode")
	}

	var out io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file %q: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if writeCSV {
		csvPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".csv"
		if strings.EqualFold(filepath.Ext(inputPath), ".csv") {
			csvPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".categorized.csv"
		}
		w := &writer.CSVWriter{IncludeHeader: true}
		st := &writer.Statement{RunID: report.RunID, AccountHolder: report.AccountHolder, Transactions: report.Transactions}
		if err := w.WriteToFile(csvPath, st); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
		log.Info().Str("csv", csvPath).Msg("transactions written")
	}
	return nil
}

func serve(log zerolog.Logger, a *analysis.Analyzer, addr string, bodyLimitMB int) error {
	app := api.NewApp(&api.Handler{Analyzer: a, Logger: log, Version: version}, bodyLimitMB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("version", version).Msg("listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
