package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-analyzer/internal/analysis"
	"github.com/insightdelivered/statement-analyzer/internal/extractor"
	"github.com/insightdelivered/statement-analyzer/internal/logger"
	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/parser"
	"github.com/insightdelivered/statement-analyzer/internal/writer"
)

// AnalyzeRequest is the JSON body accepted by /api/analyze.
type AnalyzeRequest struct {
	Mode   string         `json:"mode,omitempty"`
	Pages  []string       `json:"pages,omitempty"`
	Tables []models.Table `json:"tables,omitempty"`
}

// AnalyzeResponse is the JSON response from /api/analyze.
type AnalyzeResponse struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Report  *analysis.Report `json:"report,omitempty"`
	CSV     string           `json:"csv,omitempty"`
	Version string           `json:"version,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Analyzer  *analysis.Analyzer
	Logger    zerolog.Logger
	Version   string
	StaticDir string
}

// NewApp builds a fiber app with the handler's routes registered.
func NewApp(h *Handler, bodyLimitMB int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "statement-analyzer",
		BodyLimit:             bodyLimitMB << 20,
		DisableStartupMessage: true,
		ErrorHandler:          h.handleError,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(h.requestLogger)
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/analyze", h.HandleAnalyze)

	if h.StaticDir != "" {
		app.Static("/", h.StaticDir)
		// SPA fallback for client-side routes.
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return fiber.ErrNotFound
			}
			return c.SendFile(h.StaticDir + "/index.html")
		})
	}
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": h.Version,
	})
}

// HandleAnalyze accepts a multipart "file" upload or a JSON document and
// returns the analysis report. Query options: mode, csv=true, debug=true.
func (h *Handler) HandleAnalyze(c *fiber.Ctx) error {
	ctx := logger.WithContext(c.UserContext(), h.Logger)

	var (
		doc      models.Document
		modeName = c.Query("mode")
	)
	switch ct := strings.ToLower(c.Get(fiber.HeaderContentType)); {
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		fh, err := c.FormFile("file")
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, errors.New("no file uploaded, use form field 'file'"))
		}
		f, err := fh.Open()
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, err)
		}
		if doc, err = extractor.Load(ctx, fh.Filename, data); err != nil {
			return h.fail(c, statusFor(err), err)
		}
		if modeName == "" {
			modeName = c.FormValue("mode")
		}
	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON):
		var req AnalyzeRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return h.fail(c, fiber.StatusBadRequest, err)
		}
		doc = models.Document{Pages: req.Pages, Tables: req.Tables}
		if modeName == "" {
			modeName = req.Mode
		}
	default:
		return h.fail(c, fiber.StatusUnsupportedMediaType, errors.New("send multipart/form-data or application/json"))
	}

	mode, err := parser.ParseMode(modeName)
	if err != nil {
		return h.fail(c, statusFor(err), err)
	}

	report, err := h.analyzer().Analyze(ctx, doc, mode)
	if err != nil {
		return h.fail(c, statusFor(err), err)
	}
	if !c.QueryBool("debug") {
		report.DebugLines = nil
	}

	resp := AnalyzeResponse{Success: true, Report: report, Version: h.Version}
	if c.QueryBool("csv") {
		var buf bytes.Buffer
		w := &writer.CSVWriter{IncludeHeader: true}
		st := &writer.Statement{RunID: report.RunID, AccountHolder: report.AccountHolder, Transactions: report.Transactions}
		if err := w.Write(&buf, st); err != nil {
			return h.fail(c, fiber.StatusInternalServerError, err)
		}
		resp.CSV = buf.String()
	}
	return c.JSON(resp)
}

func (h *Handler) analyzer() *analysis.Analyzer {
	if h.Analyzer == nil {
		return analysis.New()
	}
	return h.Analyzer
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, parser.ErrSchema), errors.Is(err, extractor.ErrUnreadable):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, parser.ErrEmptyDocument),
		errors.Is(err, parser.ErrMixedInput),
		errors.Is(err, parser.ErrUnknownMode),
		errors.Is(err, extractor.ErrUnsupportedFormat):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, status int, err error) error {
	h.Logger.Debug().Err(err).Int("status", status).Str("path", c.Path()).Msg("request failed")
	return c.Status(status).JSON(AnalyzeResponse{Success: false, Error: err.Error(), Version: h.Version})
}

// handleError renders errors that escape a handler, including recovered panics.
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	if status >= fiber.StatusInternalServerError {
		h.Logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}
	return c.Status(status).JSON(AnalyzeResponse{Success: false, Error: err.Error(), Version: h.Version})
}

// requestLogger renders chain errors itself so the logged status is the one
// the client receives.
func (h *Handler) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	chainErr := c.Next()
	if chainErr != nil {
		if err := h.handleError(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	ev := h.Logger.Info()
	if chainErr != nil {
		ev = h.Logger.Warn().Err(chainErr)
	}
	ev.Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("request")
	return nil
}
