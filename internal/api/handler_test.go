package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-analyzer/internal/analysis"
	"github.com/insightdelivered/statement-analyzer/internal/logger"
)

type testResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	CSV     string `json:"csv"`
	Report  *struct {
		Status         string            `json:"status"`
		Mode           string            `json:"mode"`
		Transactions   []json.RawMessage `json:"transactions"`
		DebugLines     []json.RawMessage `json:"debug_lines"`
		Metrics        json.RawMessage   `json:"metrics"`
		Recommendation *struct {
			Score    float64 `json:"score"`
			Decision string  `json:"decision"`
		} `json:"recommendation"`
	} `json:"report"`
}

const salaryAndRentJSON = `{"tables":[{"headers":["Date","Description","Debit","Credit"],"rows":[
["2024-01-05","Salary Payment","","5000"],
["2024-01-10","Rent","1500",""],
["2024-02-05","Salary Payment","","5000"],
["2024-02-10","Rent","1500",""]]}]}`

func setupTestApp() *fiber.App {
	h := &Handler{Analyzer: analysis.New(), Logger: zerolog.Nop(), Version: "test"}
	return NewApp(h, 4)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, testResponse) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	var out testResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", body, err)
	}
	return resp.StatusCode, out
}

func jsonRequest(target, body string) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	} else {
		mw.WriteField("note", "no file")
	}
	mw.Close()

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}
	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
	if result["version"] != "test" {
		t.Errorf("expected version=test, got %q", result["version"])
	}
}

func TestAnalyzeJSON(t *testing.T) {
	app := setupTestApp()

	status, out := do(t, app, jsonRequest("/api/analyze?csv=true", salaryAndRentJSON))
	if status != fiber.StatusOK || !out.Success {
		t.Fatalf("got %d %+v", status, out)
	}
	if out.Report.Status != "ok" || out.Report.Mode != "table" {
		t.Errorf("report: got status %q mode %q", out.Report.Status, out.Report.Mode)
	}
	if out.Report.Recommendation == nil || out.Report.Recommendation.Decision != "Approved" {
		t.Errorf("recommendation: got %+v", out.Report.Recommendation)
	}
	if len(out.Report.Transactions) != 4 {
		t.Errorf("transactions: got %d", len(out.Report.Transactions))
	}
	if !strings.Contains(out.CSV, "2024-01-10,Rent,,rent,-1500.00,") {
		t.Errorf("csv: got %q", out.CSV)
	}
}

func TestAnalyzeJSON_InsufficientData(t *testing.T) {
	app := setupTestApp()

	body := `{"tables":[{"headers":["Date","Narration","Debit"],"rows":[["someday","ATM","10"]]}]}`
	status, out := do(t, app, jsonRequest("/api/analyze", body))
	if status != fiber.StatusOK || !out.Success {
		t.Fatalf("got %d %+v", status, out)
	}
	if out.Report.Status != "insufficient_data" {
		t.Errorf("status: got %q", out.Report.Status)
	}
	if out.Report.Recommendation != nil || string(out.Report.Metrics) != "null" {
		t.Errorf("expected null metrics and recommendation, got %s / %+v", out.Report.Metrics, out.Report.Recommendation)
	}
}

func TestAnalyzeJSON_ZeroIncomeEncodesInfinity(t *testing.T) {
	app := setupTestApp()

	body := `{"tables":[{"headers":["Date","Description","Withdrawal"],"rows":[["2024-01-02","ATM","100"]]}]}`
	status, out := do(t, app, jsonRequest("/api/analyze", body))
	if status != fiber.StatusOK {
		t.Fatalf("got %d %+v", status, out)
	}
	if !strings.Contains(string(out.Report.Metrics), `"expense_to_income_ratio":"Infinity"`) {
		t.Errorf("metrics: got %s", out.Report.Metrics)
	}
	if out.Report.Recommendation.Decision != "Rejected" {
		t.Errorf("decision: got %q", out.Report.Recommendation.Decision)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}{
		{
			name: "no date column",
			req: func(t *testing.T) *http.Request {
				return jsonRequest("/api/analyze", `{"tables":[{"headers":["Posted","Description"],"rows":[["x","y"]]}]}`)
			},
			status: fiber.StatusUnprocessableEntity,
		},
		{
			name:   "empty document",
			req:    func(t *testing.T) *http.Request { return jsonRequest("/api/analyze", `{}`) },
			status: fiber.StatusBadRequest,
		},
		{
			name: "mixed input",
			req: func(t *testing.T) *http.Request {
				return jsonRequest("/api/analyze", `{"pages":["text"],"tables":[{"headers":["Date"],"rows":[]}]}`)
			},
			status: fiber.StatusBadRequest,
		},
		{
			name:   "bad mode",
			req:    func(t *testing.T) *http.Request { return jsonRequest("/api/analyze?mode=ocr", salaryAndRentJSON) },
			status: fiber.StatusBadRequest,
		},
		{
			name:   "malformed json",
			req:    func(t *testing.T) *http.Request { return jsonRequest("/api/analyze", `{"pages":`) },
			status: fiber.StatusBadRequest,
		},
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/analyze", "", "")
			},
			status: fiber.StatusBadRequest,
		},
		{
			name: "unsupported file type",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/analyze", "scan.png", "binary")
			},
			status: fiber.StatusBadRequest,
		},
		{
			name: "unreadable pdf",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/analyze", "statement.pdf", "%PDF-garbage")
			},
			status: fiber.StatusUnprocessableEntity,
		},
		{
			name: "unsupported content type",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader("x"))
				req.Header.Set("Content-Type", "text/plain")
				return req
			},
			status: fiber.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp()
			status, out := do(t, app, tt.req(t))
			if status != tt.status {
				t.Errorf("status: got %d, want %d (%s)", status, tt.status, out.Error)
			}
			if out.Success || out.Error == "" {
				t.Errorf("expected a named failure, got %+v", out)
			}
			if out.Report != nil {
				t.Error("failed request must not carry a report")
			}
		})
	}
}

func TestAnalyzeUpload(t *testing.T) {
	app := setupTestApp()

	statement := "Statement of Account\nMr. Ramesh Kumar\n" +
		"05-Jan-2024 05-Jan-2024 NEFT SALARY ACME LTD 50,000.00 50,000.00\n" +
		"10-Jan-2024 10-Jan-2024 RENT JANUARY 123456 15,000.00 35,000.00\n"

	status, out := do(t, app, multipartRequest(t, "/api/analyze?debug=true", "statement.txt", statement))
	if status != fiber.StatusOK || !out.Success {
		t.Fatalf("got %d %+v", status, out)
	}
	if out.Report.Mode != "line" || len(out.Report.Transactions) != 2 {
		t.Errorf("report: got mode %q with %d transactions", out.Report.Mode, len(out.Report.Transactions))
	}
	if len(out.Report.DebugLines) == 0 {
		t.Error("debug=true should include debug lines")
	}

	_, out = do(t, app, multipartRequest(t, "/api/analyze", "statement.txt", statement))
	if len(out.Report.DebugLines) != 0 {
		t.Error("debug lines should be omitted by default")
	}
}

func TestAnalyzeUploadCSV(t *testing.T) {
	app := setupTestApp()

	csv := "Date;Particulars;Withdrawal;Deposit\n05/01/2024;Salary;;5000\n10/01/2024;Office rent;1500;\n"
	status, out := do(t, app, multipartRequest(t, "/api/analyze", "export.csv", csv))
	if status != fiber.StatusOK || !out.Success {
		t.Fatalf("got %d %+v", status, out)
	}
	if out.Report.Mode != "table" || len(out.Report.Transactions) != 2 {
		t.Errorf("report: got mode %q with %d transactions", out.Report.Mode, len(out.Report.Transactions))
	}
}

func TestRequestLogger_LogsRenderedStatus(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown route", "/api/missing", fiber.StatusNotFound},
		{"health", "/api/health", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := &Handler{Analyzer: analysis.New(), Logger: logger.NewWithWriter(&logs, "info"), Version: "test"}
			app := NewApp(h, 4)

			resp, err := app.Test(httptest.NewRequest("GET", tt.target, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.status)
			}
			want := fmt.Sprintf(`"status":%d`, tt.status)
			if !strings.Contains(logs.String(), want) {
				t.Errorf("log: got %q, want it to contain %s", logs.String(), want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(io.ErrUnexpectedEOF); got != fiber.StatusInternalServerError {
		t.Errorf("unknown error: got %d", got)
	}
}
