package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/portfolio-extractor/internal/extract"
)

const dabBuy = `DAB Bank AG
Kauf Kommissionsgeschäft
Gattungsbezeichnung ISIN
ARERO - Der Weltfonds Inhaber-Anteile o.N. LU0360863863
Nominal Kurs
STK 0,91920 EUR 163,1800
Handelstag 06.01.2015 Kurswert EUR 150,00
Abrechnungs-Nr. 9090909090
08.01.2015 8022574001 EUR 150,00
`

func setupTestApp() *fiber.App {
	app := fiber.New()
	h := &Handler{Engine: extract.New(nil), Log: zerolog.Nop()}
	h.Register(app)
	return app
}

func postForm(t *testing.T, app *fiber.App, fields map[string]string) ExtractResponse {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	raw, _ := io.ReadAll(resp.Body)
	var out ExtractResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to decode response: %v\n%s", err, raw)
	}
	return out
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
}

func TestExtractEndpointWithText(t *testing.T) {
	app := setupTestApp()

	out := postForm(t, app, map[string]string{"text": dabBuy})
	if !out.Success {
		t.Fatalf("success=false: %s", out.Error)
	}
	if out.Count != 2 {
		t.Errorf("count = %d, want 2", out.Count)
	}
	if len(out.Errors) != 0 {
		t.Errorf("errors = %v", out.Errors)
	}

	kinds := map[string]int{}
	for _, row := range out.Items {
		kinds[row.Kind]++
	}
	if kinds["security"] != 1 || kinds["entry"] != 1 {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestExtractEndpointBankHint(t *testing.T) {
	app := setupTestApp()

	out := postForm(t, app, map[string]string{"text": dabBuy, "bank": "dab"})
	if !out.Success || out.Count != 2 {
		t.Errorf("success=%v count=%d: %s", out.Success, out.Count, out.Error)
	}

	out = postForm(t, app, map[string]string{"text": dabBuy, "bank": "gringotts"})
	if out.Success {
		t.Error("unknown bank must be rejected")
	}
}

func TestExtractEndpointRequiresInput(t *testing.T) {
	app := setupTestApp()

	out := postForm(t, app, map[string]string{})
	if out.Success {
		t.Error("expected failure for empty form")
	}
}

// A batch with an unreadable document still returns the readable one's
// items; the failure is reported in the errors list.
func TestExtractEndpointPartialErrors(t *testing.T) {
	app := setupTestApp()

	out := postForm(t, app, map[string]string{"text": "Quarterly newsletter.\nNothing here.\n"})
	if !out.Success {
		t.Fatalf("batch-level success expected: %s", out.Error)
	}
	if out.Count != 0 {
		t.Errorf("count = %d, want 0", out.Count)
	}
	if len(out.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", out.Errors)
	}
}
