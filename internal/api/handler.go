// Package api exposes the extraction engine over HTTP.
package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/portfolio-extractor/internal/extract"
	"github.com/insightdelivered/portfolio-extractor/internal/extractor"
	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/parser"
)

const version = "1.0.0"

// ExtractResponse is the JSON response from the /api/extract endpoint.
type ExtractResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Items   []Row    `json:"items"`
	Errors  []string `json:"errors,omitempty"`
	Count   int      `json:"count"`
	Version string   `json:"version,omitempty"`
}

// Row is one extraction item tagged with its concrete kind.
type Row struct {
	Kind      string                       `json:"kind"`
	Security  *models.Security             `json:"security,omitempty"`
	Account   *models.AccountTransaction   `json:"account,omitempty"`
	Portfolio *models.PortfolioTransaction `json:"portfolio,omitempty"`
	Entry     *models.BuySellEntry         `json:"entry,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Engine *extract.Engine
	Log    zerolog.Logger
}

// Register sets up the routes on the fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/extract", h.HandleExtract)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
	})
}

// HandleExtract accepts one or more uploaded PDF statements (form field
// "file") or pre-linearized text (form field "text"), runs extraction and
// returns the typed items. An optional "bank" field skips bank probing.
func (h *Handler) HandleExtract(c *fiber.Ctx) error {
	bank, err := bankParam(c.FormValue("bank"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	var docs []models.Document
	if text := c.FormValue("text"); strings.TrimSpace(text) != "" {
		docs = append(docs, models.Document{Text: text, Source: "inline", Bank: bank})
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["file"] {
			if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
				return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("%q: only PDF files are supported", fh.Filename))
			}
			text, err := textFromUpload(fh)
			if err != nil {
				return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
			}
			docs = append(docs, models.Document{Text: text, Source: fh.Filename, Bank: bank})
		}
	}

	if len(docs) == 0 {
		return writeError(c, fiber.StatusBadRequest, "no input: upload PDF files under form field 'file' or pass 'text'")
	}

	items, errs := h.Engine.Extract(c.Context(), docs)

	resp := ExtractResponse{
		Success: true,
		Items:   rows(items),
		Count:   len(items),
		Version: version,
	}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, e.Error())
	}
	h.Log.Info().Int("documents", len(docs)).Int("items", len(items)).Int("errors", len(errs)).Msg("extract request served")
	return c.JSON(resp)
}

func rows(items []models.Item) []Row {
	out := make([]Row, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case *models.SecurityItem:
			out = append(out, Row{Kind: "security", Security: it.Security})
		case *models.TransactionItem:
			if it.Account != nil {
				out = append(out, Row{Kind: "account", Account: it.Account})
			} else {
				out = append(out, Row{Kind: "portfolio", Portfolio: it.Portfolio})
			}
		case *models.BuySellEntryItem:
			out = append(out, Row{Kind: "entry", Entry: it.Entry})
		}
	}
	return out
}

func bankParam(s string) (models.BankID, error) {
	if s == "" {
		return "", nil
	}
	id := models.BankID(strings.ToLower(s))
	if _, err := parser.Lookup(id); err != nil {
		return "", fmt.Errorf("unknown bank %q", s)
	}
	return id, nil
}

// textFromUpload spools the upload to disk for the PDF reader, which needs
// random access.
func textFromUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%q: %w", fh.Filename, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to spool %q: %w", fh.Filename, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to spool %q: %w", fh.Filename, err)
	}
	tmp.Close()

	text, err := extractor.Text(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("%q: %w", fh.Filename, err)
	}
	return text, nil
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ExtractResponse{Success: false, Error: msg})
}
