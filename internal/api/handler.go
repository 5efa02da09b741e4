// Package api exposes the statement engine over HTTP.
package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-engine/internal/engine"
	"github.com/insightdelivered/statement-engine/internal/extractor"
	"github.com/insightdelivered/statement-engine/internal/models"
	"github.com/insightdelivered/statement-engine/internal/writer"
)

// Handler serves the conversion endpoints.
type Handler struct {
	engine *engine.Engine
	log    *zap.Logger
}

// New builds a handler over the given engine.
func New(e *engine.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: e, log: log}
}

// Register mounts the API routes on a fiber app.
func (h *Handler) Register(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", h.health)
	api.Get("/dialects", h.dialects)
	api.Post("/convert", h.convert)
	api.Post("/parse", h.parse)
}

func (h *Handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) dialects(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"dialects": h.engine.Dialects()})
}

// convert accepts a PDF upload (form field "file") and returns the
// parsed statement as CSV or JSON. The dialect defaults to
// auto-detection; pass ?dialect=metro|hsbc|barclays|generic to force one.
func (h *Handler) convert(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "no file uploaded, use form field 'file'")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return apiError(c, fiber.StatusBadRequest, "only PDF files are supported")
	}

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create temp file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveFile(fh, tmpPath); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to save uploaded file")
	}

	doc, err := extractor.ExtractDocument(tmpPath)
	if err != nil {
		return apiError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
	}

	res, err := h.engine.Parse(c.UserContext(), doc, c.Query("dialect", "auto"))
	if err != nil {
		h.log.Warn("conversion failed",
			zap.String("file", fh.Filename),
			zap.Error(err))
		return apiError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	return h.respond(c, res, fh.Filename)
}

// parseRequest is the JSON body of /api/parse: pre-extracted text pages
// (and optionally word tokens) instead of a PDF upload.
type parseRequest struct {
	Pages   []string        `json:"pages"`
	Words   [][]models.Word `json:"words"`
	Dialect string          `json:"dialect"`
}

func (h *Handler) parse(c *fiber.Ctx) error {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if len(req.Pages) == 0 && len(req.Words) == 0 {
		return apiError(c, fiber.StatusBadRequest, "request must contain pages or words")
	}
	if req.Dialect == "" {
		req.Dialect = "auto"
	}

	doc := models.Document{Pages: req.Pages, Words: req.Words}
	res, err := h.engine.Parse(c.UserContext(), doc, req.Dialect)
	if err != nil {
		return apiError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(res)
}

func (h *Handler) respond(c *fiber.Ctx, res *models.ParseResult, filename string) error {
	if c.Query("format", "csv") == "json" {
		return c.JSON(res)
	}

	var sb strings.Builder
	cw := &writer.CSVWriter{IncludeHeader: true, IncludeConfidence: c.QueryBool("confidence")}
	if err := cw.Write(&sb, res); err != nil {
		return apiError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", base+".csv"))
	return c.SendString(sb.String())
}

func apiError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
