package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	statementExtensions = []string{".xlsx", ".xls"}
	ledgerExtensions    = []string{".xlsx"}
)

// Server is the HTTP front of the Engine. Uploaded files live in the upload directory
// only for the duration of one request.
type Server struct {
	cfg        *Config
	engine     *Engine
	translator *I18n
	logger     zerolog.Logger
	now        func() time.Time
}

func NewServer(cfg *Config, engine *Engine, translator *I18n, logger zerolog.Logger) (*Server, error) {
	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("can't create upload directory '%s': %w", cfg.Server.UploadDir, err)
	}
	return &Server{
		cfg:        cfg,
		engine:     engine,
		translator: translator,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// App builds fiber application with all routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ledger-reconcile " + Version,
		BodyLimit:             s.cfg.Server.MaxUploadMB << 20,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: s.cfg.Server.AllowedOrigins}))

	app.Get("/", s.handleHealth)
	app.Get("/api/health", s.handleHealth)
	app.Post("/api/reconcile", s.handleReconcile)
	app.Post("/api/procesar", s.handleReconcile)
	return app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
	})
}

func (s *Server) handleReconcile(c *fiber.Ctx) error {
	translator := s.translator.WithLocale(c.Query("lang"))
	log := s.logger.With().Str("requestID", uuid.NewString()).Logger()

	statementFile := formFile(c, "statement", "estadoCuenta")
	ledgerFile := formFile(c, "ledger", "cajasYBancos")
	if statementFile == nil || ledgerFile == nil {
		return s.reject(c, fiber.StatusBadRequest, translator.T("Both statement and ledger files are required"))
	}
	currencyValue := formValue(c, "currency", "moneda")
	monthValue := formValue(c, "month", "mes")
	if currencyValue == "" || monthValue == "" {
		return s.reject(c, fiber.StatusBadRequest, translator.T("Currency and month are required"))
	}
	for _, check := range []struct {
		file       *multipart.FileHeader
		extensions []string
	}{
		{statementFile, statementExtensions},
		{ledgerFile, ledgerExtensions},
	} {
		if !hasExtension(check.file.Filename, check.extensions) {
			return s.reject(c, fiber.StatusBadRequest,
				translator.T("Only these files are accepted: extensions, got f", "extensions", check.extensions, "f", check.file.Filename))
		}
	}
	currency, err := s.cfg.ParseCurrency(currencyValue)
	if err != nil {
		return s.fail(c, translator, err)
	}
	month, err := s.cfg.ParseMonth(monthValue)
	if err != nil {
		return s.fail(c, translator, err)
	}

	statementPath, err := s.saveUpload(c, statementFile)
	if err != nil {
		return s.fail(c, translator, err)
	}
	defer s.removeUpload(log, statementPath)
	ledgerPath, err := s.saveUpload(c, ledgerFile)
	if err != nil {
		return s.fail(c, translator, err)
	}
	defer s.removeUpload(log, ledgerPath)

	grid, err := openStatementGrid(statementPath)
	if err != nil {
		return s.fail(c, translator, err)
	}
	ledger, err := OpenLedger(ledgerPath, &s.cfg.Ledger)
	if err != nil {
		return s.fail(c, translator, err)
	}
	defer ledger.Close()

	ctx := WithLogger(c.UserContext(), log)
	result, err := s.engine.Run(ctx, grid, ledger, currency, month)
	if err != nil {
		log.Warn().Err(err).Msg("reconciliation failed")
		return s.fail(c, translator, err)
	}

	response := NewReconcileResponse(result, translator)
	if len(result.NewRecords) > 0 {
		var buf bytes.Buffer
		if err := ledger.Write(&buf); err != nil {
			return s.fail(c, translator, fmt.Errorf("failed to serialize ledger: %w", err))
		}
		response.File = base64.StdEncoding.EncodeToString(buf.Bytes())
		response.FileName = ResultFileName(month, currency, s.now().In(s.cfg.Location()))
	}
	return c.JSON(response)
}

// saveUpload stores uploaded file under random name keeping its extension.
func (s *Server) saveUpload(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	path := filepath.Join(s.cfg.Server.UploadDir, name)
	if err := c.SaveFile(file, path); err != nil {
		return "", fmt.Errorf("failed to save uploaded '%s': %w", file.Filename, err)
	}
	return path, nil
}

func (s *Server) removeUpload(log zerolog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("can't remove uploaded file")
	}
}

func (s *Server) fail(c *fiber.Ctx, translator *I18n, err error) error {
	return s.reject(c, statusForError(err), translator.T("Reconciliation failed: err", "err", err))
}

func (s *Server) reject(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Success: false, Error: message})
}

// handleError renders errors returned from handlers and middlewares as ErrorResponse.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
	}
	if status >= fiber.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return s.reject(c, status, err.Error())
}

// statusForError maps run errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrMissingInput),
		errors.Is(err, ErrInvalidSelector),
		errors.Is(err, ErrLedgerSheetNotFound):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrHeaderNotFound),
		errors.Is(err, ErrRequiredColumnsMissing),
		errors.Is(err, ErrInvalidDateFormat):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// formFile returns the first uploaded file found by any of the field names.
func formFile(c *fiber.Ctx, names ...string) *multipart.FileHeader {
	for _, name := range names {
		if file, err := c.FormFile(name); err == nil && file != nil {
			return file
		}
	}
	return nil
}

func formValue(c *fiber.Ctx, names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(c.FormValue(name)); value != "" {
			return value
		}
	}
	return ""
}

func hasExtension(filename string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
