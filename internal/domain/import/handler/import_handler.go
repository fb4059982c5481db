// Package handler exposes the statement import pipeline over HTTP.
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/pocket-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/pocket-ledger/pkg/middleware"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

const (
	defaultMaxUploadBytes = 25 << 20

	uploadBurst = 5
)

// uploadRate allows a small steady stream of statement uploads per tenant.
var uploadRate = rate.Every(6 * time.Second)

// ImportHandler handles statement uploads and import log queries.
type ImportHandler struct {
	svc            *importservice.ImportService
	logger         *slog.Logger
	maxUploadBytes int64
	uploads        func(http.Handler) http.Handler
}

// NewImportHandler creates a new import handler.
func NewImportHandler(svc *importservice.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		svc:            svc,
		logger:         logger,
		maxUploadBytes: defaultMaxUploadBytes,
		uploads:        middleware.RateLimit(uploadRate, uploadBurst, tenantKey),
	}
}

// WithMaxUploadBytes overrides the statement size cap.
func (h *ImportHandler) WithMaxUploadBytes(n int64) *ImportHandler {
	if n > 0 {
		h.maxUploadBytes = n
	}
	return h
}

// Register mounts the import routes on mux. Routes assume the auth
// middleware already ran.
func (h *ImportHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /v1/imports", h.uploads(http.HandlerFunc(h.Upload)))
	mux.HandleFunc("GET /v1/imports", h.List)
	mux.HandleFunc("GET /v1/imports/{id}", h.Get)
}

// Upload accepts a multipart statement upload and runs the import. Queued
// formats get a 202 with the log to poll; everything else completes inline.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := identity(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "file exceeds the upload limit")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "could not read uploaded file")
		return
	}

	rawAccount := r.FormValue("accountId")
	if rawAccount == "" {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "accountId is required")
		return
	}
	accountID, err := uuid.Parse(rawAccount)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "accountId must be a valid uuid")
		return
	}

	checkDuplicates, _ := strconv.ParseBool(r.FormValue("checkDuplicates"))
	input := importservice.ImportInput{
		TenantID:        tenantID,
		UserID:          userID,
		AccountID:       accountID,
		FileName:        header.Filename,
		Data:            data,
		CheckDuplicates: checkDuplicates,
		NotifyEmail:     r.FormValue("notifyEmail"),
	}
	if raw := r.FormValue("defaultCategoryId"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "defaultCategoryId must be a valid uuid")
			return
		}
		input.DefaultCategoryID = &categoryID
	}

	outcome, err := h.svc.Import(r.Context(), input)
	if err != nil {
		h.writeImportError(w, err)
		return
	}

	if outcome.Queued {
		middleware.WriteJSON(w, http.StatusAccepted, queuedResponse{
			LogID:  outcome.LogID,
			Status: string(outcome.Status),
			Queued: true,
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newImportResponse(outcome))
}

// Get returns a single import log.
func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "import id must be a valid uuid")
		return
	}

	log, err := h.svc.GetImport(r.Context(), tenantID, id)
	if err != nil {
		h.writeImportError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newLogResponse(log))
}

// List returns the tenant's import logs, newest first.
func (h *ImportHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
		return
	}

	logs, err := h.svc.ListImports(r.Context(), tenantID, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		h.writeImportError(w, err)
		return
	}

	items := make([]importLogResponse, 0, len(logs))
	for _, log := range logs {
		items = append(items, newLogResponse(log))
	}

	middleware.WriteJSON(w, http.StatusOK, listResponse{Imports: items, Count: len(items)})
}

func (h *ImportHandler) writeImportError(w http.ResponseWriter, err error) {
	var importErr *importservice.ImportError
	if errors.As(err, &importErr) {
		middleware.WriteError(w, importErr.HTTPStatus(), string(importErr.Code), importErr.Message)
		return
	}

	h.logger.Error("import request failed", "error", err)
	middleware.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

func identity(r *http.Request) (tenantID, userID uuid.UUID, ok bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return claims.TenantID, claims.UserID, true
}

func tenantKey(r *http.Request) string {
	if tenantID, ok := auth.TenantIDFromContext(r.Context()); ok {
		return tenantID.String()
	}
	return r.RemoteAddr
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

type queuedResponse struct {
	LogID  uuid.UUID `json:"logId"`
	Status string    `json:"status"`
	Queued bool      `json:"queued"`
}

type importResponse struct {
	LogID            uuid.UUID            `json:"logId"`
	Status           string               `json:"status"`
	Imported         int                  `json:"imported"`
	Skipped          int                  `json:"skipped"`
	Total            int                  `json:"total"`
	AccountID        uuid.UUID            `json:"accountId"`
	AccountName      string               `json:"accountName"`
	NewBalance       string               `json:"newBalance"`
	NewBalanceCents  int64                `json:"newBalanceCents"`
	Transactions     []transactionPreview `json:"transactions"`
	Errors           []string             `json:"errors,omitempty"`
	ProcessingTimeMs int64                `json:"processingTimeMs"`
}

type transactionPreview struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	Amount      string    `json:"amount"`
	Type        string    `json:"type"`
	CategoryID  uuid.UUID `json:"categoryId"`
}

type importLogResponse struct {
	LogID            uuid.UUID  `json:"logId"`
	AccountID        uuid.UUID  `json:"accountId"`
	FileName         string     `json:"fileName"`
	FileType         string     `json:"fileType"`
	FileSize         int64      `json:"fileSize"`
	Status           string     `json:"status"`
	Total            int        `json:"total"`
	Imported         int        `json:"imported"`
	Failed           int        `json:"failed"`
	ErrorMessage     *string    `json:"errorMessage,omitempty"`
	Errors           []string   `json:"errors,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	ProcessingTimeMs *int64     `json:"processingTimeMs,omitempty"`
}

type listResponse struct {
	Imports []importLogResponse `json:"imports"`
	Count   int                 `json:"count"`
}

func newImportResponse(outcome *importservice.ImportOutcome) importResponse {
	previews := make([]transactionPreview, 0, len(outcome.Transactions))
	for _, tx := range outcome.Transactions {
		previews = append(previews, transactionPreview{
			ID:          tx.ID,
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
			AmountCents: tx.AmountCents,
			Amount:      money.New(tx.AmountCents, outcome.Currency).Display(),
			Type:        tx.Type,
			CategoryID:  tx.CategoryID,
		})
	}

	return importResponse{
		LogID:            outcome.LogID,
		Status:           string(outcome.Status),
		Imported:         outcome.Imported,
		Skipped:          outcome.Skipped,
		Total:            outcome.Total,
		AccountID:        outcome.AccountID,
		AccountName:      outcome.AccountName,
		NewBalance:       money.New(outcome.NewBalanceCents, outcome.Currency).Display(),
		NewBalanceCents:  outcome.NewBalanceCents,
		Transactions:     previews,
		Errors:           outcome.Errors,
		ProcessingTimeMs: outcome.ProcessingTimeMs,
	}
}

func newLogResponse(log *repository.ImportLog) importLogResponse {
	return importLogResponse{
		LogID:            log.ID,
		AccountID:        log.AccountID,
		FileName:         log.FileName,
		FileType:         log.FileType,
		FileSize:         log.FileSize,
		Status:           string(log.Status),
		Total:            log.TransactionsTotal,
		Imported:         log.TransactionsImported,
		Failed:           log.TransactionsFailed,
		ErrorMessage:     log.ErrorMessage,
		Errors:           log.ErrorDetails,
		CreatedAt:        log.CreatedAt,
		CompletedAt:      log.CompletedAt,
		ProcessingTimeMs: log.ProcessingTimeMs,
	}
}
