// Package handler exposes tenant balance reads over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/balance"
	"github.com/FACorreiaa/pocket-ledger/pkg/middleware"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// BalanceHandler answers balance overview and history queries.
type BalanceHandler struct {
	svc    *balance.Service
	logger *slog.Logger
}

// NewBalanceHandler creates a new balance handler.
func NewBalanceHandler(svc *balance.Service, logger *slog.Logger) *BalanceHandler {
	return &BalanceHandler{svc: svc, logger: logger}
}

// Register mounts the balance routes on mux. Routes assume the auth
// middleware already ran.
func (h *BalanceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/balance", h.Overview)
	mux.HandleFunc("GET /v1/balance/history", h.History)
}

type currencyTotalResponse struct {
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balanceCents"`
	Balance      string `json:"balance"`
}

type accountBalanceResponse struct {
	AccountID      uuid.UUID `json:"accountId"`
	AccountName    string    `json:"accountName"`
	Currency       string    `json:"currency"`
	BalanceCents   int64     `json:"balanceCents"`
	Balance        string    `json:"balance"`
	Change30dCents int64     `json:"change30dCents"`
	LastActivity   string    `json:"lastActivity,omitempty"`
}

type overviewResponse struct {
	Totals   []currencyTotalResponse  `json:"totals"`
	Accounts []accountBalanceResponse `json:"accounts"`
}

type dailyBalanceResponse struct {
	Date         string `json:"date"`
	BalanceCents int64  `json:"balanceCents"`
	ChangeCents  int64  `json:"changeCents"`
}

type historyResponse struct {
	Days         int                    `json:"days"`
	History      []dailyBalanceResponse `json:"history"`
	HighestCents int64                  `json:"highestCents"`
	LowestCents  int64                  `json:"lowestCents"`
	AverageCents int64                  `json:"averageCents"`
}

// Overview returns the tenant's accounts with per-currency totals.
func (h *BalanceHandler) Overview(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
		return
	}

	accountID, err := optionalAccountID(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "accountId must be a valid uuid")
		return
	}

	overview, err := h.svc.Overview(r.Context(), tenantID, accountID)
	if err != nil {
		h.logger.Error("balance overview failed", "tenant_id", tenantID, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	resp := overviewResponse{
		Totals:   make([]currencyTotalResponse, 0, len(overview.Totals)),
		Accounts: make([]accountBalanceResponse, 0, len(overview.Accounts)),
	}
	for _, total := range overview.Totals {
		resp.Totals = append(resp.Totals, currencyTotalResponse{
			Currency:     total.Currency,
			BalanceCents: total.BalanceCents,
			Balance:      money.New(total.BalanceCents, total.Currency).Display(),
		})
	}
	for _, account := range overview.Accounts {
		view := accountBalanceResponse{
			AccountID:      account.AccountID,
			AccountName:    account.AccountName,
			Currency:       account.Currency,
			BalanceCents:   account.BalanceCents,
			Balance:        money.New(account.BalanceCents, account.Currency).Display(),
			Change30dCents: account.Change30dCents,
		}
		if account.LastActivity != nil {
			view.LastActivity = account.LastActivity.Format("2006-01-02")
		}
		resp.Accounts = append(resp.Accounts, view)
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// History returns the daily balance series for the requested window.
func (h *BalanceHandler) History(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
		return
	}

	accountID, err := optionalAccountID(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "accountId must be a valid uuid")
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "days must be an integer")
			return
		}
	}

	history, err := h.svc.History(r.Context(), tenantID, accountID, days)
	if err != nil {
		h.logger.Error("balance history failed", "tenant_id", tenantID, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	resp := historyResponse{
		Days:         history.Days,
		History:      make([]dailyBalanceResponse, 0, len(history.History)),
		HighestCents: history.HighestCents,
		LowestCents:  history.LowestCents,
		AverageCents: history.AverageCents,
	}
	for _, day := range history.History {
		resp.History = append(resp.History, dailyBalanceResponse{
			Date:         day.Date.Format("2006-01-02"),
			BalanceCents: day.BalanceCents,
			ChangeCents:  day.ChangeCents,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

func optionalAccountID(r *http.Request) (*uuid.UUID, error) {
	raw := r.URL.Query().Get("accountId")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
