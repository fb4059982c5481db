package balance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
)

// Service answers balance reads for the API
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new balance service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CurrencyTotal sums the accounts that share a currency. Totals never mix
// currencies.
type CurrencyTotal struct {
	Currency     string
	BalanceCents int64
}

// Overview holds the current standing of a tenant's accounts.
type Overview struct {
	Totals   []CurrencyTotal
	Accounts []AccountBalance
}

// History holds a daily balance series plus window stats.
type History struct {
	Days         int
	History      []DailyBalance
	HighestCents int64
	LowestCents  int64
	AverageCents int64
}

// Overview returns every account's standing; a non-nil accountID narrows it
// to one account.
func (s *Service) Overview(ctx context.Context, tenantID uuid.UUID, accountID *uuid.UUID) (*Overview, error) {
	accounts, err := s.repo.AccountBalances(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account balances: %w", err)
	}

	if accountID != nil {
		filtered := make([]AccountBalance, 0, 1)
		for _, a := range accounts {
			if a.AccountID == *accountID {
				filtered = append(filtered, a)
				break
			}
		}
		accounts = filtered
	}

	byCurrency := make(map[string]int64)
	for _, a := range accounts {
		byCurrency[a.Currency] += a.BalanceCents
	}
	totals := make([]CurrencyTotal, 0, len(byCurrency))
	for currency, cents := range byCurrency {
		totals = append(totals, CurrencyTotal{Currency: currency, BalanceCents: cents})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Currency < totals[j].Currency })

	s.logger.Debug("balance overview built",
		"tenant_id", tenantID,
		"accounts", len(accounts),
		"currencies", len(totals))

	return &Overview{Totals: totals, Accounts: accounts}, nil
}

// History returns the daily balance series for the window. days outside
// [1, 365] falls back to the 30-day default or the yearly cap.
func (s *Service) History(ctx context.Context, tenantID uuid.UUID, accountID *uuid.UUID, days int) (*History, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	series, err := s.repo.DailyBalances(ctx, tenantID, accountID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance history: %w", err)
	}

	h := &History{Days: days, History: series}
	if len(series) == 0 {
		return h, nil
	}

	h.HighestCents = series[0].BalanceCents
	h.LowestCents = series[0].BalanceCents
	var sum int64
	for _, d := range series {
		if d.BalanceCents > h.HighestCents {
			h.HighestCents = d.BalanceCents
		}
		if d.BalanceCents < h.LowestCents {
			h.LowestCents = d.BalanceCents
		}
		sum += d.BalanceCents
	}
	h.AverageCents = sum / int64(len(series))
	return h, nil
}
