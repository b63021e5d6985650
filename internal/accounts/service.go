package accounts

import (
	"context"
	"strings"

	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Account, error) {
	return s.store.List(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Account, error) {
	return s.store.Get(ctx, tenantID, id)
}

func (s *Service) Transactions(ctx context.Context, tenantID, accountID string) ([]Transaction, error) {
	return s.store.Transactions(ctx, tenantID, accountID)
}

func (s *Service) Create(ctx context.Context, tenantID string, a Account) (*Account, error) {
	if err := normalize(&a); err != nil {
		return nil, err
	}
	a.Balance = decimal.Zero
	if err := s.store.Create(ctx, tenantID, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update changes the holder's details only; the balance moves through the
// ledger.
func (s *Service) Update(ctx context.Context, tenantID string, a Account) (*Account, error) {
	if err := normalize(&a); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, tenantID, &a); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, tenantID, a.ID)
}

func normalize(a *Account) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Note = strings.TrimSpace(a.Note)
	if a.Name == "" {
		return apperr.Validation("VALIDATION_ERROR", "Account name is required")
	}
	return nil
}

// ParseAmount accepts a positive money amount and rounds it to two places.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Validation("INVALID_AMOUNT", "Amount must be a number")
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, apperr.Validation("INVALID_AMOUNT", "Amount must be greater than zero")
	}
	return amount, nil
}

// Collect records a payment against the account. Amounts above the current
// balance are accepted and leave the account in credit.
func (s *Service) Collect(ctx context.Context, tenantID, accountID string, amount decimal.Decimal, description string) (*Account, error) {
	if !amount.IsPositive() {
		return nil, apperr.Validation("INVALID_AMOUNT", "Amount must be greater than zero")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Payment collected"
	}
	acc, err := s.store.Post(ctx, tenantID, accountID, Entry{
		Type:        TypePayment,
		Amount:      amount.Round(2),
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("account payment collected",
			zap.String("tenantId", tenantID),
			zap.String("accountId", accountID),
			zap.String("amount", amount.StringFixed(2)),
			zap.String("balance", acc.Balance.StringFixed(2)),
		)
	}
	return acc, nil
}
