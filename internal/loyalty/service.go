package loyalty

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tableside-order-services/internal/apperr"

	"go.uber.org/zap"
)

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// NormalizePhone keeps digits only and requires 10 to 13 of them.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 || len(digits) > 13 {
		return "", apperr.Validation("INVALID_PHONE", "Phone number is not valid")
	}
	return digits, nil
}

func (s *Service) Lookup(ctx context.Context, tenantID, phone string) (*Member, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.store.FindByPhone(ctx, tenantID, normalized)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Member, error) {
	return s.store.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID, search string) ([]Member, error) {
	return s.store.List(ctx, tenantID, strings.TrimSpace(search))
}

func (s *Service) Transactions(ctx context.Context, tenantID, memberID string) ([]Transaction, error) {
	return s.store.Transactions(ctx, tenantID, memberID)
}

func (s *Service) Register(ctx context.Context, tenantID, name, phone string) (*Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("VALIDATION_ERROR", "Name is required")
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	m := &Member{Name: name, Phone: normalized}
	if err := s.store.Create(ctx, tenantID, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseAdjustment accepts a signed whole number of points. Zero and
// non-numeric input are rejected.
func ParseAdjustment(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Validation("INVALID_POINTS", "Points must be a whole number")
	}
	if value == 0 {
		return 0, apperr.Validation("INVALID_POINTS", "Points must not be zero")
	}
	return value, nil
}

// Adjust posts a manual correction: positive values earn, negative values
// spend their absolute value.
func (s *Service) Adjust(ctx context.Context, tenantID, memberID string, delta int, description string) (*Member, error) {
	if delta == 0 {
		return nil, apperr.Validation("INVALID_POINTS", "Points must not be zero")
	}
	description = strings.TrimSpace(description)
	posting := Posting{Description: description}
	if delta > 0 {
		posting.Earn = delta
		if posting.Description == "" {
			posting.Description = fmt.Sprintf("Manual adjustment +%d", delta)
		}
	} else {
		posting.Spend = -delta
		if posting.Description == "" {
			posting.Description = fmt.Sprintf("Manual adjustment -%d", -delta)
		}
	}
	if err := s.store.Post(ctx, tenantID, memberID, posting); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("loyalty points adjusted", zap.String("tenantId", tenantID), zap.String("memberId", memberID), zap.Int("delta", delta))
	}
	return s.store.Get(ctx, tenantID, memberID)
}

// CheckoutPosting builds the ledger write for an order placed with a member
// attached.
func CheckoutPosting(q Quote, orderID string) Posting {
	id := orderID
	short := orderID
	if len(short) > 6 {
		short = short[:6]
	}
	return Posting{
		Earn:        q.EarnPoints,
		Spend:       q.PointCost,
		Spent:       q.Charged,
		Visit:       true,
		OrderID:     &id,
		Description: fmt.Sprintf("Order #%s", strings.ToUpper(short)),
	}
}
