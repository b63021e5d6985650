package staff

import (
	"context"
	"time"

	"tableside-order-services/internal/auth"
)

var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Member is a staff account as exposed to clients. Hashes never leave the
// store.
type Member struct {
	ID          string                   `json:"id"`
	Username    string                   `json:"username"`
	DisplayName string                   `json:"displayName"`
	Role        auth.Role                `json:"role"`
	WorkDays    []string                 `json:"workDays"`
	ShiftStart  string                   `json:"shiftStart"`
	ShiftEnd    string                   `json:"shiftEnd"`
	IsActive    bool                     `json:"isActive"`
	HasPIN      bool                     `json:"hasPin"`
	Permissions map[auth.Permission]bool `json:"permissions"`
	CreatedAt   time.Time                `json:"createdAt"`
}

// Record is the stored form, including credential hashes.
type Record struct {
	Member
	PasswordHash string
	PINHash      *string
}

type Store interface {
	List(ctx context.Context, tenantID string) ([]Member, error)
	Get(ctx context.Context, tenantID, id string) (*Record, error)
	GetByUsername(ctx context.Context, tenantID, username string) (*Record, error)
	// Create and Update replace the permission rows in the same transaction
	// when perms is non-nil.
	Create(ctx context.Context, tenantID string, r *Record, perms map[auth.Permission]bool) error
	Update(ctx context.Context, tenantID string, r *Record, perms map[auth.Permission]bool) error
	Delete(ctx context.Context, tenantID, id string) error
}
