package staff

import (
	"context"
	"encoding/json"
	"strings"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/auth"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionVerifyPIN = "verify_pin"
)

type Service struct {
	store  Store
	logger *zap.Logger
	cost   int
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, cost: bcrypt.DefaultCost}
}

func (s *Service) hash(secret string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return "", apperr.Remote("Failed to hash credential", err)
	}
	return string(out), nil
}

func requireAdmin(caller *auth.Claims) error {
	if caller == nil {
		return apperr.Unauthorized("Sign in required")
	}
	if caller.Role != auth.RoleAdmin {
		return apperr.Forbidden("Only administrators can manage staff")
	}
	return nil
}

type verifyPayload struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type deletePayload struct {
	ID string `json:"id"`
}

// Execute is the single privileged entry point: action is one of create,
// update, delete or verify_pin and payload its JSON body. Only verify_pin is
// open to non-admin callers.
func (s *Service) Execute(ctx context.Context, tenantID string, caller *auth.Claims, action string, payload json.RawMessage) (any, error) {
	switch action {
	case ActionCreate:
		var in Input
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, apperr.Validation("INVALID_JSON", "Invalid request body")
		}
		return s.Create(ctx, tenantID, caller, in)
	case ActionUpdate:
		var in Input
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, apperr.Validation("INVALID_JSON", "Invalid request body")
		}
		return s.Update(ctx, tenantID, caller, in)
	case ActionDelete:
		var in deletePayload
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, apperr.Validation("INVALID_JSON", "Invalid request body")
		}
		if err := s.Delete(ctx, tenantID, caller, in.ID); err != nil {
			return nil, err
		}
		return map[string]bool{"deleted": true}, nil
	case ActionVerifyPIN:
		var in verifyPayload
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, apperr.Validation("INVALID_JSON", "Invalid request body")
		}
		return s.VerifyPIN(ctx, tenantID, in.Username, in.PIN)
	default:
		return nil, apperr.Validation("UNKNOWN_ACTION", "Unknown action: "+action)
	}
}

func (s *Service) List(ctx context.Context, tenantID string, caller *auth.Claims) ([]Member, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	members, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		members[i].Permissions = auth.Effective(members[i].Permissions)
	}
	return members, nil
}

func (s *Service) Create(ctx context.Context, tenantID string, caller *auth.Claims, in Input) (*Member, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := in.normalize(true); err != nil {
		return nil, err
	}
	rec := &Record{Member: Member{
		Username:    in.Username,
		DisplayName: in.DisplayName,
		Role:        in.Role,
		WorkDays:    in.WorkDays,
		ShiftStart:  in.ShiftStart,
		ShiftEnd:    in.ShiftEnd,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}}
	hash, err := s.hash(*in.Password)
	if err != nil {
		return nil, err
	}
	rec.PasswordHash = hash
	if in.PIN != nil && *in.PIN != "" {
		pinHash, err := s.hash(*in.PIN)
		if err != nil {
			return nil, err
		}
		rec.PINHash = &pinHash
	}
	if err := s.store.Create(ctx, tenantID, rec, in.Permissions); err != nil {
		return nil, err
	}
	s.logger.Info("staff created", zap.String("tenantId", tenantID), zap.String("staffId", rec.ID), zap.String("by", caller.StaffID))
	return s.present(rec, in.Permissions), nil
}

func (s *Service) Update(ctx context.Context, tenantID string, caller *auth.Claims, in Input) (*Member, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ID) == "" {
		return nil, apperr.Validation("VALIDATION_ERROR", "Staff id is required")
	}
	if err := in.normalize(false); err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, tenantID, in.ID)
	if err != nil {
		return nil, err
	}
	if in.ID == caller.StaffID && in.Role != auth.RoleAdmin {
		return nil, apperr.Validation("VALIDATION_ERROR", "You cannot remove your own admin role")
	}

	rec.Username = in.Username
	rec.DisplayName = in.DisplayName
	rec.Role = in.Role
	rec.WorkDays = in.WorkDays
	rec.ShiftStart = in.ShiftStart
	rec.ShiftEnd = in.ShiftEnd
	if in.IsActive != nil {
		rec.IsActive = *in.IsActive
	}
	if in.Password != nil {
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		rec.PasswordHash = hash
	}
	if in.PIN != nil {
		if *in.PIN == "" {
			rec.PINHash = nil
		} else {
			pinHash, err := s.hash(*in.PIN)
			if err != nil {
				return nil, err
			}
			rec.PINHash = &pinHash
		}
	}
	if err := s.store.Update(ctx, tenantID, rec, in.Permissions); err != nil {
		return nil, err
	}
	perms := in.Permissions
	if perms == nil {
		perms = rec.Permissions
	}
	return s.present(rec, perms), nil
}

func (s *Service) Delete(ctx context.Context, tenantID string, caller *auth.Claims, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return apperr.Validation("VALIDATION_ERROR", "Staff id is required")
	}
	if id == caller.StaffID {
		return apperr.Validation("VALIDATION_ERROR", "You cannot delete your own account")
	}
	if err := s.store.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("staff deleted", zap.String("tenantId", tenantID), zap.String("staffId", id), zap.String("by", caller.StaffID))
	return nil
}

func invalidCredentials() error {
	return apperr.Unauthorized("Invalid username or PIN")
}

// VerifyPIN checks a staff PIN and returns the account with effective
// permissions.
func (s *Service) VerifyPIN(ctx context.Context, tenantID, username, pin string) (*Member, error) {
	if !ValidUsername(strings.TrimSpace(username)) || !ValidPIN(pin) {
		return nil, apperr.Validation("VALIDATION_ERROR", "Enter a username and a 4-6 digit PIN")
	}
	rec, err := s.store.GetByUsername(ctx, tenantID, strings.TrimSpace(username))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if rec.PINHash == nil || bcrypt.CompareHashAndPassword([]byte(*rec.PINHash), []byte(pin)) != nil {
		return nil, invalidCredentials()
	}
	if !rec.IsActive {
		return nil, apperr.Forbidden("This staff account is disabled")
	}
	return s.present(rec, rec.Permissions), nil
}

// VerifyPassword is the username + password login used by administrators.
func (s *Service) VerifyPassword(ctx context.Context, tenantID, username, password string) (*Member, error) {
	rec, err := s.store.GetByUsername(ctx, tenantID, strings.TrimSpace(username))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("Invalid username or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthorized("Invalid username or password")
	}
	if !rec.IsActive {
		return nil, apperr.Forbidden("This staff account is disabled")
	}
	return s.present(rec, rec.Permissions), nil
}

func (s *Service) present(rec *Record, perms map[auth.Permission]bool) *Member {
	m := rec.Member
	m.HasPIN = rec.PINHash != nil
	m.Permissions = auth.Effective(perms)
	return &m
}

// Claims builds the token claims for an authenticated member.
func Claims(tenantID string, m *Member) auth.Claims {
	return auth.Claims{
		StaffID:     m.ID,
		TenantID:    tenantID,
		Role:        m.Role,
		Name:        m.DisplayName,
		Permissions: auth.Granted(m.Permissions),
	}
}
