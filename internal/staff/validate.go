package staff

import (
	"regexp"
	"strings"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/auth"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{2,50}$`)
	pinPattern      = regexp.MustCompile(`^\d{4,6}$`)
	clockPattern    = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

const minPasswordLength = 6

// Input is the payload of create and update. Nil pointers on update leave the
// field as it is.
type Input struct {
	ID          string                   `json:"id"`
	Username    string                   `json:"username"`
	Password    *string                  `json:"password"`
	PIN         *string                  `json:"pin"`
	DisplayName string                   `json:"displayName"`
	Role        auth.Role                `json:"role"`
	WorkDays    []string                 `json:"workDays"`
	ShiftStart  string                   `json:"shiftStart"`
	ShiftEnd    string                   `json:"shiftEnd"`
	IsActive    *bool                    `json:"isActive"`
	Permissions map[auth.Permission]bool `json:"permissions"`
}

func fieldError(field, message string) error {
	return apperr.Validation("VALIDATION_ERROR", message).WithDetails(map[string]any{"field": field})
}

func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

func ValidClock(value string) bool {
	return clockPattern.MatchString(value)
}

// NormalizeWorkDays lowercases and dedupes, keeping weekday order. Unknown
// names and an empty set are rejected.
func NormalizeWorkDays(days []string) ([]string, error) {
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		key := strings.ToLower(strings.TrimSpace(d))
		known := false
		for _, w := range Weekdays {
			if w == key {
				known = true
				break
			}
		}
		if !known {
			return nil, fieldError("workDays", "Unknown work day: "+d)
		}
		seen[key] = true
	}
	if len(seen) == 0 {
		return nil, fieldError("workDays", "Select at least one work day")
	}
	out := make([]string, 0, len(seen))
	for _, w := range Weekdays {
		if seen[w] {
			out = append(out, w)
		}
	}
	return out, nil
}

func (in *Input) normalize(creating bool) error {
	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.ShiftStart = strings.TrimSpace(in.ShiftStart)
	in.ShiftEnd = strings.TrimSpace(in.ShiftEnd)

	if !ValidUsername(in.Username) {
		return fieldError("username", "Username must be 2-50 letters, digits or underscores")
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Username
	}
	if in.Role == "" {
		in.Role = auth.RoleStaff
	}
	if !in.Role.Valid() {
		return fieldError("role", "Role must be admin or staff")
	}
	if creating && in.Password == nil {
		return fieldError("password", "Password is required")
	}
	if in.Password != nil && len(*in.Password) < minPasswordLength {
		return fieldError("password", "Password must be at least 6 characters")
	}
	if in.PIN != nil && *in.PIN != "" && !ValidPIN(*in.PIN) {
		return fieldError("pin", "PIN must be 4 to 6 digits")
	}
	days, err := NormalizeWorkDays(in.WorkDays)
	if err != nil {
		return err
	}
	in.WorkDays = days
	if in.ShiftStart == "" {
		in.ShiftStart = "09:00"
	}
	if in.ShiftEnd == "" {
		in.ShiftEnd = "17:00"
	}
	if !ValidClock(in.ShiftStart) || !ValidClock(in.ShiftEnd) {
		return fieldError("shift", "Shift times must be HH:MM")
	}
	for p := range in.Permissions {
		if !auth.ValidPermission(p) {
			return fieldError("permissions", "Unknown permission: "+string(p))
		}
	}
	return nil
}
