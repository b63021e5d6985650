package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/auth"
	"tableside-order-services/internal/middleware"
	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/tenant"
	"tableside-order-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

func readPathString(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

func readPathInt(r *http.Request, key string) (int, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	return strconv.Atoi(value)
}

var errMissingParam = errors.New("missing param")

func readTable(r *http.Request) (int, error) {
	n, err := readPathInt(r, "number")
	if err != nil || n < 0 {
		return 0, apperr.Validation("INVALID_TABLE", "Table number is not valid")
	}
	return n, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("INVALID_BODY", "Request body is required")
		}
		return apperr.Validation("INVALID_BODY", "Request body is not valid JSON")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for routes where the body may be omitted.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("INVALID_BODY", "Request body is not valid JSON")
	}
	return nil
}

// writeError maps service errors onto the JSON error envelope. Anything that
// is not an *apperr.Error is logged and reported as a generic failure.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperr.As(err); ok {
		status := appErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			h.logger().Error("request failed",
				zap.String("path", r.URL.Path),
				zap.String("code", appErr.Code),
				zap.String("requestId", middleware.RequestIDFrom(r.Context())),
				zap.Error(err),
			)
		}
		response.ErrorWithDetails(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	h.logger().Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}

// currentTenant is set by the tenant middleware for every /api route.
func currentTenant(r *http.Request) (*tenant.Tenant, error) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		return nil, apperr.NotFound("TENANT_NOT_FOUND", "Business could not be determined from the address")
	}
	return t, nil
}

func currentStaff(r *http.Request) (*auth.Claims, error) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return nil, apperr.Unauthorized("Sign in required")
	}
	return claims, nil
}

func staffActor(claims *auth.Claims) orders.Actor {
	return orders.Actor{UserID: claims.StaffID, Name: claims.Name}
}

// staffRequest bundles what almost every staff route needs.
func staffRequest(r *http.Request) (*tenant.Tenant, orders.Actor, error) {
	t, err := currentTenant(r)
	if err != nil {
		return nil, orders.Actor{}, err
	}
	claims, err := currentStaff(r)
	if err != nil {
		return nil, orders.Actor{}, err
	}
	return t, staffActor(claims), nil
}
