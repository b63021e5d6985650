package activity

import (
	"context"
	"testing"

	"tableside-order-services/internal/apperr"
)

func TestActionLabels(t *testing.T) {
	cases := []struct {
		action Action
		label  string
		valid  bool
	}{
		{ActionOrderAdded, "Order added", true},
		{ActionPartialPayment, "Partial payment received", true},
		{ActionMovedToAccount, "Moved to account", true},
		{Action("table_exploded"), "table_exploded", false},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			if got := tc.action.Label(); got != tc.label {
				t.Fatalf("expected label %q, got %q", tc.label, got)
			}
			if got := tc.action.Valid(); got != tc.valid {
				t.Fatalf("expected valid=%v, got %v", tc.valid, got)
			}
		})
	}
}

func TestInsertRejectsUnknownActionWithoutWriting(t *testing.T) {
	// A nil querier would panic if Insert reached the database.
	err := Insert(context.Background(), nil, "t1", Entry{Action: "nope"})
	e, ok := apperr.As(err)
	if !ok || e.Code != "INVALID_ACTION" {
		t.Fatalf("expected INVALID_ACTION, got %v", err)
	}
}
