package floor

import (
	"context"
	"testing"

	"tableside-order-services/internal/apperr"
)

func strPtr(s string) *string { return &s }

func TestGroupByArea(t *testing.T) {
	areas := []Area{{ID: "a2", Name: "Garden", SortOrder: 2}, {ID: "a1", Name: "Hall", SortOrder: 1}}
	tables := []Table{
		{ID: "t3", Number: 3, AreaID: strPtr("a2")},
		{ID: "t1", Number: 1, AreaID: strPtr("a1")},
		{ID: "t9", Number: 9},
		{ID: "t2", Number: 2, AreaID: strPtr("a1")},
		{ID: "t7", Number: 7, AreaID: strPtr("gone")},
	}

	got := groupByArea(areas, tables)
	if len(got) != 3 {
		t.Fatalf("expected two areas plus loose tables, got %d groups", len(got))
	}
	if got[0].Area.Name != "Hall" || len(got[0].Tables) != 2 || got[0].Tables[0].Number != 1 {
		t.Fatalf("unexpected first group %+v", got[0])
	}
	if got[1].Area.Name != "Garden" || len(got[1].Tables) != 1 {
		t.Fatalf("unexpected second group %+v", got[1])
	}
	if got[2].Area != nil || len(got[2].Tables) != 2 || got[2].Tables[0].Number != 7 {
		t.Fatalf("unexpected loose group %+v", got[2])
	}
}

func TestSaveTableValidation(t *testing.T) {
	svc := NewService(nil)
	cases := []struct {
		name  string
		table Table
	}{
		{name: "zero", table: Table{Number: 0}},
		{name: "negative", table: Table{Number: -2}},
		{name: "too large", table: Table{Number: 10000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.SaveTable(context.Background(), "t1", &tc.table); !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	if got := (Table{Number: 12}).Label(); got != "Table 12" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (Table{Number: 12, Name: "Window"}).Label(); got != "Window" {
		t.Fatalf("unexpected label %q", got)
	}
}
