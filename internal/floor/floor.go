package floor

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"tableside-order-services/internal/apperr"
)

type Area struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

type Table struct {
	ID       string  `json:"id"`
	AreaID   *string `json:"areaId"`
	Number   int     `json:"number"`
	Name     string  `json:"name"`
	Capacity int     `json:"capacity"`
	IsActive bool    `json:"isActive"`
}

// Label is the table name, or "Table N" when unnamed.
func (t Table) Label() string {
	if strings.TrimSpace(t.Name) != "" {
		return t.Name
	}
	return "Table " + strconv.Itoa(t.Number)
}

type Store interface {
	ListAreas(ctx context.Context, tenantID string) ([]Area, error)
	SaveArea(ctx context.Context, tenantID string, a *Area) error
	DeleteArea(ctx context.Context, tenantID, id string) error
	ListTables(ctx context.Context, tenantID string) ([]Table, error)
	SaveTable(ctx context.Context, tenantID string, t *Table) error
	DeleteTable(ctx context.Context, tenantID, id string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type AreaTables struct {
	Area   *Area   `json:"area"`
	Tables []Table `json:"tables"`
}

// Layout groups tables under their area in display order. Tables without an
// area come last under a nil area.
func (s *Service) Layout(ctx context.Context, tenantID string) ([]AreaTables, error) {
	areas, err := s.store.ListAreas(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	tables, err := s.store.ListTables(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return groupByArea(areas, tables), nil
}

func groupByArea(areas []Area, tables []Table) []AreaTables {
	sort.SliceStable(areas, func(i, j int) bool {
		if areas[i].SortOrder != areas[j].SortOrder {
			return areas[i].SortOrder < areas[j].SortOrder
		}
		return areas[i].Name < areas[j].Name
	})
	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Number < tables[j].Number })

	index := make(map[string]int, len(areas))
	out := make([]AreaTables, 0, len(areas)+1)
	for i := range areas {
		index[areas[i].ID] = len(out)
		out = append(out, AreaTables{Area: &areas[i], Tables: []Table{}})
	}
	var loose []Table
	for _, t := range tables {
		if t.AreaID != nil {
			if pos, ok := index[*t.AreaID]; ok {
				out[pos].Tables = append(out[pos].Tables, t)
				continue
			}
		}
		loose = append(loose, t)
	}
	if len(loose) > 0 {
		out = append(out, AreaTables{Tables: loose})
	}
	return out
}

func (s *Service) SaveArea(ctx context.Context, tenantID string, a *Area) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return apperr.Validation("VALIDATION_ERROR", "Area name is required")
	}
	return s.store.SaveArea(ctx, tenantID, a)
}

func (s *Service) DeleteArea(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteArea(ctx, tenantID, id)
}

func (s *Service) SaveTable(ctx context.Context, tenantID string, t *Table) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Number <= 0 || t.Number > 9999 {
		return apperr.Validation("INVALID_TABLE", "Table number must be between 1 and 9999")
	}
	if t.Capacity <= 0 {
		t.Capacity = 4
	}
	if t.AreaID != nil && strings.TrimSpace(*t.AreaID) == "" {
		t.AreaID = nil
	}
	return s.store.SaveTable(ctx, tenantID, t)
}

func (s *Service) DeleteTable(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteTable(ctx, tenantID, id)
}
