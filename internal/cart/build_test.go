package cart

import (
	"testing"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/catalog"
)

func menu() map[string]catalog.Product {
	a := adana
	a.IsActive = true
	a.Options = []catalog.Option{extraCheese, extraSpicy}
	y := ayran
	y.IsActive = true
	return map[string]catalog.Product{a.ID: a, y.ID: y, "p-off": {ID: "p-off", Name: "Off", Price: dec("10")}}
}

func TestBuildDraftUsesCatalogPrices(t *testing.T) {
	d, err := BuildDraft(menu(), []LineRequest{
		{ProductID: "p-adana", Quantity: 2, Note: " az pismis ", OptionIDs: []string{"o-cheese"}},
		{ProductID: "p-ayran", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// (250 + 20) * 2 + 30
	if !d.Total().Equal(dec("570")) {
		t.Fatalf("expected 570, got %s", d.Total())
	}
	lines := d.Lines()
	if lines[0].Note != "az pismis" || len(lines[0].Options) != 1 {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
}

func TestBuildRejects(t *testing.T) {
	cases := []struct {
		name string
		reqs []LineRequest
		code string
	}{
		{name: "unknown product", reqs: []LineRequest{{ProductID: "nope", Quantity: 1}}, code: "PRODUCT_UNAVAILABLE"},
		{name: "inactive product", reqs: []LineRequest{{ProductID: "p-off", Quantity: 1}}, code: "PRODUCT_UNAVAILABLE"},
		{name: "zero quantity", reqs: []LineRequest{{ProductID: "p-ayran", Quantity: 0}}, code: "INVALID_QUANTITY"},
		{name: "huge quantity", reqs: []LineRequest{{ProductID: "p-ayran", Quantity: 100}}, code: "INVALID_QUANTITY"},
		{name: "foreign option", reqs: []LineRequest{{ProductID: "p-ayran", Quantity: 1, OptionIDs: []string{"o-cheese"}}}, code: "OPTION_NOT_APPLICABLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildDraft(menu(), tc.reqs)
			appErr, ok := apperr.As(err)
			if !ok || appErr.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestBuildCustomerCartMergesRepeatedProducts(t *testing.T) {
	c, err := BuildCustomerCart(menu(), []LineRequest{
		{ProductID: "p-ayran", Quantity: 2},
		{ProductID: "p-ayran", Quantity: 1, OptionIDs: []string{"ignored"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 1 || c.Lines()[0].Quantity != 3 {
		t.Fatalf("expected one line of 3, got %+v", c.Lines())
	}
	if got := ProductIDs([]LineRequest{{ProductID: "a"}, {ProductID: "a"}, {ProductID: " "}, {ProductID: "b"}}); len(got) != 2 {
		t.Fatalf("expected deduplicated ids, got %v", got)
	}
}
