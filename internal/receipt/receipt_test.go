package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/tenant"

	"github.com/shopspring/decimal"
)

func sampleOrder() orders.Order {
	payment := orders.PaymentCard
	o := orders.Order{
		ID:          "a1b2c3d4-e5f6",
		DisplayName: "Elif",
		TableNumber: 7,
		Disposition: orders.Paid,
		PaymentType: &payment,
		Note:        "window seat",
		CreatedAt:   time.Date(2026, 3, 14, 11, 5, 0, 0, time.UTC),
	}
	o.SetItems([]orders.Item{
		{LineID: "l1", Name: "Adana Kebap", Price: decimal.RequireFromString("145"), Quantity: 2, Options: []string{"Extra lavash"}},
		{LineID: "l2", Name: "A very long product name that cannot fit on the narrow roll", Price: decimal.RequireFromString("35.5"), Quantity: 1, Note: "no ice"},
	})
	return o
}

func layout(width int) Layout {
	s := tenant.DefaultSettings()
	s.PaperWidth = width
	s.Timezone = "UTC"
	return LayoutFor(s)
}

func TestTextFitsPaperWidth(t *testing.T) {
	for _, tc := range []struct {
		paper   int
		columns int
	}{
		{paper: 58, columns: 32},
		{paper: 80, columns: 48},
	} {
		l := layout(tc.paper)
		if l.Columns != tc.columns {
			t.Fatalf("expected %d columns for %dmm, got %d", tc.columns, tc.paper, l.Columns)
		}
		out := Text(FromOrder(sampleOrder()), l)
		for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
			if n := runeLen(line); n > tc.columns {
				t.Fatalf("line %q is %d wide, limit %d", line, n, tc.columns)
			}
		}
	}
}

func TestTextContent(t *testing.T) {
	out := Text(FromOrder(sampleOrder()), layout(80))
	for _, want := range []string{
		"ADISYON",
		"Order #A1B2C3",
		"Table 7 - Elif",
		"14.03.2026 11:05",
		"Adana Kebap x2",
		"290.00",
		"35.50",
		"+ Extra lavash",
		"* no ice",
		"325.50 TRY",
		"Payment: Card",
		"Note: window seat",
		"Afiyet olsun!",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in receipt:\n%s", want, out)
		}
	}
}

func TestAddendumCarriesOnlyDelta(t *testing.T) {
	o := sampleOrder()
	delta := []orders.Item{{LineID: "l1", Name: "Adana Kebap", Price: decimal.RequireFromString("145"), Quantity: 3}}
	r := Addendum(o, delta, o.CreatedAt)

	out := Text(r, layout(58))
	if !strings.Contains(out, "ADDENDUM #A1B2C3") || !strings.Contains(out, "Adana Kebap x3") {
		t.Fatalf("unexpected addendum:\n%s", out)
	}
	if strings.Contains(out, "x2") || strings.Contains(out, "Afiyet") {
		t.Fatalf("addendum must not reprint the order:\n%s", out)
	}
	if !r.Total.Equal(decimal.RequireFromString("435")) {
		t.Fatalf("expected delta total 435, got %s", r.Total)
	}
}

func TestQuickOrderLabel(t *testing.T) {
	o := sampleOrder()
	o.TableNumber = orders.QuickOrderTable
	if got := FromOrder(o).TableLabel(); got != "Quick order" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestESCPOSBoldsTotal(t *testing.T) {
	out := ESCPOS(FromOrder(sampleOrder()), layout(80))
	if !bytes.HasPrefix(out, []byte(escInit)) || !bytes.HasSuffix(out, []byte(escCut)) {
		t.Fatalf("missing printer framing")
	}
	idx := bytes.Index(out, []byte(escBoldOn+"TOTAL"))
	if idx < 0 {
		t.Fatalf("total is not bold")
	}
}

func TestHTMLAndPDF(t *testing.T) {
	r := FromOrder(sampleOrder())
	l := layout(58)

	page, err := HTML(r, l)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !bytes.Contains(page, []byte("58mm")) || !bytes.Contains(page, []byte("Order #A1B2C3")) {
		t.Fatalf("unexpected html output")
	}

	doc, err := PDF(r, l)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Fatalf("expected a PDF document")
	}
}
