package cart

import (
	"strings"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/catalog"
)

// MaxLineQuantity caps a single line on submission and on later edits.
const MaxLineQuantity = 99

// LineRequest is one submitted selection. Prices always come from the
// catalog, never from the request.
type LineRequest struct {
	ProductID string   `json:"productId"`
	Quantity  int      `json:"quantity"`
	Note      string   `json:"note"`
	OptionIDs []string `json:"optionIds"`
}

func ProductIDs(reqs []LineRequest) []string {
	seen := make(map[string]bool, len(reqs))
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		id := strings.TrimSpace(r.ProductID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func resolve(products map[string]catalog.Product, r LineRequest) (catalog.Product, error) {
	p, ok := products[strings.TrimSpace(r.ProductID)]
	if !ok || !p.IsActive {
		return catalog.Product{}, apperr.Validation("PRODUCT_UNAVAILABLE", "A selected product is no longer available").
			WithDetails(map[string]any{"productId": r.ProductID})
	}
	if r.Quantity < 1 || r.Quantity > MaxLineQuantity {
		return catalog.Product{}, apperr.Validation("INVALID_QUANTITY", "Quantity must be between 1 and 99")
	}
	return p, nil
}

// BuildDraft replays submitted lines into a staff draft.
func BuildDraft(products map[string]catalog.Product, reqs []LineRequest) (*Draft, error) {
	d := NewDraft()
	for _, r := range reqs {
		p, err := resolve(products, r)
		if err != nil {
			return nil, err
		}
		line := d.AddProduct(p)
		if r.Quantity > 1 {
			if err := d.ChangeQuantity(line.LineID, r.Quantity-1); err != nil {
				return nil, err
			}
		}
		for _, optionID := range r.OptionIDs {
			opt, ok := p.Option(optionID)
			if !ok {
				return nil, apperr.Validation("OPTION_NOT_APPLICABLE", "Option does not belong to this product").
					WithDetails(map[string]any{"optionId": optionID})
			}
			if err := d.ToggleOption(line.LineID, opt); err != nil {
				return nil, err
			}
		}
		if err := d.SetNote(line.LineID, r.Note); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// BuildCustomerCart replays submitted lines into a customer cart. Notes and
// options are not offered to customers and are ignored.
func BuildCustomerCart(products map[string]catalog.Product, reqs []LineRequest) (*CustomerCart, error) {
	c := NewCustomerCart()
	for _, r := range reqs {
		p, err := resolve(products, r)
		if err != nil {
			return nil, err
		}
		c.Add(p)
		if r.Quantity > 1 {
			if err := c.ChangeQuantity(p.ID, r.Quantity-1); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}
