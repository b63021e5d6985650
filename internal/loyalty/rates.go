package loyalty

import (
	"github.com/shopspring/decimal"
)

type Rates struct {
	PointsPerUnit   decimal.Decimal
	PointValue      decimal.Decimal
	MinRedeemPoints int
}

type Quote struct {
	Eligible   bool            `json:"eligible"`
	Redeemed   bool            `json:"redeemed"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	PointCost  int             `json:"pointCost"`
	Charged    decimal.Decimal `json:"charged"`
	EarnPoints int             `json:"earnPoints"`
}

func (r Rates) CanRedeem(available int) bool {
	return r.PointValue.IsPositive() && available > 0 && available >= r.MinRedeemPoints
}

// Compute prices a checkout of total (subtotal plus service charge). When the
// member opts in and is eligible, the discount is floor(available × value)
// capped at total, costing ceil(discount / value) points. Points are earned on
// the amount actually charged.
func (r Rates) Compute(total decimal.Decimal, available int, redeem bool) Quote {
	q := Quote{
		Subtotal: total,
		Discount: decimal.Zero,
		Charged:  total,
		Eligible: r.CanRedeem(available),
	}
	if redeem && q.Eligible {
		discount := decimal.NewFromInt(int64(available)).Mul(r.PointValue).Floor()
		if discount.GreaterThan(total) {
			discount = total
		}
		if discount.IsPositive() {
			q.Redeemed = true
			q.Discount = discount
			q.PointCost = int(discount.Div(r.PointValue).Ceil().IntPart())
			if q.PointCost > available {
				q.PointCost = available
			}
			q.Charged = total.Sub(discount)
		}
	}
	q.EarnPoints = r.Earned(q.Charged)
	return q
}

func (r Rates) Earned(charged decimal.Decimal) int {
	if !charged.IsPositive() || !r.PointsPerUnit.IsPositive() {
		return 0
	}
	return int(charged.Mul(r.PointsPerUnit).Floor().IntPart())
}
