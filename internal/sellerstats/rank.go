package sellerstats

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// TopProductsLimit caps the number of products listed per seller.
const TopProductsLimit = 10

// rank orders the accumulators by profit descending and assigns bonuses. Equal profits keep
// their input order.
func rank(stats []*SellerStat, bonus BonusFunc) {
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Profit > stats[j].Profit
	})
	total := len(stats)
	for i, st := range stats {
		st.Bonus = bonus(i, total, *st)
	}
}

func topProducts(st *SellerStat) []ProductQuantity {
	out := make([]ProductQuantity, 0, len(st.skuOrder))
	for _, sku := range st.skuOrder {
		out = append(out, ProductQuantity{SKU: sku, Quantity: st.ProductsSold[sku]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity > out[j].Quantity
	})
	if len(out) > TopProductsLimit {
		out = out[:TopProductsLimit]
	}
	return out
}

func project(st *SellerStat) SellerReport {
	return SellerReport{
		SellerID:    st.ID,
		Name:        st.FullName(),
		Revenue:     Round2(st.Revenue),
		Profit:      Round2(st.Profit),
		SalesCount:  st.SalesCount,
		TopProducts: topProducts(st),
		Bonus:       Round2(st.Bonus),
	}
}

// Round2 rounds half away from zero to two decimal places using the value's shortest decimal
// representation. NaN and infinities are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// checkFinite rejects a run whose totals overflowed or whose bonus strategy produced NaN or an infinity.
func checkFinite(stats []*SellerStat) error {
	for i, st := range stats {
		field := fmt.Sprintf("sellers[%d] (id %q)", i, st.ID)
		switch {
		case !finite(st.Revenue):
			return &FieldError{Kind: ErrNumericOverflow, Field: field, Reason: "revenue is not a finite number"}
		case !finite(st.Profit):
			return &FieldError{Kind: ErrNumericOverflow, Field: field, Reason: "profit is not a finite number"}
		case !finite(st.Bonus):
			return &FieldError{Kind: ErrNumericOverflow, Field: field, Reason: "bonus is not a finite number"}
		}
	}
	return nil
}
