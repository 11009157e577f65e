package sellerstats

import "math"

// RevenueFunc computes the net revenue contributed by one line item.
type RevenueFunc func(item PurchaseItem, product Product) (float64, error)

// BonusFunc computes the bonus for the seller at the given zero-based profit rank.
type BonusFunc func(rank, total int, seller SellerStat) float64

const (
	topBonusRate    = 0.15
	podiumBonusRate = 0.10
	baseBonusRate   = 0.05
)

// SimpleRevenue is the default revenue strategy: sale_price * quantity reduced by the percentage discount.
func SimpleRevenue(item PurchaseItem, _ Product) (float64, error) {
	if item.SalePrice == nil {
		return 0, itemError("sale_price", "is required")
	}
	if item.Quantity == nil {
		return 0, itemError("quantity", "is required")
	}
	price := *item.SalePrice
	qty := *item.Quantity
	discount := 0.0
	if item.Discount != nil {
		discount = *item.Discount
	}
	if !finite(price) {
		return 0, itemError("sale_price", "must be a finite number")
	}
	if price < 0 {
		return 0, itemError("sale_price", "must not be negative")
	}
	if qty <= 0 {
		return 0, itemError("quantity", "must be positive")
	}
	if !finite(discount) || discount < 0 || discount > 100 {
		return 0, itemError("discount", "must be between 0 and 100")
	}
	return price * float64(qty) * (1 - discount/100), nil
}

// TieredBonus is the default bonus strategy. The top seller earns 15% of profit, ranks 1 and 2
// earn 10%, the last seller earns nothing and everyone else earns 5%. Sellers without positive
// profit never earn a bonus.
func TieredBonus(rank, total int, seller SellerStat) float64 {
	if total <= 0 || rank < 0 || rank >= total {
		return 0
	}
	profit := seller.Profit
	if profit <= 0 {
		return 0
	}
	switch {
	case rank == 0:
		return profit * topBonusRate
	case rank == 1 || rank == 2:
		return profit * podiumBonusRate
	case rank == total-1:
		return 0
	default:
		return profit * baseBonusRate
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
