package sellerstats

import "fmt"

// aggregation owns the per-seller accumulators for a single run.
type aggregation struct {
	stats    []*SellerStat
	sellers  map[string]*SellerStat
	products map[string]Product
	warnings []Warning
}

// index creates one accumulator per input seller. Duplicate ids and skus resolve to the last entry.
func index(sellers []Seller, products []Product) *aggregation {
	agg := &aggregation{
		stats:    make([]*SellerStat, 0, len(sellers)),
		sellers:  make(map[string]*SellerStat, len(sellers)),
		products: make(map[string]Product, len(products)),
	}
	for _, s := range sellers {
		st := newSellerStat(s)
		agg.stats = append(agg.stats, st)
		agg.sellers[s.ID] = st
	}
	for _, p := range products {
		agg.products[p.SKU] = p
	}
	return agg
}

// fold applies every purchase record in order. A revenue strategy error aborts the run.
func (a *aggregation) fold(records []PurchaseRecord, revenue RevenueFunc) error {
	for ri, rec := range records {
		st, ok := a.sellers[rec.SellerID]
		if !ok {
			a.warnings = append(a.warnings, Warning{Kind: WarnUnknownSeller, Record: ri, Item: -1, SellerID: rec.SellerID})
			continue
		}
		st.SalesCount++
		st.Revenue += rec.TotalAmount - rec.TotalDiscount

		for ii, item := range rec.Items {
			product, ok := a.products[item.SKU]
			if !ok {
				a.warnings = append(a.warnings, Warning{Kind: WarnUnknownProduct, Record: ri, Item: ii, SellerID: rec.SellerID, SKU: item.SKU})
				continue
			}
			itemRevenue, err := revenue(item, product)
			if err != nil {
				return fmt.Errorf("purchase record %d item %d (sku %q): %w", ri, ii, item.SKU, err)
			}
			if !finite(itemRevenue) {
				return fmt.Errorf("purchase record %d item %d (sku %q): %w", ri, ii, item.SKU, itemError("revenue", "must be a finite number"))
			}
			cost := product.PurchasePrice * float64(item.Qty())
			st.Profit += itemRevenue - cost
			st.addSold(item.SKU, item.Qty())
		}
	}
	return nil
}
