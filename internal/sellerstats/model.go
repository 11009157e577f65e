package sellerstats

import "strings"

// Seller is a salesperson referenced by purchase records.
type Seller struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName joins first and last name with a single space and trims the result.
func (s Seller) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Product carries the unit cost basis for a SKU.
type Product struct {
	SKU           string  `json:"sku"`
	PurchasePrice float64 `json:"purchase_price"`
}

// PurchaseItem is a single line within a purchase record. Pointer fields are nil when the
// value was absent from the input.
type PurchaseItem struct {
	SKU       string   `json:"sku"`
	SalePrice *float64 `json:"sale_price"`
	Quantity  *int     `json:"quantity"`
	Discount  *float64 `json:"discount"`
}

// NewItem builds a fully populated line item.
func NewItem(sku string, salePrice float64, quantity int, discount float64) PurchaseItem {
	return PurchaseItem{SKU: sku, SalePrice: &salePrice, Quantity: &quantity, Discount: &discount}
}

// Qty returns the item quantity, or zero when absent.
func (i PurchaseItem) Qty() int {
	if i.Quantity == nil {
		return 0
	}
	return *i.Quantity
}

// PurchaseRecord is one checkout owned by a seller.
type PurchaseRecord struct {
	SellerID      string         `json:"seller_id"`
	TotalAmount   float64        `json:"total_amount"`
	TotalDiscount float64        `json:"total_discount"`
	Items         []PurchaseItem `json:"items"`
}

// Dataset groups the three input collections of a report run.
type Dataset struct {
	Sellers         []Seller         `json:"sellers"`
	Products        []Product        `json:"products"`
	PurchaseRecords []PurchaseRecord `json:"purchase_records"`
}

// SellerStat accumulates a seller's totals while purchase records are folded in.
type SellerStat struct {
	Seller
	SalesCount   int
	Revenue      float64
	Profit       float64
	Bonus        float64
	ProductsSold map[string]int

	// skus in first-seen order, used to break quantity ties deterministically.
	skuOrder []string
}

func newSellerStat(s Seller) *SellerStat {
	return &SellerStat{Seller: s, ProductsSold: make(map[string]int)}
}

func (st *SellerStat) addSold(sku string, qty int) {
	if _, ok := st.ProductsSold[sku]; !ok {
		st.skuOrder = append(st.skuOrder, sku)
	}
	st.ProductsSold[sku] += qty
}

// ProductQuantity pairs a SKU with the quantity a seller sold of it.
type ProductQuantity struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// SellerReport is the projected, rounded output row for one seller.
type SellerReport struct {
	SellerID    string            `json:"seller_id"`
	Name        string            `json:"name"`
	Revenue     float64           `json:"revenue"`
	Profit      float64           `json:"profit"`
	SalesCount  int               `json:"sales_count"`
	TopProducts []ProductQuantity `json:"top_products"`
	Bonus       float64           `json:"bonus"`
}

// Result is the outcome of a successful Analyze call. Reports are ordered by profit descending.
type Result struct {
	Reports  []SellerReport `json:"reports"`
	Warnings []Warning      `json:"warnings"`
}
