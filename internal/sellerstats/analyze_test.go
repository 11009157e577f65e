package sellerstats_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seller-analytics/internal/sellerstats"
)

func item(sku string, price float64, qty int, discount float64) sellerstats.PurchaseItem {
	return sellerstats.NewItem(sku, price, qty, discount)
}

func fixture() *sellerstats.Dataset {
	return &sellerstats.Dataset{
		Sellers: []sellerstats.Seller{
			{ID: "s1", FirstName: "Ann", LastName: "Lee"},
			{ID: "s2", FirstName: "Bob", LastName: "Stone"},
			{ID: "s3"},
		},
		Products: []sellerstats.Product{
			{SKU: "A", PurchasePrice: 10},
			{SKU: "B", PurchasePrice: 20},
			{SKU: "C", PurchasePrice: 5},
		},
		PurchaseRecords: []sellerstats.PurchaseRecord{
			{SellerID: "s1", TotalAmount: 300, TotalDiscount: 20, Items: []sellerstats.PurchaseItem{
				item("A", 50, 2, 0),
				item("B", 100, 1, 10),
			}},
			{SellerID: "s2", TotalAmount: 500, Items: []sellerstats.PurchaseItem{
				item("C", 100, 5, 0),
			}},
			{SellerID: "s1", TotalAmount: 120, Items: []sellerstats.PurchaseItem{
				item("A", 60, 2, 0),
			}},
			{SellerID: "ghost", TotalAmount: 999, Items: []sellerstats.PurchaseItem{
				item("A", 1, 1, 0),
			}},
			{SellerID: "s2", TotalAmount: 40, Items: []sellerstats.PurchaseItem{
				item("ZZZ", 40, 1, 0),
			}},
		},
	}
}

func TestAnalyzeGolden(t *testing.T) {
	res, err := sellerstats.Analyze(fixture(), nil)
	require.NoError(t, err)

	require.Equal(t, []sellerstats.SellerReport{
		{
			SellerID:    "s2",
			Name:        "Bob Stone",
			Revenue:     540,
			Profit:      475,
			SalesCount:  2,
			TopProducts: []sellerstats.ProductQuantity{{SKU: "C", Quantity: 5}},
			Bonus:       71.25,
		},
		{
			SellerID:    "s1",
			Name:        "Ann Lee",
			Revenue:     400,
			Profit:      250,
			SalesCount:  2,
			TopProducts: []sellerstats.ProductQuantity{{SKU: "A", Quantity: 4}, {SKU: "B", Quantity: 1}},
			Bonus:       25,
		},
		{
			SellerID:    "s3",
			Name:        "",
			TopProducts: []sellerstats.ProductQuantity{},
		},
	}, res.Reports)

	require.Equal(t, []sellerstats.Warning{
		{Kind: sellerstats.WarnUnknownSeller, Record: 3, Item: -1, SellerID: "ghost"},
		{Kind: sellerstats.WarnUnknownProduct, Record: 4, Item: 0, SellerID: "s2", SKU: "ZZZ"},
	}, res.Warnings)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	first, err := sellerstats.Analyze(fixture(), nil)
	require.NoError(t, err)
	second, err := sellerstats.Analyze(fixture(), nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAnalyzeReportsEverySeller(t *testing.T) {
	data := fixture()
	data.Sellers = append(data.Sellers, sellerstats.Seller{ID: "s4", FirstName: "Dee"}, sellerstats.Seller{ID: "s5", LastName: "Eve"})
	res, err := sellerstats.Analyze(data, nil)
	require.NoError(t, err)
	require.Len(t, res.Reports, len(data.Sellers))

	for i := 1; i < len(res.Reports); i++ {
		require.GreaterOrEqual(t, res.Reports[i-1].Profit, res.Reports[i].Profit)
	}
	byID := map[string]sellerstats.SellerReport{}
	for _, r := range res.Reports {
		byID[r.SellerID] = r
	}
	require.Equal(t, "Dee", byID["s4"].Name)
	require.Equal(t, "Eve", byID["s5"].Name)
	require.Zero(t, byID["s4"].Bonus)
	require.Zero(t, byID["s4"].SalesCount)
}

func TestAnalyzeTieKeepsInputOrder(t *testing.T) {
	build := func(ids ...string) *sellerstats.Dataset {
		profit := map[string]float64{"a": 100, "b": 300, "c": 100, "d": 100}
		data := &sellerstats.Dataset{Products: []sellerstats.Product{{SKU: "P"}}}
		for _, id := range ids {
			data.Sellers = append(data.Sellers, sellerstats.Seller{ID: id})
			data.PurchaseRecords = append(data.PurchaseRecords, sellerstats.PurchaseRecord{
				SellerID: id,
				Items:    []sellerstats.PurchaseItem{item("P", profit[id], 1, 0)},
			})
		}
		return data
	}

	t.Run("a before d", func(t *testing.T) {
		res, err := sellerstats.Analyze(build("a", "b", "c", "d"), nil)
		require.NoError(t, err)
		require.Equal(t, []string{"b", "a", "c", "d"}, ids(res))
		require.Equal(t, []float64{45, 10, 10, 0}, bonuses(res))
	})

	t.Run("d before a", func(t *testing.T) {
		res, err := sellerstats.Analyze(build("d", "b", "c", "a"), nil)
		require.NoError(t, err)
		require.Equal(t, []string{"b", "d", "c", "a"}, ids(res))
		require.Equal(t, []float64{45, 10, 10, 0}, bonuses(res))
	})
}

func TestAnalyzeTopProductsCapAndTies(t *testing.T) {
	first := sellerstats.PurchaseRecord{SellerID: "s1"}
	data := &sellerstats.Dataset{Sellers: []sellerstats.Seller{{ID: "s1"}}}
	for i := 1; i <= 12; i++ {
		sku := fmt.Sprintf("S%02d", i)
		data.Products = append(data.Products, sellerstats.Product{SKU: sku})
		first.Items = append(first.Items, item(sku, 1, 1, 0))
	}
	second := sellerstats.PurchaseRecord{SellerID: "s1", Items: []sellerstats.PurchaseItem{
		item("S09", 1, 2, 0),
		item("S05", 1, 2, 0),
		item("S01", 1, 1, 0),
	}}
	data.PurchaseRecords = []sellerstats.PurchaseRecord{first, second}

	res, err := sellerstats.Analyze(data, nil)
	require.NoError(t, err)
	top := res.Reports[0].TopProducts
	require.Len(t, top, sellerstats.TopProductsLimit)

	var skus []string
	for _, p := range top {
		skus = append(skus, p.SKU)
	}
	require.Equal(t, []string{"S05", "S09", "S01", "S02", "S03", "S04", "S06", "S07", "S08", "S10"}, skus)
	require.Equal(t, 3, top[0].Quantity)
	require.Equal(t, 2, top[2].Quantity)
}

func TestAnalyzeRoundsOutput(t *testing.T) {
	data := &sellerstats.Dataset{
		Sellers:  []sellerstats.Seller{{ID: "s1"}},
		Products: []sellerstats.Product{{SKU: "A", PurchasePrice: 0.333}},
		PurchaseRecords: []sellerstats.PurchaseRecord{
			{SellerID: "s1", TotalAmount: 10.005, Items: []sellerstats.PurchaseItem{item("A", 3.3333, 3, 0)}},
		},
	}
	res, err := sellerstats.Analyze(data, nil)
	require.NoError(t, err)
	r := res.Reports[0]
	require.Equal(t, 10.01, r.Revenue)
	require.Equal(t, 9.00, r.Profit)
	require.Equal(t, 1.35, r.Bonus)
}

func TestAnalyzeValidation(t *testing.T) {
	t.Run("nil data", func(t *testing.T) {
		_, err := sellerstats.Analyze(nil, nil)
		require.ErrorIs(t, err, sellerstats.ErrInvalidInput)
	})

	t.Run("empty products", func(t *testing.T) {
		data := fixture()
		data.Products = []sellerstats.Product{}
		_, err := sellerstats.Analyze(data, nil)
		require.ErrorIs(t, err, sellerstats.ErrInvalidInput)
		var fe *sellerstats.FieldError
		require.True(t, errors.As(err, &fe))
		require.Equal(t, "products", fe.Field)
	})

	t.Run("missing sellers", func(t *testing.T) {
		data := fixture()
		data.Sellers = nil
		_, err := sellerstats.Analyze(data, nil)
		require.ErrorIs(t, err, sellerstats.ErrInvalidInput)
		require.Contains(t, err.Error(), "sellers is required")
	})

	t.Run("empty purchase records", func(t *testing.T) {
		data := fixture()
		data.PurchaseRecords = []sellerstats.PurchaseRecord{}
		_, err := sellerstats.Analyze(data, nil)
		require.ErrorIs(t, err, sellerstats.ErrInvalidInput)
	})

	t.Run("strict options without bonus", func(t *testing.T) {
		_, err := sellerstats.Analyze(fixture(), &sellerstats.Options{
			CalculateRevenue:  sellerstats.SimpleRevenue,
			RequireStrategies: true,
		})
		require.ErrorIs(t, err, sellerstats.ErrInvalidOptions)
	})

	t.Run("strict options satisfied", func(t *testing.T) {
		res, err := sellerstats.Analyze(fixture(), &sellerstats.Options{
			CalculateRevenue:  sellerstats.SimpleRevenue,
			CalculateBonus:    sellerstats.TieredBonus,
			RequireStrategies: true,
		})
		require.NoError(t, err)
		require.Len(t, res.Reports, 3)
	})
}

func TestAnalyzeAbortsOnInvalidItem(t *testing.T) {
	data := fixture()
	data.PurchaseRecords[2].Items = append(data.PurchaseRecords[2].Items, item("B", 10, -1, 0))
	res, err := sellerstats.Analyze(data, nil)
	require.ErrorIs(t, err, sellerstats.ErrInvalidItem)
	require.Nil(t, res)
	require.Contains(t, err.Error(), `purchase record 2 item 1 (sku "B")`)
}

func TestAnalyzeSkipsMalformedItemForUnknownProduct(t *testing.T) {
	data := fixture()
	data.PurchaseRecords[0].Items = append(data.PurchaseRecords[0].Items, item("NOPE", -5, -1, 0))
	res, err := sellerstats.Analyze(data, nil)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 3)
}

func TestAnalyzeCustomStrategies(t *testing.T) {
	boom := errors.New("boom")
	lenient := func(it sellerstats.PurchaseItem, _ sellerstats.Product) (float64, error) {
		if it.SKU == "FAIL" {
			return 0, boom
		}
		return *it.SalePrice * float64(it.Qty()), nil
	}
	flat := func(int, int, sellerstats.SellerStat) float64 { return 1 }

	data := fixture()
	data.PurchaseRecords[0].Items = append(data.PurchaseRecords[0].Items, item("A", 10, -1, 0))
	res, err := sellerstats.Analyze(data, &sellerstats.Options{CalculateRevenue: lenient, CalculateBonus: flat})
	require.NoError(t, err)
	for _, r := range res.Reports {
		require.Equal(t, 1.0, r.Bonus)
	}

	data = fixture()
	data.Products = append(data.Products, sellerstats.Product{SKU: "FAIL"})
	data.PurchaseRecords[1].Items = append(data.PurchaseRecords[1].Items, item("FAIL", 1, 1, 0))
	_, err = sellerstats.Analyze(data, &sellerstats.Options{CalculateRevenue: lenient})
	require.ErrorIs(t, err, boom)
}

func TestAnalyzeDuplicateSellerIDs(t *testing.T) {
	data := &sellerstats.Dataset{
		Sellers: []sellerstats.Seller{
			{ID: "s1", FirstName: "Old"},
			{ID: "s1", FirstName: "New"},
		},
		Products: []sellerstats.Product{{SKU: "A", PurchasePrice: 1}, {SKU: "A", PurchasePrice: 2}},
		PurchaseRecords: []sellerstats.PurchaseRecord{
			{SellerID: "s1", TotalAmount: 10, Items: []sellerstats.PurchaseItem{item("A", 10, 1, 0)}},
		},
	}
	res, err := sellerstats.Analyze(data, nil)
	require.NoError(t, err)
	require.Len(t, res.Reports, 2)
	require.Equal(t, "New", res.Reports[0].Name)
	require.Equal(t, 8.0, res.Reports[0].Profit)
	require.Equal(t, 1, res.Reports[0].SalesCount)
	require.Equal(t, "Old", res.Reports[1].Name)
	require.Zero(t, res.Reports[1].SalesCount)
}

func ids(res *sellerstats.Result) []string {
	out := make([]string, 0, len(res.Reports))
	for _, r := range res.Reports {
		out = append(out, r.SellerID)
	}
	return out
}

func bonuses(res *sellerstats.Result) []float64 {
	out := make([]float64, 0, len(res.Reports))
	for _, r := range res.Reports {
		out = append(out, r.Bonus)
	}
	return out
}

func TestAnalyzeRejectsOverflowingItemRevenue(t *testing.T) {
	data := fixture()
	data.PurchaseRecords[1].Items = append(data.PurchaseRecords[1].Items, item("C", 1e308, 10, 0))
	res, err := sellerstats.Analyze(data, nil)
	require.ErrorIs(t, err, sellerstats.ErrInvalidItem)
	require.Nil(t, res)
	require.Contains(t, err.Error(), `purchase record 1 item 1 (sku "C")`)
}

func TestAnalyzeRejectsNonFiniteTotals(t *testing.T) {
	data := fixture()
	data.Products[2].PurchasePrice = 1e308
	res, err := sellerstats.Analyze(data, nil)
	require.ErrorIs(t, err, sellerstats.ErrNumericOverflow)
	require.Nil(t, res)
	require.Contains(t, err.Error(), `id "s2"`)

	data = fixture()
	data.PurchaseRecords[0].TotalAmount = math.MaxFloat64
	data.PurchaseRecords[2].TotalAmount = math.MaxFloat64
	_, err = sellerstats.Analyze(data, nil)
	require.ErrorIs(t, err, sellerstats.ErrNumericOverflow)
	require.Contains(t, err.Error(), "revenue")
}

func TestAnalyzeRejectsNonFiniteCustomStrategies(t *testing.T) {
	nanRevenue := func(sellerstats.PurchaseItem, sellerstats.Product) (float64, error) { return math.NaN(), nil }
	_, err := sellerstats.Analyze(fixture(), &sellerstats.Options{CalculateRevenue: nanRevenue})
	require.ErrorIs(t, err, sellerstats.ErrInvalidItem)

	infBonus := func(int, int, sellerstats.SellerStat) float64 { return math.Inf(1) }
	_, err = sellerstats.Analyze(fixture(), &sellerstats.Options{CalculateBonus: infBonus})
	require.ErrorIs(t, err, sellerstats.ErrNumericOverflow)
	require.Contains(t, err.Error(), "bonus")
}
