package sellerstats

// Options carries the pluggable strategies. A nil strategy falls back to the default unless
// RequireStrategies is set, in which case both must be supplied.
type Options struct {
	CalculateRevenue  RevenueFunc
	CalculateBonus    BonusFunc
	RequireStrategies bool
}

type validated struct {
	sellers  []Seller
	products []Product
	records  []PurchaseRecord
	revenue  RevenueFunc
	bonus    BonusFunc
}

func validate(data *Dataset, opts *Options) (validated, error) {
	if data == nil {
		return validated{}, inputError("data", "is required")
	}
	if err := checkCollection("sellers", data.Sellers == nil, len(data.Sellers)); err != nil {
		return validated{}, err
	}
	if err := checkCollection("products", data.Products == nil, len(data.Products)); err != nil {
		return validated{}, err
	}
	if err := checkCollection("purchase_records", data.PurchaseRecords == nil, len(data.PurchaseRecords)); err != nil {
		return validated{}, err
	}

	v := validated{
		sellers:  data.Sellers,
		products: data.Products,
		records:  data.PurchaseRecords,
		revenue:  SimpleRevenue,
		bonus:    TieredBonus,
	}
	if opts == nil {
		return v, nil
	}
	if opts.RequireStrategies {
		if opts.CalculateRevenue == nil {
			return validated{}, optionsError("calculateRevenue", "is required")
		}
		if opts.CalculateBonus == nil {
			return validated{}, optionsError("calculateBonus", "is required")
		}
	}
	if opts.CalculateRevenue != nil {
		v.revenue = opts.CalculateRevenue
	}
	if opts.CalculateBonus != nil {
		v.bonus = opts.CalculateBonus
	}
	return v, nil
}

func checkCollection(name string, missing bool, n int) error {
	if missing {
		return inputError(name, "is required")
	}
	if n == 0 {
		return inputError(name, "must not be empty")
	}
	return nil
}
