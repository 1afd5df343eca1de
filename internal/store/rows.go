package store

// ListFilter narrows the transaction listing. Category and gender match
// case-insensitively against the whole field value; Fraud is nil for "any"
// or points at 0/1.
type ListFilter struct {
	Category string
	Gender   string
	Fraud    *int
	Limit    int64
	Offset   int64
}

// SummaryRow is the collection-wide aggregate returned by /summary.
type SummaryRow struct {
	TotalTransactions int64   `bson:"total_transactions" json:"total_transactions"`
	TotalAmount       float64 `bson:"total_amount" json:"total_amount"`
	FraudCases        int64   `bson:"fraud_cases" json:"fraud_cases"`
	UniqueCustomers   int64   `bson:"unique_customers" json:"unique_customers"`
}

// CategorySpendRow is total spend per merchant category.
type CategorySpendRow struct {
	Category string  `bson:"category" json:"category"`
	Amount   float64 `bson:"amount" json:"amount"`
}

// FraudTrendRow is the fraud count at one time step.
type FraudTrendRow struct {
	Step  int   `bson:"step" json:"step"`
	Fraud int64 `bson:"fraud" json:"fraud"`
}

// GenderAmountRow is spend and volume per gender bucket.
type GenderAmountRow struct {
	Gender string  `bson:"gender" json:"gender"`
	Amount float64 `bson:"amount" json:"amount"`
	Count  int64   `bson:"count" json:"count"`
}

// CategoryFraudRow is fraud volume and rate per category.
type CategoryFraudRow struct {
	Category   string  `bson:"category" json:"category"`
	FraudCount int64   `bson:"fraud_count" json:"fraud_count"`
	FraudRate  float64 `bson:"fraud_rate" json:"fraud_rate"`
}

// CategoryAvgRow is the average transaction amount per category.
type CategoryAvgRow struct {
	Category  string  `bson:"category" json:"category"`
	AvgAmount float64 `bson:"avg_amount" json:"avg_amount"`
	Count     int64   `bson:"count" json:"count"`
}

// MerchantRow is spend and volume for one merchant.
type MerchantRow struct {
	Merchant string  `bson:"merchant" json:"merchant"`
	Amount   float64 `bson:"amount" json:"amount"`
	Count    int64   `bson:"count" json:"count"`
}

// HistogramBin is one bucket of the amount histogram. BinMin/BinMax are only
// populated in quantile mode; the fast equal-width mode reports just the
// bucket midpoint.
type HistogramBin struct {
	BinMin *float64 `bson:"bin_min,omitempty" json:"bin_min,omitempty"`
	BinMax *float64 `bson:"bin_max,omitempty" json:"bin_max,omitempty"`
	Mid    float64  `bson:"mid" json:"mid"`
	Count  int64    `bson:"count" json:"count"`
}

// HistogramMode selects the amount-histogram bucketing strategy.
const (
	HistogramFast     = "fast"     // equal-width bins, one cheap pass
	HistogramQuantile = "quantile" // $bucketAuto, readable for skewed data
)
