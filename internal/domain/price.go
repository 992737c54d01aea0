package domain

// Supported lookback windows, in days.
const (
	RangeWeek    = 7
	RangeMonth   = 30
	RangeQuarter = 90

	DefaultRange = RangeQuarter
)

// AllowedRanges is the closed set a range parameter may resolve to.
var AllowedRanges = []int{RangeWeek, RangeMonth, RangeQuarter}

// PriceRow is one day of aggregated market data.
type PriceRow struct {
	Date      string  `json:"date"`
	PriceUSD  float64 `json:"price_usd"`
	VolumeUSD float64 `json:"volume_usd"`
}

// PricesResponse is the success envelope of GET /crypto.
type PricesResponse struct {
	Data []PriceRow `json:"data"`
}

// ErrorResponse is the failure envelope of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}
