// internal/models/sales.go
package models

type ProductSales struct {
	Name  string `json:"name"`
	Sales int64  `json:"sales"`
}

// SalesSummary is the brand's sales total for one month.
type SalesSummary struct {
	Month    string         `json:"month"`
	Total    int64          `json:"total"`
	Products []ProductSales `json:"products"`
}

// ProductDelta compares one product across the two most recent months.
// ChangePct is nil when the previous value is zero.
type ProductDelta struct {
	Name      string   `json:"name"`
	Previous  int64    `json:"previous"`
	Current   int64    `json:"current"`
	ChangeAbs int64    `json:"changeAbs"`
	ChangePct *float64 `json:"changePct"`
}

type SalesDelta struct {
	CurrentMonth  string         `json:"currentMonth"`
	PreviousMonth string         `json:"previousMonth"`
	Current       int64          `json:"current"`
	Previous      int64          `json:"previous"`
	ChangeAbs     int64          `json:"changeAbs"`
	ChangePct     *float64       `json:"changePct"`
	Products      []ProductDelta `json:"products,omitempty"`
}
