package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// HourColumn is a precomputed hour-of-day column that can be segmented.
type HourColumn string

const (
	BookingHour HourColumn = "booking_hour"
	FlightHour  HourColumn = "flight_hour"
)

// Bucket is a half-open hour range [From, To). When From > To the range
// wraps past midnight.
type Bucket struct {
	Name  string
	Color string
	From  int
	To    int
}

// DaySegments are the fixed time-of-day buckets. Every hour falls in exactly one.
var DaySegments = []Bucket{
	{Name: "Утро (06:00-12:00)", Color: "#FFA07A", From: 6, To: 12},
	{Name: "День (12:00-18:00)", Color: "#45B7D1", From: 12, To: 18},
	{Name: "Вечер (18:00-00:00)", Color: "#9966FF", From: 18, To: 6},
}

// Contains reports whether hour belongs to the bucket.
func (b Bucket) Contains(hour int) bool {
	if b.From < b.To {
		return hour >= b.From && hour < b.To
	}
	return hour >= b.From || hour < b.To
}

// Column returns the bucket count expression over col.
func (b Bucket) Column(alias string, col HourColumn) Column {
	var cond string
	if b.From < b.To {
		cond = fmt.Sprintf("%s >= ? AND %s < ?", col, col)
	} else {
		cond = fmt.Sprintf("%s >= ? OR %s < ?", col, col)
	}
	return Column{
		Alias: alias,
		Expr:  "COALESCE(SUM(CASE WHEN " + cond + " THEN 1 ELSE 0 END), 0)",
		Args:  []interface{}{b.From, b.To},
	}
}

// Percentages returns each count as a share of the total, rounded to one decimal.
// A zero total yields zero shares.
func Percentages(counts []int) (int, []float64) {
	total := 0
	for _, c := range counts {
		total += c
	}
	shares := make([]float64, len(counts))
	if total == 0 {
		return 0, shares
	}
	hundred := decimal.NewFromInt(100)
	denom := decimal.NewFromInt(int64(total))
	for i, c := range counts {
		shares[i] = decimal.NewFromInt(int64(c)).Mul(hundred).Div(denom).Round(1).InexactFloat64()
	}
	return total, shares
}
