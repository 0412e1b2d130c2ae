package ledger

import (
	"github.com/shopspring/decimal"

	"ms-reporting/internal/models"
)

// Sums holds the raw conditioned sums of one group of ledger rows. The store
// fills it from SQL, SumRecords fills it in memory; both use SumColumns.
type Sums struct {
	Seller    string `bun:"seller"`
	EventName string `bun:"event_name"`
	Year      int    `bun:"year"`
	Month     int    `bun:"month"`

	GrossAmount            float64 `bun:"gross_amount"`
	RefundedAmount         float64 `bun:"refunded_amount"`
	PassThroughAmount      float64 `bun:"passthrough_amount"`
	DirectSaleRefundAmount float64 `bun:"direct_sale_refund_amount"`
	AgentAmount            float64 `bun:"agent_amount"`
	SystemAmount           float64 `bun:"system_amount"`
	OrganizerAmount        float64 `bun:"organizer_amount"`
	RefundSum              float64 `bun:"refund_sum"`

	Tickets            int `bun:"tickets_total"`
	RefundedTickets    int `bun:"refunded_tickets"`
	PassThroughTickets int `bun:"passthrough_tickets"`
	DirectSaleTickets  int `bun:"direct_sale_tickets"`
	RefundCount        int `bun:"refund_count"`
	DistinctOrders     int `bun:"distinct_orders"`
	Rows               int `bun:"row_count"`

	orders map[string]struct{}
}

// Column is one aggregate select expression.
type Column struct {
	Alias string
	Expr  string
	Args  []interface{}
}

// Money sums use a REAL zero so an empty or unmatched group still scans as a
// float on SQLite; count sums keep the integer zero.
const (
	moneyZero = "0.0"
	countZero = "0"
)

func sumIf(alias, column, zero string, p Predicate) Column {
	return Column{
		Alias: alias,
		Expr:  "COALESCE(SUM(CASE WHEN " + p.SQL + " THEN " + column + " ELSE " + zero + " END), " + zero + ")",
		Args:  p.Args,
	}
}

func sum(alias, column, zero string) Column {
	return Column{Alias: alias, Expr: "COALESCE(SUM(" + column + "), " + zero + ")"}
}

// SumColumns lists the aggregate expressions that populate Sums.
func SumColumns() []Column {
	return []Column{
		sum("gross_amount", "order_amount", moneyZero),
		sumIf("refunded_amount", "refund_amount", moneyZero, Refunded),
		sumIf("passthrough_amount", "order_amount", moneyZero, ZeroCommissionPassThrough),
		sumIf("direct_sale_refund_amount", "refund_amount", moneyZero, DirectSaleRefund),
		sum("agent_amount", "agent_amount", moneyZero),
		sum("system_amount", "system_amount", moneyZero),
		sum("organizer_amount", "organizer_amount", moneyZero),
		sumIf("refund_sum", "refund_amount", moneyZero, RefundedWithAmount),
		sum("tickets_total", "tickets_count", countZero),
		sumIf("refunded_tickets", "tickets_count", countZero, Refunded),
		sumIf("passthrough_tickets", "tickets_count", countZero, ZeroCommissionPassThrough),
		sumIf("direct_sale_tickets", "tickets_count", countZero, DirectSale),
		sumIf("refund_count", "1", countZero, RefundedWithAmount),
		{Alias: "distinct_orders", Expr: "COUNT(DISTINCT order_id)"},
		{Alias: "row_count", Expr: "COUNT(*)"},
	}
}

// Add accumulates one record into the sums.
func (s *Sums) Add(r *models.TicketRecord) {
	s.GrossAmount += r.OrderAmount
	s.AgentAmount += r.AgentAmount
	s.SystemAmount += r.SystemAmount
	s.OrganizerAmount += r.OrganizerAmt
	s.Tickets += r.TicketsCount
	s.Rows++

	if Refunded.Match(r) {
		s.RefundedAmount += r.RefundAmount
		s.RefundedTickets += r.TicketsCount
	}
	if ZeroCommissionPassThrough.Match(r) {
		s.PassThroughAmount += r.OrderAmount
		s.PassThroughTickets += r.TicketsCount
	}
	if DirectSaleRefund.Match(r) {
		s.DirectSaleRefundAmount += r.RefundAmount
	}
	if DirectSale.Match(r) {
		s.DirectSaleTickets += r.TicketsCount
	}
	if RefundedWithAmount.Match(r) {
		s.RefundSum += r.RefundAmount
		s.RefundCount++
	}

	if s.orders == nil {
		s.orders = make(map[string]struct{})
	}
	s.orders[r.OrderID] = struct{}{}
	s.DistinctOrders = len(s.orders)
}

// SumRecords aggregates the records admitted by filter and policy into one group.
// It is the in-memory twin of SumColumns, used to check the store against the rules.
func SumRecords(records []models.TicketRecord, f Filter, p Policy) Sums {
	var s Sums
	for i := range records {
		r := &records[i]
		if !p.Admits(r) || !f.Match(r) {
			continue
		}
		s.Add(r)
	}
	return s
}

// Totals is the reconciled result of one group.
type Totals struct {
	NetRevenue        decimal.Decimal
	AgentCommission   decimal.Decimal
	SystemCommission  decimal.Decimal
	OrderCount        int
	AverageOrderValue decimal.Decimal
	TotalRefunds      decimal.Decimal
	AverageRefund     decimal.Decimal
	DirectSaleRefunds decimal.Decimal
}

// Reconcile derives net revenue, commissions, order counts and refund figures
// from raw sums. Averages over an empty population are zero.
func Reconcile(s Sums, p Policy) Totals {
	gross := decimal.NewFromFloat(s.GrossAmount)
	refunded := decimal.NewFromFloat(s.RefundedAmount)
	passThrough := decimal.NewFromFloat(s.PassThroughAmount)
	directRefunds := decimal.NewFromFloat(s.DirectSaleRefundAmount)

	net := gross.Sub(refunded).Sub(passThrough)
	if p.DeductDirectSaleRefunds {
		net = net.Sub(directRefunds)
	}
	refunds := refunded
	if p.SeparateDirectSaleRefunds {
		refunds = refunds.Sub(directRefunds)
	}

	t := Totals{
		NetRevenue:        net,
		AgentCommission:   decimal.NewFromFloat(s.AgentAmount),
		SystemCommission:  decimal.NewFromFloat(s.SystemAmount),
		OrderCount:        s.Tickets - s.RefundedTickets - s.PassThroughTickets - s.DirectSaleTickets,
		AverageOrderValue: decimal.Zero,
		TotalRefunds:      refunds,
		AverageRefund:     decimal.Zero,
		DirectSaleRefunds: directRefunds,
	}
	if s.DistinctOrders > 0 {
		t.AverageOrderValue = net.Div(decimal.NewFromInt(int64(s.DistinctOrders)))
	}
	if s.RefundCount > 0 {
		t.AverageRefund = decimal.NewFromFloat(s.RefundSum).Div(decimal.NewFromInt(int64(s.RefundCount)))
	}
	return t
}

// Money rounds a currency amount to kopecks for the response payload.
func Money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// RoundMoney rounds a raw store sum the same way.
func RoundMoney(v float64) float64 {
	return Money(decimal.NewFromFloat(v))
}

// Stats renders totals as the shared revenue payload.
func (t Totals) Stats(seller string) models.RevenueStats {
	return models.RevenueStats{
		Seller:            seller,
		TotalRevenue:      Money(t.NetRevenue),
		TotalAgent:        Money(t.AgentCommission),
		TotalCommission:   Money(t.SystemCommission),
		TotalOrders:       t.OrderCount,
		AvgOrder:          Money(t.AverageOrderValue),
		TotalRefunds:      Money(t.TotalRefunds),
		AvgRefund:         Money(t.AverageRefund),
		DirectSaleRefunds: Money(t.DirectSaleRefunds),
	}
}
