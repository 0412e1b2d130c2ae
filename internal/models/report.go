package models

// RevenueStats is the reconciled aggregate shared by the summary, seller stats,
// comparison and seller detail reports.
type RevenueStats struct {
	Seller            string  `json:"seller,omitempty"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalAgent        float64 `json:"total_agent"`
	TotalCommission   float64 `json:"total_commission"`
	TotalOrders       int     `json:"total_orders"`
	AvgOrder          float64 `json:"avg_order"`
	TotalRefunds      float64 `json:"total_refunds"`
	AvgRefund         float64 `json:"avg_refund"`
	DirectSaleRefunds float64 `json:"direct_sale_refunds"`
}

// SellerCommission is a row of the top sellers report.
type SellerCommission struct {
	Seller       string  `json:"seller"`
	AgentAmount  float64 `json:"agent_amount"`
	SystemAmount float64 `json:"system_amount"`
	OrdersCount  int     `json:"orders_count"`
}

// AgentRow is a row of the all agents report.
type AgentRow struct {
	Seller       string  `json:"seller"`
	AgentAmount  float64 `json:"agent_amount"`
	SystemAmount float64 `json:"system_amount"`
	OrdersCount  int     `json:"orders_count"`
	TicketsCount int     `json:"tickets_count"`
	TotalRevenue float64 `json:"total_revenue"`
}

// DirectSaleRow is a row of the direct sales report.
type DirectSaleRow struct {
	Seller           string  `json:"seller"`
	DirectSales      float64 `json:"direct_sales"`
	SystemCommission float64 `json:"system_commission"`
	OrdersCount      int     `json:"orders_count"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// Dataset is one labeled series of a chart.
type Dataset struct {
	Label string    `json:"label,omitempty"`
	Data  []float64 `json:"data"`
}

// TimeSeries is a chart payload: one label per period and one or more datasets.
type TimeSeries struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Segment is one time-of-day bucket.
type Segment struct {
	Name    string  `json:"name"`
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// SegmentReport is the time-of-day segmentation payload.
type SegmentReport struct {
	Segments []Segment `json:"segments"`
	Total    int       `json:"total"`
}

// MonthlyStats is a row of the seller detail monthly table.
type MonthlyStats struct {
	Month      string  `json:"month"`
	Revenue    float64 `json:"revenue"`
	Agent      float64 `json:"agent"`
	Commission float64 `json:"commission"`
	Orders     int     `json:"orders"`
}

// EventBreakdown is a row of the per-event table of one seller.
type EventBreakdown struct {
	EventName    string  `json:"event_name"`
	TicketsCount int     `json:"tickets_count"`
	OrderAmount  float64 `json:"order_amount"`
	AgentAmount  float64 `json:"agent_amount"`
	SystemAmount float64 `json:"system_amount"`
}

// RefundStats counts refunded rows of a seller, full refunds included.
type RefundStats struct {
	TotalRefunds float64 `json:"total_refunds"`
	RefundCount  int     `json:"refund_count"`
}

// SellerDetail is the seller page payload.
type SellerDetail struct {
	SellerName      string           `json:"seller_name"`
	Stats           RevenueStats     `json:"stats"`
	Refunds         RefundStats      `json:"refunds"`
	MonthlyStats    []MonthlyStats   `json:"monthly_stats"`
	Trend           TimeSeries       `json:"trend"`
	Events          []EventBreakdown `json:"seller_events"`
	AvailableYears  []string         `json:"available_years"`
	AvailableEvents []string         `json:"available_events"`
	SelectedYear    string           `json:"selected_year"`
	SelectedEvents  []string         `json:"selected_events"`
	AllSellers      []string         `json:"all_sellers"`
}

// CompareRequest is the body of the seller comparison endpoint.
type CompareRequest struct {
	Sellers []string `json:"sellers" validate:"required,min=1,max=5,dive,required"`
}
