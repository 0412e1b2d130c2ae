package models

import (
	"github.com/uptrace/bun"
)

// TicketRecord is one order line of the ticket-sales ledger.
// Several records may share an OrderID. Year, Month, BookingHour and FlightHour
// are derived at import time from OrderDate, OrderTime and EventTime.
type TicketRecord struct {
	bun.BaseModel `bun:"table:tickets"`

	ID             int64   `bun:"id,pk,autoincrement" json:"id"`
	RowHash        string  `bun:"row_hash,unique" json:"-"`
	OrderID        string  `bun:"order_id" json:"order_id"`
	OrderDate      string  `bun:"order_date" json:"order_date"`
	OrderTime      string  `bun:"order_time" json:"order_time"`
	ClientName     string  `bun:"client_name" json:"client_name"`
	ClientEmail    string  `bun:"client_email" json:"client_email"`
	ClientPhone    string  `bun:"client_phone" json:"client_phone"`
	EventName      string  `bun:"event_name" json:"event_name"`
	EventDate      string  `bun:"event_date" json:"event_date"`
	EventTime      string  `bun:"event_time" json:"event_time"`
	Organizer      string  `bun:"organizer" json:"organizer"`
	Seller         string  `bun:"seller" json:"seller"`
	TicketsCount   int     `bun:"tickets_count" json:"tickets_count"`
	OrderAmount    float64 `bun:"order_amount" json:"order_amount"`
	DiscountCode   string  `bun:"discount_code" json:"discount_code"`
	DiscountAmount float64 `bun:"discount_amount" json:"discount_amount"`
	AgentPercent   float64 `bun:"agent_percent" json:"agent_percent"`
	SystemPercent  float64 `bun:"system_percent" json:"system_percent"`
	OrganizerAmt   float64 `bun:"organizer_amount" json:"organizer_amount"`
	AgentAmount    float64 `bun:"agent_amount" json:"agent_amount"`
	SystemAmount   float64 `bun:"system_amount" json:"system_amount"`
	DiscountValue  float64 `bun:"discount_value" json:"discount_value"`
	PaymentStatus  string  `bun:"payment_status" json:"payment_status"`
	TicketStatus   string  `bun:"ticket_status" json:"ticket_status"`
	RefundDate     string  `bun:"refund_date" json:"refund_date"`
	RefundAmount   float64 `bun:"refund_amount" json:"refund_amount"`
	ERBAmount      float64 `bun:"erb_amount" json:"erb_amount"`
	Year           int     `bun:"year" json:"year"`
	Month          int     `bun:"month" json:"month"`
	BookingHour    int     `bun:"booking_hour" json:"booking_hour"`
	FlightHour     int     `bun:"flight_hour" json:"flight_hour"`
}
