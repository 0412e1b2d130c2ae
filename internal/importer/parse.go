package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ms-reporting/internal/models"
)

var (
	ErrMissingOrderID   = errors.New("missing order id")
	ErrInvalidOrderDate = errors.New("invalid order date")
)

// Row is one CSV record keyed by header.
type Row map[string]string

// get returns the value of col, or def when the column is absent.
func (r Row) get(col, def string) string {
	if v, ok := r[col]; ok {
		return v
	}
	return def
}

// ParseNumber reads a ledger amount. Comma decimal separators and spaces are
// accepted; blanks, dashes and garbage read as zero.
func ParseNumber(value string) float64 {
	v := strings.TrimSpace(value)
	if v == "" || v == "-" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", ".")
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, "\u00a0", "")
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n
}

// hourOf returns the hour of an "HH:MM" value, 0 when it has none.
func hourOf(clock string) int {
	head, _, found := strings.Cut(clock, ":")
	if !found {
		return 0
	}
	h, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || h < 0 || h > 23 {
		return 0
	}
	return h
}

// ParseRow maps a CSV record onto a ledger record with the derived year,
// month and hour fields and the row hash filled in.
func ParseRow(row Row) (models.TicketRecord, error) {
	orderID := strings.TrimSpace(row[colOrderID])
	if orderID == "" {
		return models.TicketRecord{}, ErrMissingOrderID
	}

	orderDate := strings.TrimSpace(row[colOrderDate])
	date, err := time.Parse("2006-01-02", orderDate)
	if err != nil {
		return models.TicketRecord{}, fmt.Errorf("%w %q for order %s", ErrInvalidOrderDate, orderDate, orderID)
	}

	orderTime := row.get(colOrderTime, defaultTime)
	eventTime := row.get(colEventTime, defaultTime)

	rec := models.TicketRecord{
		OrderID:        orderID,
		OrderDate:      orderDate,
		OrderTime:      orderTime,
		ClientName:     row[colClientName],
		ClientEmail:    row[colClientEmail],
		ClientPhone:    row[colClientPhone],
		EventName:      row[colEventName],
		EventDate:      row[colEventDate],
		EventTime:      eventTime,
		Organizer:      row[colOrganizer],
		Seller:         row[colSeller],
		TicketsCount:   int(ParseNumber(row[colTicketsCount])),
		OrderAmount:    ParseNumber(row[colOrderAmount]),
		DiscountCode:   row[colDiscountCode],
		DiscountAmount: ParseNumber(row[colDiscountAmount]),
		AgentPercent:   ParseNumber(row[colAgentPercent]),
		SystemPercent:  ParseNumber(row[colSystemPercent]),
		OrganizerAmt:   ParseNumber(row[colOrganizerAmt]),
		AgentAmount:    ParseNumber(row[colAgentAmount]),
		SystemAmount:   ParseNumber(row[colSystemAmount]),
		DiscountValue:  ParseNumber(row[colDiscountValue]),
		PaymentStatus:  row[colPaymentStatus],
		TicketStatus:   row[colTicketStatus],
		RefundDate:     row[colRefundDate],
		RefundAmount:   ParseNumber(row[colRefundAmount]),
		ERBAmount:      ParseNumber(row[colERB]),
		Year:           date.Year(),
		Month:          int(date.Month()),
		BookingHour:    hourOf(orderTime),
		FlightHour:     hourOf(eventTime),
	}
	rec.RowHash = RowHash(rec)
	return rec, nil
}

// RowHash fingerprints the stored tuple, so an identical row imported twice
// hashes the same. Derived fields follow from the hashed ones.
func RowHash(r models.TicketRecord) string {
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	fields := []string{
		r.OrderID, r.OrderDate, r.OrderTime,
		r.ClientName, r.ClientEmail, r.ClientPhone,
		r.EventName, r.EventDate, r.EventTime,
		r.Organizer, r.Seller,
		strconv.Itoa(r.TicketsCount), num(r.OrderAmount),
		r.DiscountCode, num(r.DiscountAmount),
		num(r.AgentPercent), num(r.SystemPercent),
		num(r.OrganizerAmt), num(r.AgentAmount), num(r.SystemAmount), num(r.DiscountValue),
		r.PaymentStatus, r.TicketStatus, r.RefundDate,
		num(r.RefundAmount), num(r.ERBAmount),
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}
