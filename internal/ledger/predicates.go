package ledger

import (
	"strings"

	"ms-reporting/internal/models"
)

// Payment statuses as they appear in the export.
const (
	StatusPaid     = "Оплачен"
	StatusUnpaid   = "Не оплачен"
	StatusRefunded = "Возвращен"
)

// Predicate is a named row condition with two equivalent forms: a bound SQL
// fragment over the tickets table and a Go matcher over a TicketRecord.
// Reports must only classify rows through these values.
type Predicate struct {
	Name  string
	SQL   string
	Args  []interface{}
	Match func(r *models.TicketRecord) bool
}

// And joins predicates with a conjunction.
func And(name string, preds ...Predicate) Predicate {
	parts := make([]string, 0, len(preds))
	var args []interface{}
	for _, p := range preds {
		parts = append(parts, "("+p.SQL+")")
		args = append(args, p.Args...)
	}
	return Predicate{
		Name: name,
		SQL:  strings.Join(parts, " AND "),
		Args: args,
		Match: func(r *models.TicketRecord) bool {
			for _, p := range preds {
				if !p.Match(r) {
					return false
				}
			}
			return true
		},
	}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return Predicate{
		Name:  "not_" + p.Name,
		SQL:   "NOT (" + p.SQL + ")",
		Args:  p.Args,
		Match: func(r *models.TicketRecord) bool { return !p.Match(r) },
	}
}

func statusIs(name, status string) Predicate {
	return Predicate{
		Name:  name,
		SQL:   "payment_status = ?",
		Args:  []interface{}{status},
		Match: func(r *models.TicketRecord) bool { return r.PaymentStatus == status },
	}
}

var (
	Paid     = statusIs("paid", StatusPaid)
	Unpaid   = statusIs("unpaid", StatusUnpaid)
	Refunded = statusIs("refunded", StatusRefunded)

	// FullRefund marks a fully reversed transaction.
	FullRefund = Predicate{
		Name:  "full_refund",
		SQL:   "refund_amount = order_amount",
		Match: func(r *models.TicketRecord) bool { return r.RefundAmount == r.OrderAmount },
	}

	// ZeroCommissionPassThrough is a paid order with a commission percentage
	// but no realized commission. Its order amount is not agent revenue.
	ZeroCommissionPassThrough = Predicate{
		Name: "zero_commission_passthrough",
		SQL:  "agent_amount = 0 AND agent_percent > 0 AND payment_status = ?",
		Args: []interface{}{StatusPaid},
		Match: func(r *models.TicketRecord) bool {
			return r.AgentAmount == 0 && r.AgentPercent > 0 && r.PaymentStatus == StatusPaid
		},
	}

	// DirectSaleFlow classifies organizer-as-seller rows regardless of status.
	DirectSaleFlow = Predicate{
		Name: "direct_sale_flow",
		SQL:  "seller = organizer AND agent_percent < 0 AND agent_amount = 0",
		Match: func(r *models.TicketRecord) bool {
			return r.Seller == r.Organizer && r.AgentPercent < 0 && r.AgentAmount == 0
		},
	}

	// DirectSale is a paid direct-sale row.
	DirectSale = And("direct_sale", DirectSaleFlow, Paid)

	// DirectSaleRefund is a refunded direct-sale row.
	DirectSaleRefund = And("direct_sale_refund", DirectSaleFlow, Refunded)

	// RefundedWithAmount is a refunded row that actually moved money back.
	RefundedWithAmount = And("refunded_with_amount", Refunded, Predicate{
		Name:  "positive_refund",
		SQL:   "refund_amount > 0",
		Match: func(r *models.TicketRecord) bool { return r.RefundAmount > 0 },
	})

	// AgentCommissioned keeps rows that earned the agent a commission.
	AgentCommissioned = Predicate{
		Name:  "agent_commissioned",
		SQL:   "agent_amount > 0",
		Match: func(r *models.TicketRecord) bool { return r.AgentAmount > 0 },
	}
)

// IsFullRefund reports whether the row is fully refunded.
func IsFullRefund(r *models.TicketRecord) bool { return FullRefund.Match(r) }

// IsZeroCommissionPassThrough reports whether the row is a waived-commission paid order.
func IsZeroCommissionPassThrough(r *models.TicketRecord) bool {
	return ZeroCommissionPassThrough.Match(r)
}

// IsDirectSale reports whether the row is a paid organizer-as-seller sale.
func IsDirectSale(r *models.TicketRecord) bool { return DirectSale.Match(r) }

// IsDirectSaleFlow reports whether the row belongs to the direct-sale money flow.
func IsDirectSaleFlow(r *models.TicketRecord) bool { return DirectSaleFlow.Match(r) }

// IsPaid reports whether the row is paid.
func IsPaid(r *models.TicketRecord) bool { return Paid.Match(r) }

// IsUnpaid reports whether the row was never paid.
func IsUnpaid(r *models.TicketRecord) bool { return Unpaid.Match(r) }

// IsRefunded reports whether the row carries the refunded status.
func IsRefunded(r *models.TicketRecord) bool { return Refunded.Match(r) }
