package ledger

import "ms-reporting/internal/models"

// Policy selects which reconciliation exclusions a report applies.
type Policy struct {
	// ExcludeUnpaid drops unpaid rows before aggregation.
	ExcludeUnpaid bool
	// ExcludeFullRefunds drops rows whose refund equals the order amount.
	ExcludeFullRefunds bool
	// SeparateDirectSaleRefunds keeps direct-sale refunds out of total refunds.
	SeparateDirectSaleRefunds bool
	// DeductDirectSaleRefunds subtracts direct-sale refunds from net revenue a
	// second time. Only valid for reports that drop direct-sale revenue elsewhere;
	// none of the built-in profiles do.
	DeductDirectSaleRefunds bool
}

// Policies holds the two exclusion profiles used by the reports. Both share
// the same direct-sale refund setting.
type Policies struct {
	// Ledger is the baseline: unpaid rows excluded.
	Ledger Policy
	// Settled additionally drops full refunds (seller detail, comparison, direct sales).
	Settled Policy
}

// NewPolicies builds the report profiles from the global direct-sale refund setting.
func NewPolicies(separateDirectSaleRefunds bool) Policies {
	return Policies{
		Ledger: Policy{
			ExcludeUnpaid:             true,
			SeparateDirectSaleRefunds: separateDirectSaleRefunds,
		},
		Settled: Policy{
			ExcludeUnpaid:             true,
			ExcludeFullRefunds:        true,
			SeparateDirectSaleRefunds: separateDirectSaleRefunds,
		},
	}
}

// Exclusions returns the row-level predicates a record must satisfy.
func (p Policy) Exclusions() []Predicate {
	var preds []Predicate
	if p.ExcludeUnpaid {
		preds = append(preds, Not(Unpaid))
	}
	if p.ExcludeFullRefunds {
		preds = append(preds, Not(FullRefund))
	}
	return preds
}

// Admits reports whether a record survives the policy exclusions.
func (p Policy) Admits(r *models.TicketRecord) bool {
	for _, pred := range p.Exclusions() {
		if !pred.Match(r) {
			return false
		}
	}
	return true
}
