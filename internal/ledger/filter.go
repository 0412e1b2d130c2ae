package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"ms-reporting/internal/models"
)

var (
	// ErrInvalidFilter is returned for filter values that cannot be applied.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidInput is returned for missing or out-of-range request values.
	ErrInvalidInput = errors.New("invalid input")
)

// AllValues disables a filter dimension.
const AllValues = "all"

const dateLayout = "2006-01-02"

// FilterParams are the recognized report query parameters as received.
type FilterParams struct {
	Year   string
	Status string
	Seller string
	Events []string
	From   string
	To     string
}

// Filter is a validated conjunction of row constraints.
type Filter struct {
	Year    int
	Status  string
	Seller  string
	Sellers []string
	Events  []string
	From    string
	To      string
}

// BuildFilter validates params. Absent and "all" values impose no constraint.
func BuildFilter(p FilterParams) (Filter, error) {
	var f Filter

	if p.Year != "" && p.Year != AllValues {
		if len(p.Year) != 4 {
			return Filter{}, fmt.Errorf("%w: year %q is not a 4-digit year", ErrInvalidFilter, p.Year)
		}
		year, err := strconv.Atoi(p.Year)
		if err != nil || year < 1000 {
			return Filter{}, fmt.Errorf("%w: year %q is not a 4-digit year", ErrInvalidFilter, p.Year)
		}
		f.Year = year
	}

	if p.Status != AllValues {
		f.Status = p.Status
	}
	f.Seller = p.Seller

	for _, e := range p.Events {
		if e != "" {
			f.Events = append(f.Events, e)
		}
	}

	for _, d := range []string{p.From, p.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return Filter{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidFilter, d)
		}
	}
	if p.From != "" && p.To != "" && p.From > p.To {
		return Filter{}, fmt.Errorf("%w: date range %s..%s is inverted", ErrInvalidFilter, p.From, p.To)
	}
	f.From, f.To = p.From, p.To

	return f, nil
}

// WithSeller returns a copy constrained to one seller.
func (f Filter) WithSeller(seller string) Filter {
	f.Seller = seller
	return f
}

// WithSellers returns a copy constrained to a set of sellers.
func (f Filter) WithSellers(sellers []string) Filter {
	f.Sellers = append([]string(nil), sellers...)
	return f
}

// WithoutEvents returns a copy with the event selection cleared.
func (f Filter) WithoutEvents() Filter {
	f.Events = nil
	return f
}

// YearLabel renders the year constraint the way the query string carries it.
func (f Filter) YearLabel() string {
	if f.Year == 0 {
		return AllValues
	}
	return strconv.Itoa(f.Year)
}

// Predicates returns one bound predicate per active dimension.
func (f Filter) Predicates() []Predicate {
	var preds []Predicate

	if f.Year != 0 {
		year := f.Year
		preds = append(preds, Predicate{
			Name:  "year",
			SQL:   "year = ?",
			Args:  []interface{}{year},
			Match: func(r *models.TicketRecord) bool { return r.Year == year },
		})
	}
	if f.Status != "" {
		preds = append(preds, statusIs("status", f.Status))
	}
	if f.Seller != "" {
		seller := f.Seller
		preds = append(preds, Predicate{
			Name:  "seller",
			SQL:   "seller = ?",
			Args:  []interface{}{seller},
			Match: func(r *models.TicketRecord) bool { return r.Seller == seller },
		})
	}
	if len(f.Sellers) > 0 {
		preds = append(preds, inSet("sellers", "seller", f.Sellers, func(r *models.TicketRecord) string { return r.Seller }))
	}
	if len(f.Events) > 0 {
		preds = append(preds, inSet("events", "event_name", f.Events, func(r *models.TicketRecord) string { return r.EventName }))
	}
	if f.From != "" {
		from := f.From
		preds = append(preds, Predicate{
			Name:  "from",
			SQL:   "order_date >= ?",
			Args:  []interface{}{from},
			Match: func(r *models.TicketRecord) bool { return r.OrderDate >= from },
		})
	}
	if f.To != "" {
		to := f.To
		preds = append(preds, Predicate{
			Name:  "to",
			SQL:   "order_date <= ?",
			Args:  []interface{}{to},
			Match: func(r *models.TicketRecord) bool { return r.OrderDate <= to },
		})
	}

	return preds
}

// Match evaluates the filter against one record.
func (f Filter) Match(r *models.TicketRecord) bool {
	for _, p := range f.Predicates() {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

func inSet(name, column string, values []string, field func(*models.TicketRecord) string) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return Predicate{
		Name: name,
		SQL:  column + " IN (?)",
		Args: []interface{}{bun.In(values)},
		Match: func(r *models.TicketRecord) bool {
			_, ok := set[field(r)]
			return ok
		},
	}
}
