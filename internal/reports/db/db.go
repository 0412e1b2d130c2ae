package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-reporting/internal/ledger"
	"ms-reporting/internal/models"
)

// DB is the ledger store. It supplies conditioned sums and counts; business
// semantics stay in the ledger package.
type DB struct {
	Bun *bun.DB
}

// GroupBy selects the grouping key of an aggregate query.
type GroupBy int

const (
	Ungrouped GroupBy = iota
	BySeller
	ByEvent
	ByMonth
)

// OrderBy selects the ordering of grouped results.
type OrderBy int

const (
	NoOrder OrderBy = iota
	AgentAmountDesc
	OrganizerAmountDesc
	Chronological
)

// Query describes one aggregate scan of the ledger.
type Query struct {
	Filter ledger.Filter
	Policy ledger.Policy
	// Restrict adds report-specific row predicates, e.g. AgentCommissioned.
	Restrict []ledger.Predicate
	GroupBy  GroupBy
	OrderBy  OrderBy
	Limit    int
}

// where applies the policy exclusions, the filter and the restrictions.
func where(q *bun.SelectQuery, f ledger.Filter, p ledger.Policy, restrict ...ledger.Predicate) *bun.SelectQuery {
	preds := append(p.Exclusions(), f.Predicates()...)
	preds = append(preds, restrict...)
	for _, pred := range preds {
		q = q.Where(pred.SQL, pred.Args...)
	}
	return q
}

// Scan returns the raw ledger rows admitted by the filter and policy. It feeds
// the in-memory rules (ledger.SumRecords) that are checked against Aggregate.
func (d *DB) Scan(ctx context.Context, f ledger.Filter, p ledger.Policy) ([]models.TicketRecord, error) {
	var records []models.TicketRecord
	q := d.Bun.NewSelect().Model(&records)
	err := where(q, f, p).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan tickets: %w", err)
	}
	return records, nil
}

// Aggregate returns one Sums per group. An ungrouped query always yields one row.
func (d *DB) Aggregate(ctx context.Context, query Query) ([]ledger.Sums, error) {
	q := d.Bun.NewSelect().TableExpr("tickets")

	switch query.GroupBy {
	case BySeller:
		q = q.ColumnExpr("seller").GroupExpr("seller")
	case ByEvent:
		q = q.ColumnExpr("event_name").GroupExpr("event_name")
	case ByMonth:
		q = q.ColumnExpr("year").ColumnExpr("month").GroupExpr("year, month")
	}

	for _, col := range ledger.SumColumns() {
		q = q.ColumnExpr(col.Expr+" AS "+col.Alias, col.Args...)
	}

	q = where(q, query.Filter, query.Policy, query.Restrict...)

	switch query.OrderBy {
	case AgentAmountDesc:
		q = q.OrderExpr("agent_amount DESC")
	case OrganizerAmountDesc:
		q = q.OrderExpr("organizer_amount DESC")
	case Chronological:
		q = q.OrderExpr("year ASC, month ASC")
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	var groups []ledger.Sums
	if err := q.Scan(ctx, &groups); err != nil {
		return nil, fmt.Errorf("aggregate tickets: %w", err)
	}
	return groups, nil
}

// CountSegments counts admitted rows per hour bucket of col.
func (d *DB) CountSegments(ctx context.Context, f ledger.Filter, p ledger.Policy, col ledger.HourColumn, buckets []ledger.Bucket) ([]int, error) {
	q := d.Bun.NewSelect().TableExpr("tickets")

	counts := make([]int, len(buckets))
	dest := make([]interface{}, len(buckets))
	for i, b := range buckets {
		c := b.Column(fmt.Sprintf("segment_%d", i), col)
		q = q.ColumnExpr(c.Expr+" AS "+c.Alias, c.Args...)
		dest[i] = &counts[i]
	}

	if err := where(q, f, p).Scan(ctx, dest...); err != nil {
		return nil, fmt.Errorf("count %s segments: %w", col, err)
	}
	return counts, nil
}

// Years lists the distinct order years, newest first.
func (d *DB) Years(ctx context.Context) ([]int, error) {
	var years []int
	err := d.Bun.NewSelect().
		TableExpr("tickets").
		ColumnExpr("DISTINCT year").
		Where("year > 0").
		OrderExpr("year DESC").
		Scan(ctx, &years)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	return years, nil
}

// Statuses lists the distinct non-empty payment statuses other than unpaid.
func (d *DB) Statuses(ctx context.Context) ([]string, error) {
	var statuses []string
	err := d.Bun.NewSelect().
		TableExpr("tickets").
		ColumnExpr("DISTINCT payment_status").
		Where("payment_status != ''").
		Where(ledger.Not(ledger.Unpaid).SQL, ledger.Not(ledger.Unpaid).Args...).
		OrderExpr("payment_status ASC").
		Scan(ctx, &statuses)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

// Sellers lists the distinct sellers in name order.
func (d *DB) Sellers(ctx context.Context) ([]string, error) {
	var sellers []string
	err := d.Bun.NewSelect().
		TableExpr("tickets").
		ColumnExpr("DISTINCT seller").
		Where("seller != ''").
		OrderExpr("seller ASC").
		Scan(ctx, &sellers)
	if err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	return sellers, nil
}

// SellerYears lists the years a seller has rows in, newest first.
func (d *DB) SellerYears(ctx context.Context, seller string) ([]int, error) {
	var years []int
	err := d.Bun.NewSelect().
		TableExpr("tickets").
		ColumnExpr("DISTINCT year").
		Where("seller = ?", seller).
		Where("year > 0").
		OrderExpr("year DESC").
		Scan(ctx, &years)
	if err != nil {
		return nil, fmt.Errorf("list years of %s: %w", seller, err)
	}
	return years, nil
}

// SellerEvents lists the distinct event names of a seller, optionally within one year.
func (d *DB) SellerEvents(ctx context.Context, seller string, year int) ([]string, error) {
	var events []string
	q := d.Bun.NewSelect().
		TableExpr("tickets").
		ColumnExpr("DISTINCT event_name").
		Where("seller = ?", seller).
		Where("event_name != ''")
	if year != 0 {
		q = q.Where("year = ?", year)
	}
	if err := q.OrderExpr("event_name ASC").Scan(ctx, &events); err != nil {
		return nil, fmt.Errorf("list events of %s: %w", seller, err)
	}
	return events, nil
}

// SellerExists reports whether the ledger has any row for seller.
func (d *DB) SellerExists(ctx context.Context, seller string) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.TicketRecord)(nil)).
		Where("seller = ?", seller).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check seller %s: %w", seller, err)
	}
	return exists, nil
}

// Count returns the number of ledger rows.
func (d *DB) Count(ctx context.Context) (int, error) {
	n, err := d.Bun.NewSelect().Model((*models.TicketRecord)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return n, nil
}

// InsertBatch inserts records in one transaction. Rows whose row_hash is
// already stored are skipped; the number of new rows is returned.
func (d *DB) InsertBatch(ctx context.Context, records []models.TicketRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var inserted int64
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().
			Model(&records).
			On("CONFLICT (row_hash) DO NOTHING").
			Returning("NULL").
			Exec(ctx)
		if err != nil {
			return err
		}
		inserted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert batch of %d: %w", len(records), err)
	}
	return inserted, nil
}
