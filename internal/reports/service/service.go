package reports

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"ms-reporting/internal/ledger"
	"ms-reporting/internal/logger"
	"ms-reporting/internal/models"
	"ms-reporting/internal/reports/db"
)

var (
	// ErrDataAccess wraps store failures.
	ErrDataAccess = errors.New("data access failure")
	// ErrSellerNotFound is returned by the seller detail report for unknown sellers.
	ErrSellerNotFound = errors.New("seller not found")
)

const (
	topSellersLimit   = 20
	maxCompareSellers = 5
)

type LedgerDBLayer interface {
	Aggregate(ctx context.Context, query db.Query) ([]ledger.Sums, error)
	CountSegments(ctx context.Context, f ledger.Filter, p ledger.Policy, col ledger.HourColumn, buckets []ledger.Bucket) ([]int, error)
	Years(ctx context.Context) ([]int, error)
	Statuses(ctx context.Context) ([]string, error)
	Sellers(ctx context.Context) ([]string, error)
	SellerYears(ctx context.Context, seller string) ([]int, error)
	SellerEvents(ctx context.Context, seller string, year int) ([]string, error)
	SellerExists(ctx context.Context, seller string) (bool, error)
}

// ReportService assembles the report shapes from store aggregates.
type ReportService struct {
	DB       LedgerDBLayer
	Policies ledger.Policies
	Logger   *logger.Logger
	validate *validator.Validate
}

func NewReportService(store LedgerDBLayer, policies ledger.Policies, log *logger.Logger) *ReportService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ReportService{
		DB:       store,
		Policies: policies,
		Logger:   log,
		validate: validator.New(),
	}
}

func (s *ReportService) dataErr(op string, err error) error {
	s.Logger.Error("REPORTS", fmt.Sprintf("%s failed: %v", op, err))
	return fmt.Errorf("%w: %s: %v", ErrDataAccess, op, err)
}

// total runs an ungrouped aggregate. The store always returns one row for it.
func (s *ReportService) total(ctx context.Context, op string, f ledger.Filter, p ledger.Policy) (ledger.Sums, error) {
	groups, err := s.DB.Aggregate(ctx, db.Query{Filter: f, Policy: p})
	if err != nil {
		return ledger.Sums{}, s.dataErr(op, err)
	}
	if len(groups) == 0 {
		return ledger.Sums{}, nil
	}
	return groups[0], nil
}

func monthLabel(g ledger.Sums) string {
	return fmt.Sprintf("%04d-%02d", g.Year, g.Month)
}

func requireSeller(seller string) error {
	if seller == "" {
		return fmt.Errorf("%w: seller name is required", ledger.ErrInvalidInput)
	}
	return nil
}

// Summary is the ungrouped reconciled aggregate.
func (s *ReportService) Summary(ctx context.Context, f ledger.Filter) (models.RevenueStats, error) {
	sums, err := s.total(ctx, "summary", f, s.Policies.Ledger)
	if err != nil {
		return models.RevenueStats{}, err
	}
	return ledger.Reconcile(sums, s.Policies.Ledger).Stats(""), nil
}

// SellerStats is the summary restricted to f.Seller, which is required.
func (s *ReportService) SellerStats(ctx context.Context, f ledger.Filter) (models.RevenueStats, error) {
	if err := requireSeller(f.Seller); err != nil {
		return models.RevenueStats{}, err
	}
	sums, err := s.total(ctx, "seller stats", f, s.Policies.Ledger)
	if err != nil {
		return models.RevenueStats{}, err
	}
	return ledger.Reconcile(sums, s.Policies.Ledger).Stats(f.Seller), nil
}

// TopSellers returns the 20 sellers with the highest agent commission.
func (s *ReportService) TopSellers(ctx context.Context, f ledger.Filter) ([]models.SellerCommission, error) {
	p := s.Policies.Ledger
	groups, err := s.DB.Aggregate(ctx, db.Query{
		Filter:   f,
		Policy:   p,
		Restrict: []ledger.Predicate{ledger.AgentCommissioned},
		GroupBy:  db.BySeller,
		OrderBy:  db.AgentAmountDesc,
		Limit:    topSellersLimit,
	})
	if err != nil {
		return nil, s.dataErr("top sellers", err)
	}

	rows := make([]models.SellerCommission, 0, len(groups))
	for _, g := range groups {
		t := ledger.Reconcile(g, p)
		rows = append(rows, models.SellerCommission{
			Seller:       g.Seller,
			AgentAmount:  ledger.Money(t.AgentCommission),
			SystemAmount: ledger.Money(t.SystemCommission),
			OrdersCount:  t.OrderCount,
		})
	}
	return rows, nil
}

// AllAgents lists every commissioned seller with its net revenue.
func (s *ReportService) AllAgents(ctx context.Context, f ledger.Filter) ([]models.AgentRow, error) {
	p := s.Policies.Ledger
	groups, err := s.DB.Aggregate(ctx, db.Query{
		Filter:   f,
		Policy:   p,
		Restrict: []ledger.Predicate{ledger.AgentCommissioned},
		GroupBy:  db.BySeller,
		OrderBy:  db.AgentAmountDesc,
	})
	if err != nil {
		return nil, s.dataErr("all agents", err)
	}

	rows := make([]models.AgentRow, 0, len(groups))
	for _, g := range groups {
		t := ledger.Reconcile(g, p)
		rows = append(rows, models.AgentRow{
			Seller:       g.Seller,
			AgentAmount:  ledger.Money(t.AgentCommission),
			SystemAmount: ledger.Money(t.SystemCommission),
			OrdersCount:  t.OrderCount,
			TicketsCount: g.Tickets,
			TotalRevenue: ledger.Money(t.NetRevenue),
		})
	}
	return rows, nil
}

// DirectSales groups the organizer-as-seller flow by seller. Its order count
// is the direct tickets net of refunds, since the brokered order count of a
// direct-sale group is zero by construction.
func (s *ReportService) DirectSales(ctx context.Context, f ledger.Filter) ([]models.DirectSaleRow, error) {
	p := s.Policies.Settled
	groups, err := s.DB.Aggregate(ctx, db.Query{
		Filter:   f,
		Policy:   p,
		Restrict: []ledger.Predicate{ledger.DirectSaleFlow},
		GroupBy:  db.BySeller,
		OrderBy:  db.OrganizerAmountDesc,
	})
	if err != nil {
		return nil, s.dataErr("direct sales", err)
	}

	rows := make([]models.DirectSaleRow, 0, len(groups))
	for _, g := range groups {
		t := ledger.Reconcile(g, p)
		rows = append(rows, models.DirectSaleRow{
			Seller:           g.Seller,
			DirectSales:      ledger.RoundMoney(g.OrganizerAmount),
			SystemCommission: ledger.Money(t.SystemCommission),
			OrdersCount:      g.Tickets - g.RefundedTickets,
			TotalRevenue:     ledger.Money(t.NetRevenue),
		})
	}
	return rows, nil
}

func (s *ReportService) monthly(ctx context.Context, op string, f ledger.Filter, p ledger.Policy) ([]ledger.Sums, error) {
	groups, err := s.DB.Aggregate(ctx, db.Query{
		Filter:  f,
		Policy:  p,
		GroupBy: db.ByMonth,
		OrderBy: db.Chronological,
	})
	if err != nil {
		return nil, s.dataErr(op, err)
	}
	return groups, nil
}

// SalesTrend is the monthly agent and system commission series.
func (s *ReportService) SalesTrend(ctx context.Context, f ledger.Filter) (models.TimeSeries, error) {
	groups, err := s.monthly(ctx, "sales trend", f, s.Policies.Ledger)
	if err != nil {
		return models.TimeSeries{}, err
	}

	series := models.TimeSeries{
		Labels: make([]string, 0, len(groups)),
		Datasets: []models.Dataset{
			{Label: "Agent Revenue", Data: make([]float64, 0, len(groups))},
			{Label: "System Commission", Data: make([]float64, 0, len(groups))},
		},
	}
	for _, g := range groups {
		t := ledger.Reconcile(g, s.Policies.Ledger)
		series.Labels = append(series.Labels, monthLabel(g))
		series.Datasets[0].Data = append(series.Datasets[0].Data, ledger.Money(t.AgentCommission))
		series.Datasets[1].Data = append(series.Datasets[1].Data, ledger.Money(t.SystemCommission))
	}
	return series, nil
}

// SellerTrend is the monthly agent commission series of f.Seller.
func (s *ReportService) SellerTrend(ctx context.Context, f ledger.Filter) (models.TimeSeries, error) {
	if err := requireSeller(f.Seller); err != nil {
		return models.TimeSeries{}, err
	}
	groups, err := s.monthly(ctx, "seller trend", f, s.Policies.Ledger)
	if err != nil {
		return models.TimeSeries{}, err
	}
	return agentSeries(groups, s.Policies.Ledger), nil
}

func agentSeries(groups []ledger.Sums, p ledger.Policy) models.TimeSeries {
	series := models.TimeSeries{
		Labels:   make([]string, 0, len(groups)),
		Datasets: []models.Dataset{{Data: make([]float64, 0, len(groups))}},
	}
	for _, g := range groups {
		series.Labels = append(series.Labels, monthLabel(g))
		series.Datasets[0].Data = append(series.Datasets[0].Data, ledger.Money(ledger.Reconcile(g, p).AgentCommission))
	}
	return series
}

// Segments distributes the admitted rows over the time-of-day buckets of col.
func (s *ReportService) Segments(ctx context.Context, f ledger.Filter, col ledger.HourColumn) (models.SegmentReport, error) {
	counts, err := s.DB.CountSegments(ctx, f, s.Policies.Ledger, col, ledger.DaySegments)
	if err != nil {
		return models.SegmentReport{}, s.dataErr(string(col)+" segments", err)
	}

	total, shares := ledger.Percentages(counts)
	report := models.SegmentReport{Total: total, Segments: make([]models.Segment, 0, len(counts))}
	for i, b := range ledger.DaySegments {
		report.Segments = append(report.Segments, models.Segment{
			Name:    b.Name,
			Value:   counts[i],
			Percent: shares[i],
			Color:   b.Color,
		})
	}
	return report, nil
}

// SellerDetail assembles the seller page. The year and date range of f narrow
// every section; the event selection narrows the event breakdown only.
func (s *ReportService) SellerDetail(ctx context.Context, seller string, f ledger.Filter) (models.SellerDetail, error) {
	if err := requireSeller(seller); err != nil {
		return models.SellerDetail{}, err
	}

	exists, err := s.DB.SellerExists(ctx, seller)
	if err != nil {
		return models.SellerDetail{}, s.dataErr("seller detail", err)
	}
	if !exists {
		return models.SellerDetail{}, fmt.Errorf("%w: %s", ErrSellerNotFound, seller)
	}

	settled := s.Policies.Settled
	base := f.WithSeller(seller).WithoutEvents()

	detail := models.SellerDetail{
		SellerName:     seller,
		SelectedYear:   f.YearLabel(),
		SelectedEvents: append([]string{}, f.Events...),
	}

	stats, err := s.total(ctx, "seller detail stats", base, settled)
	if err != nil {
		return models.SellerDetail{}, err
	}
	detail.Stats = ledger.Reconcile(stats, settled).Stats(seller)

	// Refund stats keep full refunds, so they run under the baseline policy.
	refunds, err := s.total(ctx, "seller detail refunds", base, s.Policies.Ledger)
	if err != nil {
		return models.SellerDetail{}, err
	}
	detail.Refunds = models.RefundStats{
		TotalRefunds: ledger.RoundMoney(refunds.RefundSum),
		RefundCount:  refunds.RefundCount,
	}

	months, err := s.monthly(ctx, "seller detail monthly", base, settled)
	if err != nil {
		return models.SellerDetail{}, err
	}
	detail.MonthlyStats = make([]models.MonthlyStats, 0, len(months))
	for _, g := range months {
		t := ledger.Reconcile(g, settled)
		detail.MonthlyStats = append(detail.MonthlyStats, models.MonthlyStats{
			Month:      monthLabel(g),
			Revenue:    ledger.Money(t.NetRevenue),
			Agent:      ledger.Money(t.AgentCommission),
			Commission: ledger.Money(t.SystemCommission),
			Orders:     t.OrderCount,
		})
	}

	trend, err := s.monthly(ctx, "seller detail trend", base, settled)
	if err != nil {
		return models.SellerDetail{}, err
	}
	detail.Trend = agentSeries(trend, settled)

	events, err := s.DB.Aggregate(ctx, db.Query{
		Filter:  f.WithSeller(seller),
		Policy:  settled,
		GroupBy: db.ByEvent,
		OrderBy: db.AgentAmountDesc,
	})
	if err != nil {
		return models.SellerDetail{}, s.dataErr("seller detail events", err)
	}
	detail.Events = make([]models.EventBreakdown, 0, len(events))
	for _, g := range events {
		t := ledger.Reconcile(g, settled)
		detail.Events = append(detail.Events, models.EventBreakdown{
			EventName:    g.EventName,
			TicketsCount: g.Tickets,
			OrderAmount:  ledger.Money(t.NetRevenue),
			AgentAmount:  ledger.Money(t.AgentCommission),
			SystemAmount: ledger.Money(t.SystemCommission),
		})
	}

	years, err := s.DB.SellerYears(ctx, seller)
	if err != nil {
		return models.SellerDetail{}, s.dataErr("seller detail years", err)
	}
	detail.AvailableYears = yearLabels(years)

	if detail.AvailableEvents, err = s.DB.SellerEvents(ctx, seller, f.Year); err != nil {
		return models.SellerDetail{}, s.dataErr("seller detail events filter", err)
	}
	if detail.AvailableEvents == nil {
		detail.AvailableEvents = []string{}
	}

	sellers, err := s.DB.Sellers(ctx)
	if err != nil {
		return models.SellerDetail{}, s.dataErr("seller detail sellers", err)
	}
	detail.AllSellers = make([]string, 0, len(sellers))
	for _, other := range sellers {
		if other != seller {
			detail.AllSellers = append(detail.AllSellers, other)
		}
	}

	return detail, nil
}

// Compare returns one settled aggregate per requested seller, in request order.
// Sellers without admitted rows are omitted.
func (s *ReportService) Compare(ctx context.Context, f ledger.Filter, req models.CompareRequest) ([]models.RevenueStats, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: select between 1 and %d sellers", ledger.ErrInvalidInput, maxCompareSellers)
	}

	seen := make(map[string]struct{}, len(req.Sellers))
	sellers := make([]string, 0, len(req.Sellers))
	for _, seller := range req.Sellers {
		if _, ok := seen[seller]; ok {
			continue
		}
		seen[seller] = struct{}{}
		sellers = append(sellers, seller)
	}

	p := s.Policies.Settled
	groups, err := s.DB.Aggregate(ctx, db.Query{
		Filter:  f.WithSellers(sellers),
		Policy:  p,
		GroupBy: db.BySeller,
	})
	if err != nil {
		return nil, s.dataErr("compare sellers", err)
	}

	bySeller := make(map[string]ledger.Sums, len(groups))
	for _, g := range groups {
		bySeller[g.Seller] = g
	}

	result := make([]models.RevenueStats, 0, len(sellers))
	for _, seller := range sellers {
		g, ok := bySeller[seller]
		if !ok || g.Rows == 0 {
			continue
		}
		result = append(result, ledger.Reconcile(g, p).Stats(seller))
	}
	return result, nil
}

// Years lists the order years, newest first, as 4-digit strings.
func (s *ReportService) Years(ctx context.Context) ([]string, error) {
	years, err := s.DB.Years(ctx)
	if err != nil {
		return nil, s.dataErr("years", err)
	}
	return yearLabels(years), nil
}

func (s *ReportService) Statuses(ctx context.Context) ([]string, error) {
	statuses, err := s.DB.Statuses(ctx)
	if err != nil {
		return nil, s.dataErr("statuses", err)
	}
	return nonNil(statuses), nil
}

func (s *ReportService) Sellers(ctx context.Context) ([]string, error) {
	sellers, err := s.DB.Sellers(ctx)
	if err != nil {
		return nil, s.dataErr("sellers", err)
	}
	return nonNil(sellers), nil
}

// SellerEvents lists the events of a seller within the filter year.
func (s *ReportService) SellerEvents(ctx context.Context, seller string, f ledger.Filter) ([]string, error) {
	if err := requireSeller(seller); err != nil {
		return nil, err
	}
	events, err := s.DB.SellerEvents(ctx, seller, f.Year)
	if err != nil {
		return nil, s.dataErr("seller events", err)
	}
	return nonNil(events), nil
}

func yearLabels(years []int) []string {
	labels := make([]string, 0, len(years))
	for _, y := range years {
		labels = append(labels, strconv.Itoa(y))
	}
	return labels
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
