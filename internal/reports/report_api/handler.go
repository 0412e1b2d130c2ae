package report_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-reporting/internal/cache"
	"ms-reporting/internal/ledger"
	"ms-reporting/internal/logger"
	"ms-reporting/internal/models"
	reports "ms-reporting/internal/reports/service"
)

// maxBodyBytes bounds the comparison request body.
const maxBodyBytes = 1 << 16

// Handler serves the reporting endpoints.
type Handler struct {
	Service  *reports.ReportService
	Logger   *logger.Logger
	Cache    *cache.ResponseCache
	ShortTTL time.Duration
	LongTTL  time.Duration
}

// NewHandler creates a handler. A nil cache disables response caching.
func NewHandler(service *reports.ReportService, log *logger.Logger, c *cache.ResponseCache, shortTTL, longTTL time.Duration) *Handler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Handler{
		Service:  service,
		Logger:   log,
		Cache:    c,
		ShortTTL: shortTTL,
		LongTTL:  longTTL,
	}
}

// RegisterRoutes registers the report routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.Cache.Middleware(h.ShortTTL))
			r.Get("/summary", h.GetSummary)
			r.Get("/top-sellers", h.GetTopSellers)
			r.Get("/all-agents", h.GetAllAgents)
			r.Get("/direct-sales", h.GetDirectSales)
			r.Get("/sales-trend", h.GetSalesTrend)
			r.Get("/seller-trend", h.GetSellerTrend)
			r.Get("/seller-stats", h.GetSellerStats)
			r.Get("/booking-segments", h.GetBookingSegments)
			r.Get("/flight-segments", h.GetFlightSegments)
			r.Get("/seller-detail", h.GetSellerDetail)
			r.Get("/sellers", h.GetSellers)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.Cache.Middleware(h.LongTTL))
			r.Get("/years", h.GetYears)
			r.Get("/statuses", h.GetStatuses)
		})
		r.Post("/compare-sellers", h.CompareSellers)
	})
	r.Get("/seller-events-filter", h.GetSellerEvents)
}

// sendJSONResponse writes data as a JSON body with the given status.
func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError maps service errors onto status codes. Data access failures
// answer 500 with the store error as the message.
func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidFilter), errors.Is(err, ledger.ErrInvalidInput):
		h.Logger.Warn("API", fmt.Sprintf("%s rejected: %v", r.URL.Path, err))
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, reports.ErrSellerNotFound):
		sendJSONResponse(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.Logger.Error("API", fmt.Sprintf("%s failed: %v", r.URL.Path, err))
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// filterFrom reads the report filter from the query string. events may repeat.
func filterFrom(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	return ledger.BuildFilter(ledger.FilterParams{
		Year:   q.Get("year"),
		Status: q.Get("status"),
		Seller: q.Get("seller"),
		Events: q["events"],
		From:   q.Get("from"),
		To:     q.Get("to"),
	})
}

// serve runs a filtered report and writes its result.
func serve[T any](h *Handler, w http.ResponseWriter, r *http.Request, report func(ledger.Filter) (T, error)) {
	f, err := filterFrom(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	result, err := report(f)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSONResponse(w, http.StatusOK, result)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) (models.RevenueStats, error) {
		return h.Service.Summary(r.Context(), f)
	})
}

func (h *Handler) GetSellerStats(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) (models.RevenueStats, error) {
		return h.Service.SellerStats(r.Context(), f)
	})
}

func (h *Handler) GetTopSellers(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) ([]models.SellerCommission, error) {
		return h.Service.TopSellers(r.Context(), f)
	})
}

func (h *Handler) GetAllAgents(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) ([]models.AgentRow, error) {
		return h.Service.AllAgents(r.Context(), f)
	})
}

func (h *Handler) GetDirectSales(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) ([]models.DirectSaleRow, error) {
		return h.Service.DirectSales(r.Context(), f)
	})
}

func (h *Handler) GetSalesTrend(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) (models.TimeSeries, error) {
		return h.Service.SalesTrend(r.Context(), f)
	})
}

func (h *Handler) GetSellerTrend(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) (models.TimeSeries, error) {
		return h.Service.SellerTrend(r.Context(), f)
	})
}

func (h *Handler) GetBookingSegments(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) (models.SegmentReport, error) {
		return h.Service.Segments(r.Context(), f, ledger.BookingHour)
	})
}

func (h *Handler) GetFlightSegments(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) (models.SegmentReport, error) {
		return h.Service.Segments(r.Context(), f, ledger.FlightHour)
	})
}

// GetSellerDetail serves the seller page of ?name=.
func (h *Handler) GetSellerDetail(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	serve(h, w, r, func(f ledger.Filter) (models.SellerDetail, error) {
		return h.Service.SellerDetail(r.Context(), name, f)
	})
}

// GetSellerEvents lists the events of ?seller= within ?year=.
func (h *Handler) GetSellerEvents(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(f ledger.Filter) ([]string, error) {
		return h.Service.SellerEvents(r.Context(), f.Seller, f)
	})
}

func (h *Handler) GetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.Service.Years(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSONResponse(w, http.StatusOK, years)
}

func (h *Handler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Service.Statuses(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSONResponse(w, http.StatusOK, statuses)
}

func (h *Handler) GetSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.Service.Sellers(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSONResponse(w, http.StatusOK, sellers)
}

// CompareSellers compares up to five sellers named in the JSON body. The
// query string may narrow the comparison by year, status and dates.
func (h *Handler) CompareSellers(w http.ResponseWriter, r *http.Request) {
	var request models.CompareRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		h.Logger.Warn("API", "Failed to parse compare request body: "+err.Error())
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid request format"})
		return
	}

	serve(h, w, r, func(f ledger.Filter) ([]models.RevenueStats, error) {
		return h.Service.Compare(r.Context(), f, request)
	})
}
