package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goldenwok/api/internal/database"
	"github.com/goldenwok/api/internal/service"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetOrderStatusCounts(ctx context.Context) ([]database.GetOrderStatusCountsRow, error)
	GetRevenueSummary(ctx context.Context) (database.GetRevenueSummaryRow, error)
	GetCustomerStandingCounts(ctx context.Context) (database.GetCustomerStandingCountsRow, error)
	GetEmployeeStandingCounts(ctx context.Context) ([]database.GetEmployeeStandingCountsRow, error)
	GetComplaintStatusCounts(ctx context.Context) ([]database.GetComplaintStatusCountsRow, error)
	GetReputationRuleCounts(ctx context.Context) ([]database.GetReputationRuleCountsRow, error)
}

// Sweeper runs the batch reputation sweep. Satisfied by
// *service.SweepService.
type Sweeper interface {
	Run(ctx context.Context) (*service.SweepReport, error)
}

// ReportsHandler handles the manager summary report and the manual
// reputation sweep trigger.
type ReportsHandler struct {
	store ReportsStore
	sweep Sweeper
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore, sweep Sweeper) *ReportsHandler {
	return &ReportsHandler{store: store, sweep: sweep}
}

// RegisterManagerRoutes registers the report endpoints.
func (h *ReportsHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/reports/summary", h.Summary)
	r.Post("/reputation/sweep", h.RunSweep)
}

// --- Response types ---

type revenueSummary struct {
	DeliveredOrders int64  `json:"delivered_orders"`
	GrossRevenue    string `json:"gross_revenue"`
	VipDiscounts    string `json:"vip_discounts"`
}

type customerSummary struct {
	Total       int64 `json:"total"`
	Vip         int64 `json:"vip"`
	Blacklisted int64 `json:"blacklisted"`
}

type employeeSummary struct {
	Kind       string `json:"kind"`
	Active     int64  `json:"active"`
	Terminated int64  `json:"terminated"`
}

type summaryResponse struct {
	OrdersByStatus     map[string]int64  `json:"orders_by_status"`
	Revenue            revenueSummary    `json:"revenue"`
	Customers          customerSummary   `json:"customers"`
	Employees          []employeeSummary `json:"employees"`
	ComplaintsByStatus map[string]int64  `json:"complaints_by_status"`
	ReputationByRule   map[string]int64  `json:"reputation_by_rule"`
}

// --- Handlers ---

// Summary handles GET /reports/summary: a single operational snapshot
// across orders, revenue, standing and open complaints.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderCounts, err := h.store.GetOrderStatusCounts(ctx)
	if err != nil {
		log.Printf("ERROR: order status counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	revenue, err := h.store.GetRevenueSummary(ctx)
	if err != nil {
		log.Printf("ERROR: revenue summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	customers, err := h.store.GetCustomerStandingCounts(ctx)
	if err != nil {
		log.Printf("ERROR: customer standing counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	employees, err := h.store.GetEmployeeStandingCounts(ctx)
	if err != nil {
		log.Printf("ERROR: employee standing counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	complaints, err := h.store.GetComplaintStatusCounts(ctx)
	if err != nil {
		log.Printf("ERROR: complaint status counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	rules, err := h.store.GetReputationRuleCounts(ctx)
	if err != nil {
		log.Printf("ERROR: reputation rule counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := summaryResponse{
		OrdersByStatus: make(map[string]int64, len(orderCounts)),
		Revenue: revenueSummary{
			DeliveredOrders: revenue.DeliveredOrders,
			GrossRevenue:    numericToString(revenue.GrossRevenue),
			VipDiscounts:    numericToString(revenue.VipDiscounts),
		},
		Customers: customerSummary{
			Total:       customers.Total,
			Vip:         customers.Vip,
			Blacklisted: customers.Blacklisted,
		},
		Employees:          make([]employeeSummary, len(employees)),
		ComplaintsByStatus: make(map[string]int64, len(complaints)),
		ReputationByRule:   make(map[string]int64, len(rules)),
	}
	for _, row := range orderCounts {
		resp.OrdersByStatus[string(row.Status)] = row.Count
	}
	for i, row := range employees {
		resp.Employees[i] = employeeSummary{
			Kind:       string(row.Kind),
			Active:     row.Active,
			Terminated: row.Terminated,
		}
	}
	for _, row := range complaints {
		resp.ComplaintsByStatus[string(row.Status)] = row.Count
	}
	for _, row := range rules {
		resp.ReputationByRule[row.Rule] = row.Count
	}

	writeJSON(w, http.StatusOK, resp)
}

// RunSweep handles POST /reputation/sweep: a manual pass over reviewed
// feedback that was never dispatched inline.
func (h *ReportsHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweep.Run(r.Context())
	if err != nil {
		log.Printf("ERROR: reputation sweep: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
