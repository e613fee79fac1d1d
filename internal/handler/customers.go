package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goldenwok/api/internal/database"
	"github.com/goldenwok/api/internal/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// CustomerStore defines the database methods needed by customer
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type CustomerStore interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	ListCustomers(ctx context.Context) ([]database.Customer, error)
	CreditDeposit(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (database.Customer, error)
	SetCustomerVip(ctx context.Context, id uuid.UUID, isVip bool) (database.Customer, error)
	SetCustomerBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) (database.Customer, error)
	ClearWarnings(ctx context.Context, id uuid.UUID) (database.Customer, error)
}

// CustomerHandler handles customer profile and ledger endpoints.
type CustomerHandler struct {
	store CustomerStore
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store}
}

// RegisterSelfRoutes registers the customer self-service endpoints.
func (h *CustomerHandler) RegisterSelfRoutes(r chi.Router) {
	r.Get("/customers/me", h.Me)
	r.Post("/customers/me/deposit", h.Deposit)
}

// RegisterManagerRoutes registers the manager administration endpoints.
func (h *CustomerHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/customers", h.List)
	r.Post("/customers/{id}/blacklist", h.Blacklist)
	r.Delete("/customers/{id}/blacklist", h.Unblacklist)
	r.Patch("/customers/{id}/vip", h.SetVip)
	r.Post("/customers/{id}/warnings/clear", h.ClearWarnings)
}

// --- Request / Response types ---

type depositRequest struct {
	Amount string `json:"amount"`
}

type setVipRequest struct {
	IsVip bool `json:"is_vip"`
}

type customerResponse struct {
	ID            uuid.UUID `json:"id"`
	Deposit       string    `json:"deposit"`
	TotalSpent    string    `json:"total_spent"`
	OrderCount    int32     `json:"order_count"`
	Warnings      int32     `json:"warnings"`
	IsVip         bool      `json:"is_vip"`
	IsBlacklisted bool      `json:"is_blacklisted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// --- Handlers ---

// Me handles GET /customers/me.
func (h *CustomerHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	cust, err := h.store.GetCustomer(r.Context(), claims.ProfileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: get customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(cust))
}

// Deposit handles POST /customers/me/deposit: prepaying into the
// customer's ledger. The amount must be a positive decimal string.
func (h *CustomerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a positive decimal"})
		return
	}

	var num pgtype.Numeric
	if err := num.Scan(amount.String()); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a positive decimal"})
		return
	}

	cust, err := h.store.CreditDeposit(r.Context(), claims.ProfileID, num)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: credit deposit: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(cust))
}

// List handles GET /customers.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.ListCustomers(r.Context())
	if err != nil {
		log.Printf("ERROR: list customers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = toCustomerResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string][]customerResponse{"customers": resp})
}

// Blacklist handles POST /customers/{id}/blacklist.
func (h *CustomerHandler) Blacklist(w http.ResponseWriter, r *http.Request) {
	h.setBlacklisted(w, r, true)
}

// Unblacklist handles DELETE /customers/{id}/blacklist.
func (h *CustomerHandler) Unblacklist(w http.ResponseWriter, r *http.Request) {
	h.setBlacklisted(w, r, false)
}

func (h *CustomerHandler) setBlacklisted(w http.ResponseWriter, r *http.Request, blacklisted bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	cust, err := h.store.SetCustomerBlacklisted(r.Context(), id, blacklisted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: set blacklisted: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(cust))
}

// SetVip handles PATCH /customers/{id}/vip: a manual override of the
// earned VIP standing.
func (h *CustomerHandler) SetVip(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	var req setVipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cust, err := h.store.SetCustomerVip(r.Context(), id, req.IsVip)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: set vip: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(cust))
}

// ClearWarnings handles POST /customers/{id}/warnings/clear.
func (h *CustomerHandler) ClearWarnings(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	cust, err := h.store.ClearWarnings(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: clear warnings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(cust))
}

// --- Helpers ---

func toCustomerResponse(c database.Customer) customerResponse {
	return customerResponse{
		ID:            c.ID,
		Deposit:       numericToString(c.Deposit),
		TotalSpent:    numericToString(c.TotalSpent),
		OrderCount:    c.OrderCount,
		Warnings:      c.Warnings,
		IsVip:         c.IsVip,
		IsBlacklisted: c.IsBlacklisted,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
