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
	"github.com/goldenwok/api/internal/enum"
	"github.com/goldenwok/api/internal/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DishStore defines the database methods needed by dish handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type DishStore interface {
	ListAvailableDishes(ctx context.Context) ([]database.Dish, error)
	GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error)
	CreateDish(ctx context.Context, arg database.CreateDishParams) (database.Dish, error)
	SetDishAvailability(ctx context.Context, id uuid.UUID, available bool) (database.Dish, error)
}

// DishHandler handles menu endpoints.
type DishHandler struct {
	store DishStore
}

// NewDishHandler creates a new DishHandler.
func NewDishHandler(store DishStore) *DishHandler {
	return &DishHandler{store: store}
}

// RegisterSharedRoutes registers the menu browsing endpoint.
func (h *DishHandler) RegisterSharedRoutes(r chi.Router) {
	r.Get("/dishes", h.List)
}

// RegisterStaffRoutes registers the menu management endpoints, shared
// by chefs and managers.
func (h *DishHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/dishes", h.Create)
	r.Patch("/dishes/{id}/availability", h.SetAvailability)
}

// --- Request / Response types ---

type createDishRequest struct {
	ChefID      string `json:"chef_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	IsVipOnly   bool   `json:"is_vip_only"`
}

type setAvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

type dishResponse struct {
	ID          uuid.UUID `json:"id"`
	ChefID      uuid.UUID `json:"chef_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	IsVipOnly   bool      `json:"is_vip_only"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Handlers ---

// List handles GET /dishes: the orderable menu. Dishes of suspended
// chefs are filtered out by the query.
func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.store.ListAvailableDishes(r.Context())
	if err != nil {
		log.Printf("ERROR: list dishes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dishResponse, len(dishes))
	for i, d := range dishes {
		resp[i] = toDishResponse(d)
	}
	writeJSON(w, http.StatusOK, map[string][]dishResponse{"dishes": resp})
}

// Create handles POST /dishes. Chefs create dishes under their own
// name; managers must name the chef explicitly.
func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a positive decimal"})
		return
	}
	var priceNum pgtype.Numeric
	if err := priceNum.Scan(price.StringFixed(2)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a positive decimal"})
		return
	}

	chefID := claims.ProfileID
	if claims.Role == enum.RoleManager {
		id, err := uuid.Parse(req.ChefID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "chef_id is required"})
			return
		}
		chefID = id
	}

	dish, err := h.store.CreateDish(r.Context(), database.CreateDishParams{
		ChefID:      chefID,
		Name:        req.Name,
		Description: req.Description,
		Price:       priceNum,
		IsVipOnly:   req.IsVipOnly,
	})
	if err != nil {
		log.Printf("ERROR: create dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toDishResponse(dish))
}

// SetAvailability handles PATCH /dishes/{id}/availability. Chefs can
// only touch their own dishes.
func (h *DishHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	var req setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	dish, err := h.store.GetDish(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: get dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if claims.Role == enum.RoleChef && dish.ChefID != claims.ProfileID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your dish"})
		return
	}

	updated, err := h.store.SetDishAvailability(r.Context(), id, req.IsAvailable)
	if err != nil {
		log.Printf("ERROR: set dish availability: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toDishResponse(updated))
}

// --- Helpers ---

func toDishResponse(d database.Dish) dishResponse {
	return dishResponse{
		ID:          d.ID,
		ChefID:      d.ChefID,
		Name:        d.Name,
		Description: d.Description,
		Price:       numericToString(d.Price),
		IsVipOnly:   d.IsVipOnly,
		IsAvailable: d.IsAvailable,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
