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
	"github.com/goldenwok/api/internal/service"
	"github.com/goldenwok/api/internal/ws"
	"github.com/google/uuid"
)

// BidServicer defines the service methods needed by bid handlers.
// Satisfied by *service.BidService; narrow interface for testability.
type BidServicer interface {
	PlaceBid(ctx context.Context, req service.PlaceBidRequest) (*database.DeliveryBid, error)
	SetSelection(ctx context.Context, bidID uuid.UUID, selected bool, justification string) (*database.DeliveryBid, error)
}

// BidStore defines the database methods needed by bid read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type BidStore interface {
	ListOrdersOpenForBidding(ctx context.Context) ([]database.Order, error)
	ListBidsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.DeliveryBid, error)
	ListBidsByCourier(ctx context.Context, courierID uuid.UUID) ([]database.DeliveryBid, error)
}

// BidHandler handles delivery bid endpoints.
type BidHandler struct {
	svc   BidServicer
	store BidStore
	hub   Broadcaster
}

// NewBidHandler creates a new BidHandler.
func NewBidHandler(svc BidServicer, store BidStore, hub Broadcaster) *BidHandler {
	return &BidHandler{svc: svc, store: store, hub: hub}
}

// RegisterCourierRoutes registers the courier-facing bid endpoints.
func (h *BidHandler) RegisterCourierRoutes(r chi.Router) {
	r.Get("/delivery/orders", h.ListOpenOrders)
	r.Get("/delivery/bids", h.ListMine)
	r.Put("/orders/{id}/bid", h.Place)
}

// RegisterManagerRoutes registers the manager-facing bid endpoints.
func (h *BidHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/orders/{id}/bids", h.ListByOrder)
	r.Patch("/bids/{id}", h.SetSelection)
}

// --- Request / Response types ---

type placeBidRequest struct {
	BidAmount     string `json:"bid_amount"`
	Justification string `json:"justification"`
}

type setSelectionRequest struct {
	IsSelected    bool   `json:"is_selected"`
	Justification string `json:"justification"`
}

type bidResponse struct {
	ID            uuid.UUID `json:"id"`
	CourierID     uuid.UUID `json:"courier_id"`
	OrderID       uuid.UUID `json:"order_id"`
	BidAmount     string    `json:"bid_amount"`
	IsSelected    bool      `json:"is_selected"`
	Justification string    `json:"justification,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type bidListResponse struct {
	Bids []bidResponse `json:"bids"`
}

// --- Handlers ---

// ListOpenOrders handles GET /delivery/orders: orders still open for
// bidding.
func (h *BidHandler) ListOpenOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrdersOpenForBidding(r.Context())
	if err != nil {
		log.Printf("ERROR: list open orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: len(resp), Offset: 0})
}

// ListMine handles GET /delivery/bids: the courier's own bid history.
func (h *BidHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	bids, err := h.store.ListBidsByCourier(r.Context(), claims.ProfileID)
	if err != nil {
		log.Printf("ERROR: list courier bids: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toBidListResponse(bids))
}

// Place handles PUT /orders/{id}/bid. PUT because rebidding replaces
// the courier's existing bid on the order.
func (h *BidHandler) Place(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	bid, err := h.svc.PlaceBid(r.Context(), service.PlaceBidRequest{
		CourierID:     claims.ProfileID,
		OrderID:       orderID,
		BidAmount:     req.BidAmount,
		Justification: req.Justification,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidBidAmount):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrBiddingClosed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrCourierInactive):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: place bid: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	if h.hub != nil {
		if payload, err := json.Marshal(toBidResponse(*bid)); err == nil {
			h.hub.Broadcast(ws.TopicBids, ws.Event{Type: "bid.placed", Payload: payload})
		}
	}
	writeJSON(w, http.StatusOK, toBidResponse(*bid))
}

// SetSelection handles PATCH /bids/{id}: the manager override that
// forces or clears the winning bid for an order.
func (h *BidHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	bidID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bid ID"})
		return
	}

	var req setSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	bid, err := h.svc.SetSelection(r.Context(), bidID, req.IsSelected, req.Justification)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBidNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "bid not found"})
		case errors.Is(err, service.ErrSelectionClosed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrCourierInactive):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: set bid selection: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	if h.hub != nil {
		eventType := "bid.deselected"
		if bid.IsSelected {
			eventType = "bid.selected"
		}
		if payload, err := json.Marshal(toBidResponse(*bid)); err == nil {
			h.hub.Broadcast(ws.TopicBids, ws.Event{Type: eventType, Payload: payload})
		}
	}
	writeJSON(w, http.StatusOK, toBidResponse(*bid))
}

// ListByOrder handles GET /orders/{id}/bids.
func (h *BidHandler) ListByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	bids, err := h.store.ListBidsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order bids: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toBidListResponse(bids))
}

// --- Helpers ---

func toBidResponse(b database.DeliveryBid) bidResponse {
	return bidResponse{
		ID:            b.ID,
		CourierID:     b.CourierID,
		OrderID:       b.OrderID,
		BidAmount:     numericToString(b.BidAmount),
		IsSelected:    b.IsSelected,
		Justification: b.Justification,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toBidListResponse(bids []database.DeliveryBid) bidListResponse {
	resp := bidListResponse{Bids: make([]bidResponse, len(bids))}
	for i, b := range bids {
		resp.Bids[i] = toBidResponse(b)
	}
	return resp
}
