package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goldenwok/api/internal/database"
	"github.com/goldenwok/api/internal/enum"
	"github.com/goldenwok/api/internal/middleware"
	"github.com/goldenwok/api/internal/service"
	"github.com/goldenwok/api/internal/ws"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Broadcaster pushes events to WebSocket subscribers.
// Satisfied by *ws.Hub; nil disables broadcasting (tests).
type Broadcaster interface {
	Broadcast(topic string, event ws.Event)
}

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	CancelOrder(ctx context.Context, orderID, customerID uuid.UUID) (*database.Order, error)
	AdvanceStatus(ctx context.Context, req service.AdvanceOrderRequest) (*service.AdvanceOrderResult, error)
	SelectCourier(ctx context.Context, orderID uuid.UUID) (*service.AdvanceOrderResult, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterCustomerRoutes registers the customer-facing order endpoints.
func (h *OrderHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Cancel)
}

// RegisterSharedRoutes registers the read endpoints available to every
// authenticated role.
func (h *OrderHandler) RegisterSharedRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterStaffRoutes registers the staff-side lifecycle endpoints.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Patch("/{id}/status", h.UpdateStatus)
}

// RegisterManagerRoutes registers manager-only order endpoints.
func (h *OrderHandler) RegisterManagerRoutes(r chi.Router) {
	r.Post("/{id}/bids/select", h.SelectCourier)
	r.Patch("/status", h.BulkUpdateStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	DeliveryAddress string                   `json:"delivery_address"`
	Memo            string                   `json:"memo"`
	Items           []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	DishID   string `json:"dish_id"`
	Quantity int32  `json:"quantity"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	Status          string              `json:"status"`
	Subtotal        string              `json:"subtotal"`
	VipDiscount     string              `json:"vip_discount"`
	TotalAmount     string              `json:"total_amount"`
	CourierID       *string             `json:"courier_id"`
	DeliveryAddress *string             `json:"delivery_address"`
	Memo            *string             `json:"memo"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Items           []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	DishID    uuid.UUID `json:"dish_id"`
	Quantity  int32     `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type advanceOrderResponse struct {
	orderResponse
	SelectedBid *bidResponse `json:"selected_bid,omitempty"`
}

type bulkUpdateStatusRequest struct {
	OrderIDs []string `json:"order_ids"`
	Status   string   `json:"status"`
}

type bulkUpdateError struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
}

type bulkUpdateStatusResponse struct {
	Orders []advanceOrderResponse `json:"orders"`
	Errors []bulkUpdateError      `json:"errors"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	svcItems := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.CreateOrderItemRequest{
			DishID:   item.DishID,
			Quantity: item.Quantity,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerID:      claims.ProfileID,
		DeliveryAddress: req.DeliveryAddress,
		Memo:            req.Memo,
		Items:           svcItems,
	})
	if err != nil {
		var insufficient *service.InsufficientFundsError
		switch {
		case errors.As(err, &insufficient):
			writeJSON(w, http.StatusPaymentRequired, map[string]string{
				"error":     "insufficient deposit",
				"required":  insufficient.Required.StringFixed(2),
				"available": insufficient.Available.StringFixed(2),
			})
		case errors.Is(err, service.ErrBlacklisted):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		case isOrderValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: create order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcastOrder("order.created", result.Order)
	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// List handles GET /orders. Customers see their own orders; staff see
// everything.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}
	if claims.Role == enum.RoleCustomer {
		params.CustomerID = pgtype.UUID{Bytes: claims.ProfileID, Valid: true}
	}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = database.NullOrderStatus{OrderStatus: database.OrderStatus(s), Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	var order database.Order
	if claims.Role == enum.RoleCustomer {
		order, err = h.store.GetOrderForCustomer(r.Context(), database.GetOrderForCustomerParams{
			ID:         orderID,
			CustomerID: claims.ProfileID,
		})
	} else {
		order, err = h.store.GetOrder(r.Context(), orderID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// Cancel handles DELETE /orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.svc.CancelOrder(r.Context(), orderID, claims.ProfileID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrNotCancellable):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: cancel order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcastOrder("order.cancelled", *order)
	writeJSON(w, http.StatusOK, toOrderResponse(*order, nil))
}

// UpdateStatus handles PATCH /orders/{id}/status. The transition to
// ready triggers courier selection; out_for_delivery and delivered are
// reserved for the assigned courier.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	target := database.OrderStatus(req.Status)
	if !isAdvanceableStatus(target) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	// Couriers may only drive the delivery legs of their own orders.
	courierID := claims.ProfileID
	if claims.Role == enum.RoleCourier &&
		target != database.OrderStatusOutForDelivery && target != database.OrderStatusDelivered {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "couriers may only update delivery transitions"})
		return
	}

	result, err := h.svc.AdvanceStatus(r.Context(), service.AdvanceOrderRequest{
		OrderID:   orderID,
		Target:    target,
		CourierID: courierID,
		Role:      claims.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrNotYourDelivery), errors.Is(err, service.ErrNoCourier):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: advance order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcastOrder("order.status_changed", result.Order)

	resp := advanceOrderResponse{orderResponse: toOrderResponse(result.Order, nil)}
	if result.SelectedBid != nil {
		b := toBidResponse(*result.SelectedBid)
		resp.SelectedBid = &b
		h.broadcastBid("bid.selected", *result.SelectedBid)
	}
	writeJSON(w, http.StatusOK, resp)
}

// BulkUpdateStatus handles PATCH /orders/status: a manager advancing a
// batch of orders to the same status in one call. Each order advances
// in its own transaction; failures are reported per order without
// aborting the rest.
func (h *OrderHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req bulkUpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.OrderIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_ids are required"})
		return
	}
	target := database.OrderStatus(req.Status)
	if !isAdvanceableStatus(target) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	resp := bulkUpdateStatusResponse{
		Orders: []advanceOrderResponse{},
		Errors: []bulkUpdateError{},
	}
	for _, raw := range req.OrderIDs {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			resp.Errors = append(resp.Errors, bulkUpdateError{OrderID: raw, Error: "invalid order ID"})
			continue
		}

		result, err := h.svc.AdvanceStatus(r.Context(), service.AdvanceOrderRequest{
			OrderID:   orderID,
			Target:    target,
			CourierID: claims.ProfileID,
			Role:      claims.Role,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrOrderNotFound),
				errors.Is(err, service.ErrInvalidTransition),
				errors.Is(err, service.ErrNotYourDelivery),
				errors.Is(err, service.ErrNoCourier):
				resp.Errors = append(resp.Errors, bulkUpdateError{OrderID: raw, Error: err.Error()})
			default:
				log.Printf("ERROR: bulk advance order %s: %v", raw, err)
				resp.Errors = append(resp.Errors, bulkUpdateError{OrderID: raw, Error: "internal server error"})
			}
			continue
		}

		h.broadcastOrder("order.status_changed", result.Order)

		item := advanceOrderResponse{orderResponse: toOrderResponse(result.Order, nil)}
		if result.SelectedBid != nil {
			b := toBidResponse(*result.SelectedBid)
			item.SelectedBid = &b
			h.broadcastBid("bid.selected", *result.SelectedBid)
		}
		resp.Orders = append(resp.Orders, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SelectCourier handles POST /orders/{id}/bids/select: a manager
// re-running selection for a ready order that had no bids.
func (h *OrderHandler) SelectCourier(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	result, err := h.svc.SelectCourier(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrNoBids):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: select courier: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcastBid("bid.selected", *result.SelectedBid)

	resp := advanceOrderResponse{orderResponse: toOrderResponse(result.Order, nil)}
	b := toBidResponse(*result.SelectedBid)
	resp.SelectedBid = &b
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidDishID) ||
		errors.Is(err, service.ErrDishNotFound) ||
		errors.Is(err, service.ErrCustomerNotFound) ||
		errors.Is(err, service.ErrVipOnlyDish)
}

// isAdvanceableStatus reports whether the status is a legal PATCH
// target. Pending is the creation status and cancelled goes through
// DELETE, so neither can be set here.
func isAdvanceableStatus(s database.OrderStatus) bool {
	switch s {
	case database.OrderStatusConfirmed,
		database.OrderStatusPreparing,
		database.OrderStatusReady,
		database.OrderStatusOutForDelivery,
		database.OrderStatusDelivered:
		return true
	}
	return false
}

func (h *OrderHandler) broadcastOrder(eventType string, order database.Order) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(toOrderResponse(order, nil))
	if err != nil {
		log.Printf("ERROR: marshal order event: %v", err)
		return
	}
	h.hub.Broadcast(ws.TopicOrders, ws.Event{Type: eventType, Payload: payload})
}

func (h *OrderHandler) broadcastBid(eventType string, bid database.DeliveryBid) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(toBidResponse(bid))
	if err != nil {
		log.Printf("ERROR: marshal bid event: %v", err)
		return
	}
	h.hub.Broadcast(ws.TopicBids, ws.Event{Type: eventType, Payload: payload})
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		Subtotal:    numericToString(o.Subtotal),
		VipDiscount: numericToString(o.VipDiscount),
		TotalAmount: numericToString(o.TotalAmount),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.CourierID.Valid {
		s := uuid.UUID(o.CourierID.Bytes).String()
		resp.CourierID = &s
	}
	if o.DeliveryAddress.Valid {
		resp.DeliveryAddress = &o.DeliveryAddress.String
	}
	if o.Memo.Valid {
		resp.Memo = &o.Memo.String
	}
	if len(items) > 0 {
		resp.Items = make([]orderItemResponse, len(items))
		for i, it := range items {
			resp.Items[i] = orderItemResponse{
				ID:        it.ID,
				DishID:    it.DishID,
				Quantity:  it.Quantity,
				UnitPrice: numericToString(it.UnitPrice),
			}
		}
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
