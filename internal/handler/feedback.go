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
	"github.com/goldenwok/api/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// FeedbackServicer defines the service methods needed by feedback
// handlers. Satisfied by *service.FeedbackService.
type FeedbackServicer interface {
	FileComplaint(ctx context.Context, req service.FileFeedbackRequest) (*database.Complaint, error)
	FileCompliment(ctx context.Context, req service.FileFeedbackRequest) (*database.Compliment, error)
	ReviewComplaint(ctx context.Context, req service.ReviewRequest) (*database.Complaint, error)
	ReviewCompliment(ctx context.Context, req service.ReviewRequest) (*database.Compliment, error)
	RateDish(ctx context.Context, req service.RateDishRequest) (*database.DishRating, error)
	RateDelivery(ctx context.Context, req service.RateDeliveryRequest) (*database.DeliveryRating, error)
}

// FeedbackStore defines the database methods needed by feedback read
// handlers. Satisfied by *database.Queries.
type FeedbackStore interface {
	ListComplaints(ctx context.Context, arg database.ListComplaintsParams) ([]database.Complaint, error)
	ListComplaintsByTarget(ctx context.Context, arg database.ListComplaintsByTargetParams) ([]database.Complaint, error)
	ListComplimentsByTarget(ctx context.Context, arg database.ListComplimentsByTargetParams) ([]database.Compliment, error)
	GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	GetOrderChef(ctx context.Context, orderID uuid.UUID) (database.Employee, error)
}

// FeedbackHandler handles complaints, compliments and ratings.
type FeedbackHandler struct {
	svc   FeedbackServicer
	store FeedbackStore
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(svc FeedbackServicer, store FeedbackStore) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, store: store}
}

// RegisterCustomerRoutes registers the customer-facing feedback endpoints.
func (h *FeedbackHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/complaints", h.FileComplaint)
	r.Post("/compliments", h.FileCompliment)
	r.Post("/ratings/dishes", h.RateDish)
	r.Post("/ratings/deliveries", h.RateDelivery)
}

// RegisterManagerRoutes registers the review endpoints.
func (h *FeedbackHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/complaints", h.ListComplaints)
	r.Patch("/complaints/{id}", h.ReviewComplaint)
	r.Patch("/compliments/{id}", h.ReviewCompliment)
}

// RegisterStaffRoutes registers the employee self-service endpoints.
func (h *FeedbackHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/chef/feedback", h.MyFeedback)
}

// --- Request / Response types ---

type fileFeedbackRequest struct {
	TargetKind  string `json:"target_kind"`
	TargetID    string `json:"target_id"`
	OrderID     string `json:"order_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type reviewRequest struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

type rateDishRequest struct {
	DishID string `json:"dish_id"`
	Rating int32  `json:"rating"`
	Review string `json:"review"`
}

type rateDeliveryRequest struct {
	OrderID string `json:"order_id"`
	Rating  int32  `json:"rating"`
	Review  string `json:"review"`
}

type complaintResponse struct {
	ID              uuid.UUID `json:"id"`
	ComplainantID   uuid.UUID `json:"complainant_id"`
	TargetKind      string    `json:"target_kind"`
	TargetID        uuid.UUID `json:"target_id"`
	OrderID         *string   `json:"order_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	ManagerResponse *string   `json:"manager_response"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ratingResponse struct {
	ID        uuid.UUID `json:"id"`
	Rating    int32     `json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type myFeedbackResponse struct {
	Complaints  []complaintResponse `json:"complaints"`
	Compliments []complaintResponse `json:"compliments"`
}

// --- Handlers ---

// FileComplaint handles POST /complaints.
func (h *FeedbackHandler) FileComplaint(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	svcReq, ok := h.decodeFileRequest(w, r, claims.ProfileID)
	if !ok {
		return
	}

	c, err := h.svc.FileComplaint(r.Context(), svcReq)
	if err != nil {
		writeFeedbackError(w, err, "file complaint")
		return
	}
	writeJSON(w, http.StatusCreated, toComplaintResponse(*c))
}

// FileCompliment handles POST /compliments.
func (h *FeedbackHandler) FileCompliment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	svcReq, ok := h.decodeFileRequest(w, r, claims.ProfileID)
	if !ok {
		return
	}

	c, err := h.svc.FileCompliment(r.Context(), svcReq)
	if err != nil {
		writeFeedbackError(w, err, "file compliment")
		return
	}
	writeJSON(w, http.StatusCreated, toComplimentResponse(*c))
}

// ListComplaints handles GET /complaints with an optional status filter.
func (h *FeedbackHandler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	params := database.ListComplaintsParams{Limit: 50, Offset: 0}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = database.NullComplaintStatus{ComplaintStatus: database.ComplaintStatus(s), Valid: true}
	}

	complaints, err := h.store.ListComplaints(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list complaints: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]complaintResponse, len(complaints))
	for i, c := range complaints {
		resp[i] = toComplaintResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string][]complaintResponse{"complaints": resp})
}

// ReviewComplaint handles PATCH /complaints/{id}.
func (h *FeedbackHandler) ReviewComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid complaint ID"})
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.svc.ReviewComplaint(r.Context(), service.ReviewRequest{
		ID:       id,
		Status:   req.Status,
		Response: req.Response,
	})
	if err != nil {
		writeFeedbackError(w, err, "review complaint")
		return
	}
	writeJSON(w, http.StatusOK, toComplaintResponse(*c))
}

// ReviewCompliment handles PATCH /compliments/{id}.
func (h *FeedbackHandler) ReviewCompliment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid compliment ID"})
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.svc.ReviewCompliment(r.Context(), service.ReviewRequest{
		ID:       id,
		Status:   req.Status,
		Response: req.Response,
	})
	if err != nil {
		writeFeedbackError(w, err, "review compliment")
		return
	}
	writeJSON(w, http.StatusOK, toComplimentResponse(*c))
}

// MyFeedback handles GET /chef/feedback: everything filed against the
// calling employee.
func (h *FeedbackHandler) MyFeedback(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	kind := database.FeedbackTargetChef
	if claims.Role == enum.RoleCourier {
		kind = database.FeedbackTargetCourier
	}

	complaints, err := h.store.ListComplaintsByTarget(r.Context(), database.ListComplaintsByTargetParams{
		TargetKind: kind,
		TargetID:   claims.ProfileID,
	})
	if err != nil {
		log.Printf("ERROR: list complaints by target: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	compliments, err := h.store.ListComplimentsByTarget(r.Context(), database.ListComplimentsByTargetParams{
		TargetKind: kind,
		TargetID:   claims.ProfileID,
	})
	if err != nil {
		log.Printf("ERROR: list compliments by target: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := myFeedbackResponse{
		Complaints:  make([]complaintResponse, len(complaints)),
		Compliments: make([]complaintResponse, len(compliments)),
	}
	for i, c := range complaints {
		resp.Complaints[i] = toComplaintResponse(c)
	}
	for i, c := range compliments {
		resp.Compliments[i] = toComplimentResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// RateDish handles POST /ratings/dishes.
func (h *FeedbackHandler) RateDish(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req rateDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	dishID, err := uuid.Parse(req.DishID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish_id"})
		return
	}

	rating, err := h.svc.RateDish(r.Context(), service.RateDishRequest{
		CustomerID: claims.ProfileID,
		DishID:     dishID,
		Rating:     req.Rating,
		Review:     req.Review,
	})
	if err != nil {
		writeFeedbackError(w, err, "rate dish")
		return
	}
	writeJSON(w, http.StatusOK, ratingResponse{
		ID:        rating.ID,
		Rating:    rating.Rating,
		Review:    rating.Review,
		CreatedAt: rating.CreatedAt,
	})
}

// RateDelivery handles POST /ratings/deliveries.
func (h *FeedbackHandler) RateDelivery(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req rateDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
		return
	}

	rating, err := h.svc.RateDelivery(r.Context(), service.RateDeliveryRequest{
		CustomerID: claims.ProfileID,
		OrderID:    orderID,
		Rating:     req.Rating,
		Review:     req.Review,
	})
	if err != nil {
		writeFeedbackError(w, err, "rate delivery")
		return
	}
	writeJSON(w, http.StatusOK, ratingResponse{
		ID:        rating.ID,
		Rating:    rating.Rating,
		Review:    rating.Review,
		CreatedAt: rating.CreatedAt,
	})
}

// --- Helpers ---

// decodeFileRequest parses a filing request and resolves its target.
// With an order_id, chef and courier targets are resolved from the
// order itself: the chef behind its dishes, or the assigned courier.
func (h *FeedbackHandler) decodeFileRequest(w http.ResponseWriter, r *http.Request, customerID uuid.UUID) (service.FileFeedbackRequest, bool) {
	var req fileFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return service.FileFeedbackRequest{}, false
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return service.FileFeedbackRequest{}, false
	}

	kind := database.FeedbackTarget(req.TargetKind)
	switch kind {
	case database.FeedbackTargetChef, database.FeedbackTargetCourier, database.FeedbackTargetCustomer:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid target_kind"})
		return service.FileFeedbackRequest{}, false
	}

	svcReq := service.FileFeedbackRequest{
		ComplainantID: customerID,
		TargetKind:    kind,
		Title:         req.Title,
		Description:   req.Description,
	}

	var order *database.Order
	if req.OrderID != "" {
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
			return service.FileFeedbackRequest{}, false
		}
		o, err := h.store.GetOrderForCustomer(r.Context(), database.GetOrderForCustomerParams{
			ID:         orderID,
			CustomerID: customerID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
				return service.FileFeedbackRequest{}, false
			}
			log.Printf("ERROR: get order for feedback: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return service.FileFeedbackRequest{}, false
		}
		order = &o
		svcReq.OrderID = pgtype.UUID{Bytes: orderID, Valid: true}
	}

	switch {
	case req.TargetID != "":
		targetID, err := uuid.Parse(req.TargetID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid target_id"})
			return service.FileFeedbackRequest{}, false
		}
		svcReq.TargetID = targetID
	case kind == database.FeedbackTargetChef && order != nil:
		chef, err := h.store.GetOrderChef(r.Context(), order.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no chef found for order"})
				return service.FileFeedbackRequest{}, false
			}
			log.Printf("ERROR: resolve order chef: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return service.FileFeedbackRequest{}, false
		}
		svcReq.TargetID = chef.ID
	case kind == database.FeedbackTargetCourier && order != nil:
		if !order.CourierID.Valid {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order has no courier assigned"})
			return service.FileFeedbackRequest{}, false
		}
		svcReq.TargetID = uuid.UUID(order.CourierID.Bytes)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target_id or order_id is required"})
		return service.FileFeedbackRequest{}, false
	}

	return svcReq, true
}

func writeFeedbackError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrTargetNotFound),
		errors.Is(err, service.ErrFeedbackNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrDishNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateFeedback),
		errors.Is(err, service.ErrAlreadyReviewed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTargetKind),
		errors.Is(err, service.ErrInvalidReview),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrOrderNotDelivered):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toComplaintResponse(c database.Complaint) complaintResponse {
	resp := complaintResponse{
		ID:            c.ID,
		ComplainantID: c.ComplainantID,
		TargetKind:    string(c.TargetKind),
		TargetID:      c.TargetID,
		Title:         c.Title,
		Description:   c.Description,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.OrderID.Valid {
		s := uuid.UUID(c.OrderID.Bytes).String()
		resp.OrderID = &s
	}
	if c.ManagerResponse.Valid {
		resp.ManagerResponse = &c.ManagerResponse.String
	}
	return resp
}

// toComplimentResponse reuses the complaint shape; the two rows are
// structurally identical.
func toComplimentResponse(c database.Compliment) complaintResponse {
	resp := complaintResponse{
		ID:            c.ID,
		ComplainantID: c.ComplainantID,
		TargetKind:    string(c.TargetKind),
		TargetID:      c.TargetID,
		Title:         c.Title,
		Description:   c.Description,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.OrderID.Valid {
		s := uuid.UUID(c.OrderID.Bytes).String()
		resp.OrderID = &s
	}
	if c.ManagerResponse.Valid {
		resp.ManagerResponse = &c.ManagerResponse.String
	}
	return resp
}
