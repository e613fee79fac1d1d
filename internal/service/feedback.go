package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/goldenwok/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Errors returned by the feedback service.
var (
	ErrInvalidTargetKind = errors.New("invalid target kind")
	ErrTargetNotFound    = errors.New("feedback target not found")
	ErrDuplicateFeedback = errors.New("feedback already filed for this target and order")
	ErrFeedbackNotFound  = errors.New("feedback not found")
	ErrAlreadyReviewed   = errors.New("feedback already reviewed")
	ErrInvalidReview     = errors.New("invalid review status")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrOrderNotDelivered = errors.New("order has not been delivered")
)

// FeedbackStore defines the DB methods needed for feedback and
// ratings. Satisfied by *database.Queries (and its WithTx variant).
type FeedbackStore interface {
	ReputationStore

	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
	GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)

	CreateComplaint(ctx context.Context, arg database.CreateComplaintParams) (database.Complaint, error)
	GetComplaint(ctx context.Context, id uuid.UUID) (database.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, arg database.UpdateComplaintStatusParams) (database.Complaint, error)

	CreateCompliment(ctx context.Context, arg database.CreateComplimentParams) (database.Compliment, error)
	GetCompliment(ctx context.Context, id uuid.UUID) (database.Compliment, error)
	UpdateComplimentStatus(ctx context.Context, arg database.UpdateComplimentStatusParams) (database.Compliment, error)

	UpsertDishRating(ctx context.Context, arg database.UpsertDishRatingParams) (database.DishRating, error)
	UpsertDeliveryRating(ctx context.Context, arg database.UpsertDeliveryRatingParams) (database.DeliveryRating, error)
}

// NewFeedbackStore creates a FeedbackStore from a DBTX (pool or tx).
type NewFeedbackStore func(db database.DBTX) FeedbackStore

// FileFeedbackRequest is the input for filing a complaint or a
// compliment.
type FileFeedbackRequest struct {
	ComplainantID uuid.UUID
	TargetKind    database.FeedbackTarget
	TargetID      uuid.UUID
	OrderID       pgtype.UUID
	Title         string
	Description   string
}

// ReviewRequest is a manager's verdict on a filed complaint or
// compliment.
type ReviewRequest struct {
	ID       uuid.UUID
	Status   string
	Response string
}

// RateDishRequest scores a dish 1-5.
type RateDishRequest struct {
	CustomerID uuid.UUID
	DishID     uuid.UUID
	Rating     int32
	Review     string
}

// RateDeliveryRequest scores a delivered order's courier 1-5.
type RateDeliveryRequest struct {
	CustomerID uuid.UUID
	OrderID    uuid.UUID
	Rating     int32
	Review     string
}

// FeedbackService handles complaints, compliments and ratings. Review
// verdicts and new ratings dispatch the reputation engine inside the
// same transaction, so a verdict and its consequences commit together.
type FeedbackService struct {
	pool     TxBeginner
	newStore NewFeedbackStore
	engine   *Engine
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(pool TxBeginner, newStore NewFeedbackStore) *FeedbackService {
	return &FeedbackService{pool: pool, newStore: newStore, engine: NewEngine()}
}

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// verifyTarget checks the feedback target exists and matches its kind.
func verifyTarget(ctx context.Context, store FeedbackStore, kind database.FeedbackTarget, id uuid.UUID) error {
	switch kind {
	case database.FeedbackTargetCustomer:
		if _, err := store.GetCustomer(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTargetNotFound
			}
			return fmt.Errorf("get customer: %w", err)
		}
	case database.FeedbackTargetChef, database.FeedbackTargetCourier:
		emp, err := store.GetEmployee(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTargetNotFound
			}
			return fmt.Errorf("get employee: %w", err)
		}
		if string(emp.Kind) != string(kind) {
			return ErrTargetNotFound
		}
	default:
		return ErrInvalidTargetKind
	}
	return nil
}

// FileComplaint records a new complaint in pending status. Nothing is
// applied to anyone's standing until a manager resolves it.
func (s *FeedbackService) FileComplaint(ctx context.Context, req FileFeedbackRequest) (*database.Complaint, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if err := verifyTarget(ctx, store, req.TargetKind, req.TargetID); err != nil {
		return nil, err
	}

	c, err := store.CreateComplaint(ctx, database.CreateComplaintParams{
		ComplainantID: req.ComplainantID,
		TargetKind:    req.TargetKind,
		TargetID:      req.TargetID,
		OrderID:       req.OrderID,
		Title:         req.Title,
		Description:   req.Description,
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateFeedback
		}
		return nil, fmt.Errorf("create complaint: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &c, nil
}

// FileCompliment records a new compliment in pending status.
func (s *FeedbackService) FileCompliment(ctx context.Context, req FileFeedbackRequest) (*database.Compliment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if err := verifyTarget(ctx, store, req.TargetKind, req.TargetID); err != nil {
		return nil, err
	}

	c, err := store.CreateCompliment(ctx, database.CreateComplimentParams{
		ComplainantID: req.ComplainantID,
		TargetKind:    req.TargetKind,
		TargetID:      req.TargetID,
		OrderID:       req.OrderID,
		Title:         req.Title,
		Description:   req.Description,
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateFeedback
		}
		return nil, fmt.Errorf("create compliment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &c, nil
}

// complaintReviewAllowed maps current status to the verdicts a manager
// may issue from it.
func complaintReviewAllowed(from database.ComplaintStatus, to database.ComplaintStatus) bool {
	switch from {
	case database.ComplaintStatusPending:
		return to == database.ComplaintStatusInvestigating ||
			to == database.ComplaintStatusResolved ||
			to == database.ComplaintStatusDismissed
	case database.ComplaintStatusInvestigating:
		return to == database.ComplaintStatusResolved ||
			to == database.ComplaintStatusDismissed
	}
	return false
}

// ReviewComplaint applies a manager's verdict. A terminal verdict
// (resolved or dismissed) dispatches the reputation engine in the same
// transaction.
func (s *FeedbackService) ReviewComplaint(ctx context.Context, req ReviewRequest) (*database.Complaint, error) {
	target := database.ComplaintStatus(req.Status)
	switch target {
	case database.ComplaintStatusInvestigating, database.ComplaintStatusResolved, database.ComplaintStatusDismissed:
	default:
		return nil, ErrInvalidReview
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	c, err := store.GetComplaint(ctx, req.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("get complaint: %w", err)
	}
	if !complaintReviewAllowed(c.Status, target) {
		return nil, ErrAlreadyReviewed
	}

	response := pgtype.Text{}
	if req.Response != "" {
		response = pgtype.Text{String: req.Response, Valid: true}
	}

	c, err = store.UpdateComplaintStatus(ctx, database.UpdateComplaintStatusParams{
		ID:              req.ID,
		Status:          target,
		FromStatus:      c.Status,
		ManagerResponse: response,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("update complaint: %w", err)
	}

	if target == database.ComplaintStatusResolved || target == database.ComplaintStatusDismissed {
		if _, err := s.engine.ApplyComplaint(ctx, store, c); err != nil {
			return nil, fmt.Errorf("apply complaint: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &c, nil
}

// ReviewCompliment applies a manager's verdict on a compliment.
func (s *FeedbackService) ReviewCompliment(ctx context.Context, req ReviewRequest) (*database.Compliment, error) {
	target := database.ComplimentStatus(req.Status)
	switch target {
	case database.ComplimentStatusApproved, database.ComplimentStatusDismissed:
	default:
		return nil, ErrInvalidReview
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	c, err := store.GetCompliment(ctx, req.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("get compliment: %w", err)
	}
	if c.Status != database.ComplimentStatusPending {
		return nil, ErrAlreadyReviewed
	}

	response := pgtype.Text{}
	if req.Response != "" {
		response = pgtype.Text{String: req.Response, Valid: true}
	}

	c, err = store.UpdateComplimentStatus(ctx, database.UpdateComplimentStatusParams{
		ID:              req.ID,
		Status:          target,
		FromStatus:      database.ComplimentStatusPending,
		ManagerResponse: response,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("update compliment: %w", err)
	}

	if _, err := s.engine.ApplyCompliment(ctx, store, c); err != nil {
		return nil, fmt.Errorf("apply compliment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &c, nil
}

// RateDish records a dish score and feeds it into the chef's standing
// in the same transaction. Re-rating replaces the score but the sample
// is only evaluated once.
func (s *FeedbackService) RateDish(ctx context.Context, req RateDishRequest) (*database.DishRating, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetDish(ctx, req.DishID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDishNotFound
		}
		return nil, fmt.Errorf("get dish: %w", err)
	}

	r, err := store.UpsertDishRating(ctx, database.UpsertDishRatingParams{
		CustomerID: req.CustomerID,
		DishID:     req.DishID,
		Rating:     req.Rating,
		Review:     req.Review,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert dish rating: %w", err)
	}

	if _, err := s.engine.ApplyDishRating(ctx, store, r); err != nil {
		return nil, fmt.Errorf("apply dish rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &r, nil
}

// RateDelivery records a courier score for a delivered order owned by
// the rating customer.
func (s *FeedbackService) RateDelivery(ctx context.Context, req RateDeliveryRequest) (*database.DeliveryRating, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForCustomer(ctx, database.GetOrderForCustomerParams{
		ID:         req.OrderID,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != database.OrderStatusDelivered || !order.CourierID.Valid {
		return nil, ErrOrderNotDelivered
	}

	r, err := store.UpsertDeliveryRating(ctx, database.UpsertDeliveryRatingParams{
		CustomerID: req.CustomerID,
		CourierID:  uuid.UUID(order.CourierID.Bytes),
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Review:     req.Review,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert delivery rating: %w", err)
	}

	if _, err := s.engine.ApplyDeliveryRating(ctx, store, r); err != nil {
		return nil, fmt.Errorf("apply delivery rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &r, nil
}
