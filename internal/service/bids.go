package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/goldenwok/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the bid service.
var (
	ErrNoBids           = errors.New("no bids for this order")
	ErrBiddingClosed    = errors.New("order is not open for bidding")
	ErrInvalidBidAmount = errors.New("bid_amount must be > 0")
	ErrCourierInactive  = errors.New("courier is not active")
	ErrBidNotFound      = errors.New("bid not found")
	ErrSelectionClosed  = errors.New("order is past the selection window")
)

// BidStore defines the DB methods needed for bidding.
// Satisfied by *database.Queries (and its WithTx variant).
type BidStore interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
	UpsertBid(ctx context.Context, arg database.UpsertBidParams) (database.DeliveryBid, error)
	GetBid(ctx context.Context, id uuid.UUID) (database.DeliveryBid, error)
	SelectBid(ctx context.Context, arg database.SelectBidParams) (database.DeliveryBid, error)
	DeselectBid(ctx context.Context, id uuid.UUID) (database.DeliveryBid, error)
	DeselectBidsForOrder(ctx context.Context, orderID uuid.UUID) error
	AssignOrderCourier(ctx context.Context, arg database.AssignOrderCourierParams) (database.Order, error)
}

// NewBidStore creates a BidStore from a DBTX (pool or tx).
type NewBidStore func(db database.DBTX) BidStore

// PlaceBidRequest is the validated input for placing a bid.
type PlaceBidRequest struct {
	CourierID     uuid.UUID
	OrderID       uuid.UUID
	BidAmount     string
	Justification string
}

// BidService handles delivery bid business logic.
type BidService struct {
	pool     TxBeginner
	newStore NewBidStore
}

// NewBidService creates a new BidService.
func NewBidService(pool TxBeginner, newStore NewBidStore) *BidService {
	return &BidService{pool: pool, newStore: newStore}
}

// PlaceBid records or amends a courier's bid on an order. The order
// row is locked so a bid cannot slip in while the ready transition is
// selecting a winner.
func (s *BidService) PlaceBid(ctx context.Context, req PlaceBidRequest) (*database.DeliveryBid, error) {
	amount, err := decimal.NewFromString(req.BidAmount)
	if err != nil || !amount.IsPositive() {
		return nil, ErrInvalidBidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	open := order.Status == database.OrderStatusConfirmed && !order.CourierID.Valid
	if !open {
		return nil, ErrBiddingClosed
	}

	courier, err := store.GetEmployee(ctx, req.CourierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourierInactive
		}
		return nil, fmt.Errorf("get courier: %w", err)
	}
	if courier.Kind != database.EmployeeKindCourier || !courier.IsActive {
		return nil, ErrCourierInactive
	}

	bid, err := store.UpsertBid(ctx, database.UpsertBidParams{
		CourierID:     req.CourierID,
		OrderID:       req.OrderID,
		BidAmount:     decimalToNumeric(amount),
		Justification: req.Justification,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert bid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &bid, nil
}

// SetSelection is the manager override for a single bid. Selecting
// deselects the order's previous winner, marks this bid and assigns
// its courier; deselecting clears the winner and unassigns the order.
// Both refuse once the order has left for delivery.
func (s *BidService) SetSelection(ctx context.Context, bidID uuid.UUID, selected bool, justification string) (*database.DeliveryBid, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	bid, err := store.GetBid(ctx, bidID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("get bid: %w", err)
	}

	order, err := store.GetOrderForUpdate(ctx, bid.OrderID)
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	switch order.Status {
	case database.OrderStatusConfirmed, database.OrderStatusPreparing, database.OrderStatusReady:
	default:
		return nil, fmt.Errorf("%w: order is %s", ErrSelectionClosed, order.Status)
	}

	if selected {
		courier, err := store.GetEmployee(ctx, bid.CourierID)
		if err != nil {
			return nil, fmt.Errorf("get courier: %w", err)
		}
		if !courier.IsActive {
			return nil, ErrCourierInactive
		}

		if err := store.DeselectBidsForOrder(ctx, bid.OrderID); err != nil {
			return nil, fmt.Errorf("deselect bids: %w", err)
		}
		bid, err = store.SelectBid(ctx, database.SelectBidParams{ID: bidID, Justification: justification})
		if err != nil {
			return nil, fmt.Errorf("select bid: %w", err)
		}
		if _, err := store.AssignOrderCourier(ctx, database.AssignOrderCourierParams{
			ID:        bid.OrderID,
			CourierID: pgtype.UUID{Bytes: bid.CourierID, Valid: true},
		}); err != nil {
			return nil, fmt.Errorf("assign courier: %w", err)
		}
	} else if bid.IsSelected {
		bid, err = store.DeselectBid(ctx, bidID)
		if err != nil {
			return nil, fmt.Errorf("deselect bid: %w", err)
		}
		if _, err := store.AssignOrderCourier(ctx, database.AssignOrderCourierParams{
			ID: bid.OrderID,
		}); err != nil {
			return nil, fmt.Errorf("unassign courier: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &bid, nil
}
