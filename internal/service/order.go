package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/goldenwok/api/internal/database"
	"github.com/goldenwok/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// VIP members get a flat percentage off the subtotal, computed once at
// creation and frozen on the order row.
var vipDiscountRate = decimal.NewFromFloat(0.05)

// Errors returned by the order service.
var (
	ErrEmptyItems        = errors.New("items are required")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrInvalidDishID     = errors.New("invalid dish_id")
	ErrDishNotFound      = errors.New("dish not found or unavailable")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrBlacklisted       = errors.New("customer is blacklisted")
	ErrVipOnlyDish       = errors.New("dish is reserved for VIP members")
	ErrOrderNotFound     = errors.New("order not found")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotYourDelivery   = errors.New("order is not assigned to this courier")
	ErrNoCourier         = errors.New("order has no courier assigned")
)

// InsufficientFundsError reports a deposit that cannot cover an order.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient deposit: need %s, have %s", e.Required.StringFixed(2), e.Available.StringFixed(2))
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed for the order lifecycle.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	ReputationStore

	GetDishForOrder(ctx context.Context, id uuid.UUID) (database.Dish, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
	AssignOrderCourier(ctx context.Context, arg database.AssignOrderCourierParams) (database.Order, error)

	DebitDeposit(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (database.Customer, error)
	CreditDeposit(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (database.Customer, error)
	RecordSpend(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (database.Customer, error)
	DecrementOrderCount(ctx context.Context, id uuid.UUID) (database.Customer, error)

	GetLowestBid(ctx context.Context, orderID uuid.UUID) (database.DeliveryBid, error)
	SelectBid(ctx context.Context, arg database.SelectBidParams) (database.DeliveryBid, error)
	DeselectBidsForOrder(ctx context.Context, orderID uuid.UUID) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	CustomerID      uuid.UUID
	DeliveryAddress string
	Memo            string
	Items           []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line in the order.
type CreateOrderItemRequest struct {
	DishID   string
	Quantity int32
}

// CreateOrderResult is the created order with its lines.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// AdvanceOrderRequest moves an order one step along its status chain.
type AdvanceOrderRequest struct {
	OrderID uuid.UUID
	Target  database.OrderStatus

	// CourierID is required for the delivery transitions and must match
	// the courier assigned to the order, unless Role is manager.
	CourierID uuid.UUID
	Role      string
}

// AdvanceOrderResult carries the updated order, plus the winning bid
// when the transition to ready triggered courier selection.
type AdvanceOrderResult struct {
	Order       database.Order
	SelectedBid *database.DeliveryBid
}

// orderChain maps each status to its only legal successor. Cancelled is
// reachable solely through CancelOrder.
var orderChain = map[database.OrderStatus]database.OrderStatus{
	database.OrderStatusPending:        database.OrderStatusConfirmed,
	database.OrderStatusConfirmed:      database.OrderStatusPreparing,
	database.OrderStatusPreparing:      database.OrderStatusReady,
	database.OrderStatusReady:          database.OrderStatusOutForDelivery,
	database.OrderStatusOutForDelivery: database.OrderStatusDelivered,
}

// OrderService handles order lifecycle business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	engine   *Engine
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, engine: NewEngine()}
}

// CreateOrder prices the items, charges the deposit and creates the
// order atomically. An insufficient deposit rolls everything back but
// still costs the customer a warning, written in a second transaction
// so it survives the rollback.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	result, err := s.createOrderTx(ctx, req)

	var insufficient *InsufficientFundsError
	if errors.As(err, &insufficient) {
		if perr := s.penalizeInsufficientFunds(ctx, req.CustomerID); perr != nil {
			return nil, fmt.Errorf("record warning: %w", perr)
		}
		return nil, err
	}
	return result, err
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	cust, err := store.GetCustomerForUpdate(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("lock customer: %w", err)
	}
	if cust.IsBlacklisted {
		return nil, ErrBlacklisted
	}

	// --- Resolve dishes and price the lines ---
	subtotal := decimal.Zero
	type pricedItem struct {
		dishID    uuid.UUID
		quantity  int32
		unitPrice decimal.Decimal
	}
	var items []pricedItem

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		dishID, err := uuid.Parse(item.DishID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidDishID)
		}
		dish, err := store.GetDishForOrder(ctx, dishID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrDishNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get dish: %w", i, err)
		}
		if dish.IsVipOnly && !cust.IsVip {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrVipOnlyDish)
		}

		price := numericToDecimal(dish.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
		items = append(items, pricedItem{dishID: dishID, quantity: item.Quantity, unitPrice: price})
	}

	discount := decimal.Zero
	if cust.IsVip {
		discount = subtotal.Mul(vipDiscountRate).Round(2)
	}
	total := subtotal.Sub(discount)

	// --- Charge the deposit ---
	// The balance check and the subtraction are one statement; no rows
	// means the deposit cannot cover the total.
	if _, err := store.DebitDeposit(ctx, cust.ID, decimalToNumeric(total)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &InsufficientFundsError{
				Required:  total,
				Available: numericToDecimal(cust.Deposit),
			}
		}
		return nil, fmt.Errorf("debit deposit: %w", err)
	}

	// --- Insert order and lines ---
	deliveryAddress := pgtype.Text{}
	if req.DeliveryAddress != "" {
		deliveryAddress = pgtype.Text{String: req.DeliveryAddress, Valid: true}
	}
	memo := pgtype.Text{}
	if req.Memo != "" {
		memo = pgtype.Text{String: req.Memo, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CustomerID:      cust.ID,
		Subtotal:        decimalToNumeric(subtotal),
		VipDiscount:     decimalToNumeric(discount),
		TotalAmount:     decimalToNumeric(total),
		DeliveryAddress: deliveryAddress,
		Memo:            memo,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var lines []database.OrderItem
	for _, pi := range items {
		line, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			DishID:    pi.dishID,
			Quantity:  pi.quantity,
			UnitPrice: decimalToNumeric(pi.unitPrice),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		lines = append(lines, line)
	}

	// --- Update standing ---
	cust, err = store.RecordSpend(ctx, cust.ID, decimalToNumeric(total))
	if err != nil {
		return nil, fmt.Errorf("record spend: %w", err)
	}
	if _, err := s.engine.PromoteCustomerIfEligible(ctx, store, cust); err != nil {
		return nil, fmt.Errorf("evaluate vip: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: lines}, nil
}

func (s *OrderService) penalizeInsufficientFunds(ctx context.Context, customerID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if err := s.engine.PenalizeInsufficientFunds(ctx, store, customerID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CancelOrder cancels a pending order and refunds the deposit. Only the
// owning customer can cancel, and only before confirmation.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, customerID uuid.UUID) (*database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.CancelOrder(ctx, database.CancelOrderParams{ID: orderID, CustomerID: customerID})
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cancel order: %w", err)
		}
		// Disambiguate: missing order vs. one that already moved on.
		if _, gerr := store.GetOrderForCustomer(ctx, database.GetOrderForCustomerParams{ID: orderID, CustomerID: customerID}); gerr != nil {
			if errors.Is(gerr, pgx.ErrNoRows) {
				return nil, ErrOrderNotFound
			}
			return nil, fmt.Errorf("get order: %w", gerr)
		}
		return nil, ErrNotCancellable
	}

	if _, err := store.CreditDeposit(ctx, customerID, order.TotalAmount); err != nil {
		return nil, fmt.Errorf("refund deposit: %w", err)
	}
	if _, err := store.DecrementOrderCount(ctx, customerID); err != nil {
		return nil, fmt.Errorf("decrement order count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// AdvanceStatus moves an order to the next status in the chain. The
// transition to ready runs courier selection over the open bids; the
// transition to delivered re-evaluates the customer's VIP standing.
func (s *OrderService) AdvanceStatus(ctx context.Context, req AdvanceOrderRequest) (*AdvanceOrderResult, error) {
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

	if orderChain[order.Status] != req.Target {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, req.Target)
	}

	// Delivery transitions belong to the assigned courier; managers may
	// drive them on anyone's behalf.
	if req.Target == database.OrderStatusOutForDelivery || req.Target == database.OrderStatusDelivered {
		if !order.CourierID.Valid {
			return nil, ErrNoCourier
		}
		if req.Role != enum.RoleManager && uuid.UUID(order.CourierID.Bytes) != req.CourierID {
			return nil, ErrNotYourDelivery
		}
	}

	order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         req.OrderID,
		Status:     req.Target,
		FromStatus: order.Status,
	})
	if err != nil {
		// The row is locked, so a CAS miss here means a bug, not a race.
		return nil, fmt.Errorf("update status: %w", err)
	}

	result := &AdvanceOrderResult{Order: order}

	if req.Target == database.OrderStatusReady && !order.CourierID.Valid {
		bid, err := s.selectCourier(ctx, store, order)
		if err != nil {
			return nil, err
		}
		if bid != nil {
			result.SelectedBid = bid
			order, err = store.GetOrderForUpdate(ctx, order.ID)
			if err != nil {
				return nil, fmt.Errorf("reload order: %w", err)
			}
			result.Order = order
		}
	}

	if req.Target == database.OrderStatusDelivered {
		cust, err := store.GetCustomerForUpdate(ctx, order.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("lock customer: %w", err)
		}
		if _, err := s.engine.PromoteCustomerIfEligible(ctx, store, cust); err != nil {
			return nil, fmt.Errorf("evaluate vip: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// selectCourier assigns the lowest live bid to the order. Ties go to
// the earlier bid. No bids is not an error: the order stays ready and
// unassigned until a manager re-runs selection.
func (s *OrderService) selectCourier(ctx context.Context, store OrderStore, order database.Order) (*database.DeliveryBid, error) {
	bid, err := store.GetLowestBid(ctx, order.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lowest bid: %w", err)
	}

	if err := store.DeselectBidsForOrder(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("deselect bids: %w", err)
	}
	bid, err = store.SelectBid(ctx, database.SelectBidParams{
		ID:            bid.ID,
		Justification: "automatically selected as lowest bid",
	})
	if err != nil {
		return nil, fmt.Errorf("select bid: %w", err)
	}
	if _, err := store.AssignOrderCourier(ctx, database.AssignOrderCourierParams{
		ID:        order.ID,
		CourierID: pgtype.UUID{Bytes: bid.CourierID, Valid: true},
	}); err != nil {
		return nil, fmt.Errorf("assign courier: %w", err)
	}
	return &bid, nil
}

// SelectCourier re-runs courier selection for a ready, unassigned
// order. Managers use this when no bids existed at the ready
// transition.
func (s *OrderService) SelectCourier(ctx context.Context, orderID uuid.UUID) (*AdvanceOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	if order.Status != database.OrderStatusReady || order.CourierID.Valid {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
	}

	bid, err := s.selectCourier(ctx, store, order)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, ErrNoBids
	}

	order, err = store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &AdvanceOrderResult{Order: order, SelectedBid: bid}, nil
}
