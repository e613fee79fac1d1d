package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, customer_id, status, subtotal, vip_discount, total_amount, courier_id, delivery_address, memo, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.Status, &o.Subtotal, &o.VipDiscount,
		&o.TotalAmount, &o.CourierID, &o.DeliveryAddress, &o.Memo,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	CustomerID      uuid.UUID
	Subtotal        pgtype.Numeric
	VipDiscount     pgtype.Numeric
	TotalAmount     pgtype.Numeric
	DeliveryAddress pgtype.Text
	Memo            pgtype.Text
}

const createOrder = `
INSERT INTO orders (customer_id, status, subtotal, vip_discount, total_amount, delivery_address, memo)
VALUES ($1, 'pending', $2, $3, $4, $5, $6)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.CustomerID, arg.Subtotal, arg.VipDiscount, arg.TotalAmount,
		arg.DeliveryAddress, arg.Memo))
}

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	DishID    uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
}

const createOrderItem = `
INSERT INTO order_items (order_id, dish_id, quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, dish_id, quantity, unit_price`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.DishID, arg.Quantity, arg.UnitPrice,
	).Scan(&it.ID, &it.OrderID, &it.DishID, &it.Quantity, &it.UnitPrice)
	return it, err
}

const getOrder = `
SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `
SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR NO KEY UPDATE`

// GetOrderForUpdate locks the order row to serialize bid selection and
// status changes against each other.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

type GetOrderForCustomerParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
}

const getOrderForCustomer = `
SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND customer_id = $2`

func (q *Queries) GetOrderForCustomer(ctx context.Context, arg GetOrderForCustomerParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForCustomer, arg.ID, arg.CustomerID))
}

type ListOrdersParams struct {
	CustomerID pgtype.UUID
	Status     NullOrderStatus
	Limit      int32
	Offset     int32
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::uuid IS NULL OR customer_id = $1)
  AND ($2::order_status IS NULL OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.CustomerID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, dish_id, quantity, unit_price
FROM order_items
WHERE order_id = $1`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     OrderStatus
	FromStatus OrderStatus
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

// UpdateOrderStatus is a compare-and-swap on the status column: no rows
// means the order moved since it was read.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus))
}

type CancelOrderParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
}

const cancelOrder = `
UPDATE orders
SET status = 'cancelled', updated_at = now()
WHERE id = $1 AND customer_id = $2 AND status = 'pending'
RETURNING ` + orderColumns

// CancelOrder enforces the pending-only precondition atomically.
func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, cancelOrder, arg.ID, arg.CustomerID))
}

type AssignOrderCourierParams struct {
	ID        uuid.UUID
	CourierID pgtype.UUID
}

const assignOrderCourier = `
UPDATE orders
SET courier_id = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) AssignOrderCourier(ctx context.Context, arg AssignOrderCourierParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, assignOrderCourier, arg.ID, arg.CourierID))
}

const listOrdersOpenForBidding = `
SELECT ` + orderColumns + `
FROM orders
WHERE status = 'confirmed' AND courier_id IS NULL
ORDER BY created_at DESC`

// ListOrdersOpenForBidding returns orders couriers may still bid on:
// confirmed, with no courier assigned yet.
func (q *Queries) ListOrdersOpenForBidding(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersOpenForBidding)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

const getOrderChef = `
SELECT ` + "e.id, e.user_id, e.kind, e.salary, e.demotion_count, e.bonus_count, e.is_active, e.is_terminated, e.created_at, e.updated_at" + `
FROM employees e
JOIN dishes d ON d.chef_id = e.id
JOIN order_items oi ON oi.dish_id = d.id
WHERE oi.order_id = $1
ORDER BY oi.id
LIMIT 1`

// GetOrderChef resolves the chef responsible for an order's dishes.
func (q *Queries) GetOrderChef(ctx context.Context, orderID uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getOrderChef, orderID))
}
