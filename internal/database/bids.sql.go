package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const bidColumns = `id, courier_id, order_id, bid_amount, is_selected, justification, created_at, updated_at`

func scanBid(row interface{ Scan(dest ...any) error }) (DeliveryBid, error) {
	var b DeliveryBid
	err := row.Scan(
		&b.ID, &b.CourierID, &b.OrderID, &b.BidAmount, &b.IsSelected,
		&b.Justification, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

type UpsertBidParams struct {
	CourierID     uuid.UUID
	OrderID       uuid.UUID
	BidAmount     pgtype.Numeric
	Justification string
}

const upsertBid = `
INSERT INTO delivery_bids (courier_id, order_id, bid_amount, justification)
VALUES ($1, $2, $3, $4)
ON CONFLICT (courier_id, order_id)
DO UPDATE SET bid_amount = EXCLUDED.bid_amount, justification = EXCLUDED.justification, updated_at = now()
RETURNING ` + bidColumns

// UpsertBid keeps one live bid per (courier, order). Rebidding replaces
// the amount but keeps the original created_at, so an amended bid does
// not jump the tie-break queue.
func (q *Queries) UpsertBid(ctx context.Context, arg UpsertBidParams) (DeliveryBid, error) {
	return scanBid(q.db.QueryRow(ctx, upsertBid,
		arg.CourierID, arg.OrderID, arg.BidAmount, arg.Justification))
}

const getLowestBid = `
SELECT ` + bidColumns + `
FROM delivery_bids b
WHERE b.order_id = $1
  AND EXISTS (SELECT 1 FROM employees e WHERE e.id = b.courier_id AND e.is_active = true)
ORDER BY b.bid_amount ASC, b.created_at ASC
LIMIT 1`

// GetLowestBid returns the winning bid: lowest amount, earliest bid on
// a tie. Bids from deactivated couriers are skipped.
func (q *Queries) GetLowestBid(ctx context.Context, orderID uuid.UUID) (DeliveryBid, error) {
	return scanBid(q.db.QueryRow(ctx, getLowestBid, orderID))
}

const getBid = `
SELECT ` + bidColumns + `
FROM delivery_bids
WHERE id = $1`

func (q *Queries) GetBid(ctx context.Context, id uuid.UUID) (DeliveryBid, error) {
	return scanBid(q.db.QueryRow(ctx, getBid, id))
}

type SelectBidParams struct {
	ID            uuid.UUID
	Justification string
}

const selectBid = `
UPDATE delivery_bids
SET is_selected = true,
    justification = COALESCE(NULLIF($2, ''), justification),
    updated_at = now()
WHERE id = $1
RETURNING ` + bidColumns

// SelectBid marks a bid as the winner. An empty justification keeps
// whatever the courier wrote.
func (q *Queries) SelectBid(ctx context.Context, arg SelectBidParams) (DeliveryBid, error) {
	return scanBid(q.db.QueryRow(ctx, selectBid, arg.ID, arg.Justification))
}

const deselectBid = `
UPDATE delivery_bids
SET is_selected = false, updated_at = now()
WHERE id = $1
RETURNING ` + bidColumns

func (q *Queries) DeselectBid(ctx context.Context, id uuid.UUID) (DeliveryBid, error) {
	return scanBid(q.db.QueryRow(ctx, deselectBid, id))
}

const deselectBidsForOrder = `
UPDATE delivery_bids
SET is_selected = false, updated_at = now()
WHERE order_id = $1 AND is_selected = true`

func (q *Queries) DeselectBidsForOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deselectBidsForOrder, orderID)
	return err
}

const listBidsByOrder = `
SELECT ` + bidColumns + `
FROM delivery_bids
WHERE order_id = $1
ORDER BY bid_amount ASC, created_at ASC`

func (q *Queries) ListBidsByOrder(ctx context.Context, orderID uuid.UUID) ([]DeliveryBid, error) {
	rows, err := q.db.Query(ctx, listBidsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []DeliveryBid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

const listBidsByCourier = `
SELECT ` + bidColumns + `
FROM delivery_bids
WHERE courier_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListBidsByCourier(ctx context.Context, courierID uuid.UUID) ([]DeliveryBid, error) {
	rows, err := q.db.Query(ctx, listBidsByCourier, courierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []DeliveryBid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}
