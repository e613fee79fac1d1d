package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, user_id, deposit, total_spent, order_count, warnings, is_vip, is_blacklisted, created_at, updated_at`

func scanCustomer(row interface{ Scan(dest ...any) error }) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.UserID, &c.Deposit, &c.TotalSpent, &c.OrderCount,
		&c.Warnings, &c.IsVip, &c.IsBlacklisted, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const createCustomer = `
INSERT INTO customers (user_id)
VALUES ($1)
RETURNING ` + customerColumns

func (q *Queries) CreateCustomer(ctx context.Context, userID uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, createCustomer, userID))
}

const getCustomer = `
SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomer, id))
}

const getCustomerByUser = `
SELECT ` + customerColumns + ` FROM customers WHERE user_id = $1`

func (q *Queries) GetCustomerByUser(ctx context.Context, userID uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomerByUser, userID))
}

const getCustomerForUpdate = `
SELECT ` + customerColumns + ` FROM customers WHERE id = $1 FOR NO KEY UPDATE`

// GetCustomerForUpdate locks the customer row for the remainder of the
// transaction, serializing concurrent standing changes.
func (q *Queries) GetCustomerForUpdate(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomerForUpdate, id))
}

const listCustomers = `
SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC`

func (q *Queries) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

const debitDeposit = `
UPDATE customers
SET deposit = deposit - $2, updated_at = now()
WHERE id = $1 AND deposit >= $2
RETURNING ` + customerColumns

// DebitDeposit is the atomic check-then-write at the heart of the
// ledger: the balance comparison and the subtraction happen in one
// statement, so two concurrent debits can never both pass the check.
// Returns pgx.ErrNoRows when the balance is insufficient (or the
// customer does not exist; callers disambiguate with GetCustomer).
func (q *Queries) DebitDeposit(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, debitDeposit, id, amount))
}

const creditDeposit = `
UPDATE customers
SET deposit = deposit + $2, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

func (q *Queries) CreditDeposit(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, creditDeposit, id, amount))
}

const recordSpend = `
UPDATE customers
SET total_spent = total_spent + $2, order_count = order_count + 1, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

func (q *Queries) RecordSpend(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, recordSpend, id, amount))
}

const decrementOrderCount = `
UPDATE customers
SET order_count = GREATEST(order_count - 1, 0), updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

// DecrementOrderCount reverses the order_count bump when an order is
// cancelled. total_spent is deliberately left alone: cancellation
// refunds the deposit but the spend history stands.
func (q *Queries) DecrementOrderCount(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, decrementOrderCount, id))
}

const incrementWarnings = `
UPDATE customers
SET warnings = warnings + 1, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

func (q *Queries) IncrementWarnings(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, incrementWarnings, id))
}

const clearWarnings = `
UPDATE customers
SET warnings = 0, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

func (q *Queries) ClearWarnings(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, clearWarnings, id))
}

const setCustomerVip = `
UPDATE customers
SET is_vip = $2, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

func (q *Queries) SetCustomerVip(ctx context.Context, id uuid.UUID, isVip bool) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, setCustomerVip, id, isVip))
}

const setCustomerBlacklisted = `
UPDATE customers
SET is_blacklisted = $2, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

func (q *Queries) SetCustomerBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, setCustomerBlacklisted, id, blacklisted))
}

const downgradeCustomerVip = `
UPDATE customers
SET is_vip = false, warnings = 0, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

func (q *Queries) DowngradeCustomerVip(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, downgradeCustomerVip, id))
}
