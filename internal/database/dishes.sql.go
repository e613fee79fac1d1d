package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const dishColumns = `id, chef_id, name, description, price, is_vip_only, is_available, created_at, updated_at`

func scanDish(row interface{ Scan(dest ...any) error }) (Dish, error) {
	var d Dish
	err := row.Scan(
		&d.ID, &d.ChefID, &d.Name, &d.Description, &d.Price,
		&d.IsVipOnly, &d.IsAvailable, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

type CreateDishParams struct {
	ChefID      uuid.UUID
	Name        string
	Description string
	Price       pgtype.Numeric
	IsVipOnly   bool
}

const createDish = `
INSERT INTO dishes (chef_id, name, description, price, is_vip_only)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + dishColumns

func (q *Queries) CreateDish(ctx context.Context, arg CreateDishParams) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, createDish,
		arg.ChefID, arg.Name, arg.Description, arg.Price, arg.IsVipOnly))
}

const getDish = `
SELECT ` + dishColumns + ` FROM dishes WHERE id = $1`

func (q *Queries) GetDish(ctx context.Context, id uuid.UUID) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, getDish, id))
}

const getDishForOrder = `
SELECT ` + dishColumns + `
FROM dishes
WHERE id = $1 AND is_available = true`

// GetDishForOrder resolves a dish only if it is currently purchasable.
func (q *Queries) GetDishForOrder(ctx context.Context, id uuid.UUID) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, getDishForOrder, id))
}

const listAvailableDishes = `
SELECT ` + dishColumns + `
FROM dishes d
WHERE d.is_available = true
  AND EXISTS (SELECT 1 FROM employees e WHERE e.id = d.chef_id AND e.is_active = true)
ORDER BY d.created_at DESC`

// ListAvailableDishes returns purchasable dishes whose chef is still
// active; a terminated chef's dishes drop out of the catalog.
func (q *Queries) ListAvailableDishes(ctx context.Context) ([]Dish, error) {
	rows, err := q.db.Query(ctx, listAvailableDishes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Dish
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

const setDishAvailability = `
UPDATE dishes
SET is_available = $2, updated_at = now()
WHERE id = $1
RETURNING ` + dishColumns

func (q *Queries) SetDishAvailability(ctx context.Context, id uuid.UUID, available bool) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, setDishAvailability, id, available))
}
