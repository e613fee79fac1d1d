package database

import (
	"context"

	"github.com/google/uuid"
)

const dishRatingColumns = `id, customer_id, dish_id, rating, review, created_at`

func scanDishRating(row interface{ Scan(dest ...any) error }) (DishRating, error) {
	var r DishRating
	err := row.Scan(&r.ID, &r.CustomerID, &r.DishID, &r.Rating, &r.Review, &r.CreatedAt)
	return r, err
}

type UpsertDishRatingParams struct {
	CustomerID uuid.UUID
	DishID     uuid.UUID
	Rating     int32
	Review     string
}

const upsertDishRating = `
INSERT INTO dish_ratings (customer_id, dish_id, rating, review)
VALUES ($1, $2, $3, $4)
ON CONFLICT (customer_id, dish_id)
DO UPDATE SET rating = EXCLUDED.rating, review = EXCLUDED.review
RETURNING ` + dishRatingColumns

// UpsertDishRating keeps one rating per (customer, dish); a repeat
// submission overwrites the previous score.
func (q *Queries) UpsertDishRating(ctx context.Context, arg UpsertDishRatingParams) (DishRating, error) {
	return scanDishRating(q.db.QueryRow(ctx, upsertDishRating,
		arg.CustomerID, arg.DishID, arg.Rating, arg.Review))
}

const listDishRatingsByDish = `
SELECT ` + dishRatingColumns + `
FROM dish_ratings
WHERE dish_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListDishRatingsByDish(ctx context.Context, dishID uuid.UUID) ([]DishRating, error) {
	rows, err := q.db.Query(ctx, listDishRatingsByDish, dishID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []DishRating
	for rows.Next() {
		r, err := scanDishRating(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const avgDishRatingByChef = `
SELECT COALESCE(AVG(r.rating), 0)::float8, COUNT(*)
FROM dish_ratings r
JOIN dishes d ON d.id = r.dish_id
WHERE d.chef_id = $1`

// AvgDishRatingByChef averages every rating across the chef's dishes.
// The count lets callers skip the average when there are no ratings.
func (q *Queries) AvgDishRatingByChef(ctx context.Context, chefID uuid.UUID) (float64, int64, error) {
	var avg float64
	var n int64
	err := q.db.QueryRow(ctx, avgDishRatingByChef, chefID).Scan(&avg, &n)
	return avg, n, err
}

const deliveryRatingColumns = `id, customer_id, courier_id, order_id, rating, review, created_at`

func scanDeliveryRating(row interface{ Scan(dest ...any) error }) (DeliveryRating, error) {
	var r DeliveryRating
	err := row.Scan(&r.ID, &r.CustomerID, &r.CourierID, &r.OrderID, &r.Rating, &r.Review, &r.CreatedAt)
	return r, err
}

type UpsertDeliveryRatingParams struct {
	CustomerID uuid.UUID
	CourierID  uuid.UUID
	OrderID    uuid.UUID
	Rating     int32
	Review     string
}

const upsertDeliveryRating = `
INSERT INTO delivery_ratings (customer_id, courier_id, order_id, rating, review)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (customer_id, order_id)
DO UPDATE SET rating = EXCLUDED.rating, review = EXCLUDED.review
RETURNING ` + deliveryRatingColumns

func (q *Queries) UpsertDeliveryRating(ctx context.Context, arg UpsertDeliveryRatingParams) (DeliveryRating, error) {
	return scanDeliveryRating(q.db.QueryRow(ctx, upsertDeliveryRating,
		arg.CustomerID, arg.CourierID, arg.OrderID, arg.Rating, arg.Review))
}

const avgDeliveryRatingByCourier = `
SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
FROM delivery_ratings
WHERE courier_id = $1`

func (q *Queries) AvgDeliveryRatingByCourier(ctx context.Context, courierID uuid.UUID) (float64, int64, error) {
	var avg float64
	var n int64
	err := q.db.QueryRow(ctx, avgDeliveryRatingByCourier, courierID).Scan(&avg, &n)
	return avg, n, err
}
