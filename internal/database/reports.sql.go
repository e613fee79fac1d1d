package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type GetOrderStatusCountsRow struct {
	Status OrderStatus
	Count  int64
}

const getOrderStatusCounts = `
SELECT status, COUNT(*)
FROM orders
GROUP BY status
ORDER BY status`

func (q *Queries) GetOrderStatusCounts(ctx context.Context) ([]GetOrderStatusCountsRow, error) {
	rows, err := q.db.Query(ctx, getOrderStatusCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GetOrderStatusCountsRow
	for rows.Next() {
		var r GetOrderStatusCountsRow
		if err := rows.Scan(&r.Status, &r.Count); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type GetRevenueSummaryRow struct {
	DeliveredOrders int64
	GrossRevenue    pgtype.Numeric
	VipDiscounts    pgtype.Numeric
}

const getRevenueSummary = `
SELECT COUNT(*),
       COALESCE(SUM(total_amount), 0),
       COALESCE(SUM(vip_discount), 0)
FROM orders
WHERE status = 'delivered'`

// GetRevenueSummary totals delivered orders only; cancelled and
// in-flight orders carry no recognized revenue.
func (q *Queries) GetRevenueSummary(ctx context.Context) (GetRevenueSummaryRow, error) {
	var r GetRevenueSummaryRow
	err := q.db.QueryRow(ctx, getRevenueSummary).Scan(&r.DeliveredOrders, &r.GrossRevenue, &r.VipDiscounts)
	return r, err
}

type GetCustomerStandingCountsRow struct {
	Total       int64
	Vip         int64
	Blacklisted int64
}

const getCustomerStandingCounts = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE is_vip),
       COUNT(*) FILTER (WHERE is_blacklisted)
FROM customers`

func (q *Queries) GetCustomerStandingCounts(ctx context.Context) (GetCustomerStandingCountsRow, error) {
	var r GetCustomerStandingCountsRow
	err := q.db.QueryRow(ctx, getCustomerStandingCounts).Scan(&r.Total, &r.Vip, &r.Blacklisted)
	return r, err
}

type GetEmployeeStandingCountsRow struct {
	Kind       EmployeeKind
	Active     int64
	Terminated int64
}

const getEmployeeStandingCounts = `
SELECT kind,
       COUNT(*) FILTER (WHERE NOT is_terminated),
       COUNT(*) FILTER (WHERE is_terminated)
FROM employees
GROUP BY kind
ORDER BY kind`

func (q *Queries) GetEmployeeStandingCounts(ctx context.Context) ([]GetEmployeeStandingCountsRow, error) {
	rows, err := q.db.Query(ctx, getEmployeeStandingCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GetEmployeeStandingCountsRow
	for rows.Next() {
		var r GetEmployeeStandingCountsRow
		if err := rows.Scan(&r.Kind, &r.Active, &r.Terminated); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type GetComplaintStatusCountsRow struct {
	Status ComplaintStatus
	Count  int64
}

const getComplaintStatusCounts = `
SELECT status, COUNT(*)
FROM complaints
GROUP BY status
ORDER BY status`

func (q *Queries) GetComplaintStatusCounts(ctx context.Context) ([]GetComplaintStatusCountsRow, error) {
	rows, err := q.db.Query(ctx, getComplaintStatusCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GetComplaintStatusCountsRow
	for rows.Next() {
		var r GetComplaintStatusCountsRow
		if err := rows.Scan(&r.Status, &r.Count); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
