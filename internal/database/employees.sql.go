package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const employeeColumns = `id, user_id, kind, salary, demotion_count, bonus_count, is_active, is_terminated, created_at, updated_at`

func scanEmployee(row interface{ Scan(dest ...any) error }) (Employee, error) {
	var e Employee
	err := row.Scan(
		&e.ID, &e.UserID, &e.Kind, &e.Salary, &e.DemotionCount,
		&e.BonusCount, &e.IsActive, &e.IsTerminated, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

type CreateEmployeeParams struct {
	UserID uuid.UUID
	Kind   EmployeeKind
	Salary pgtype.Numeric
}

const createEmployee = `
INSERT INTO employees (user_id, kind, salary)
VALUES ($1, $2, $3)
RETURNING ` + employeeColumns

func (q *Queries) CreateEmployee(ctx context.Context, arg CreateEmployeeParams) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, createEmployee, arg.UserID, arg.Kind, arg.Salary))
}

const getEmployee = `
SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

func (q *Queries) GetEmployee(ctx context.Context, id uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getEmployee, id))
}

const getEmployeeByUser = `
SELECT ` + employeeColumns + ` FROM employees WHERE user_id = $1`

func (q *Queries) GetEmployeeByUser(ctx context.Context, userID uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getEmployeeByUser, userID))
}

const getEmployeeForUpdate = `
SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 FOR NO KEY UPDATE`

// GetEmployeeForUpdate locks the employee row so the inline trigger and
// the batch sweep cannot interleave counter increments.
func (q *Queries) GetEmployeeForUpdate(ctx context.Context, id uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getEmployeeForUpdate, id))
}

const listEmployees = `
SELECT ` + employeeColumns + ` FROM employees ORDER BY created_at DESC`

func (q *Queries) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := q.db.Query(ctx, listEmployees)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

const incrementDemotion = `
UPDATE employees
SET demotion_count = demotion_count + 1, updated_at = now()
WHERE id = $1
RETURNING ` + employeeColumns

func (q *Queries) IncrementDemotion(ctx context.Context, id uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, incrementDemotion, id))
}

const incrementBonus = `
UPDATE employees
SET bonus_count = bonus_count + 1, updated_at = now()
WHERE id = $1
RETURNING ` + employeeColumns

func (q *Queries) IncrementBonus(ctx context.Context, id uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, incrementBonus, id))
}

const terminateEmployee = `
UPDATE employees
SET is_active = false, is_terminated = true, updated_at = now()
WHERE id = $1
RETURNING ` + employeeColumns

func (q *Queries) TerminateEmployee(ctx context.Context, id uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, terminateEmployee, id))
}

const reinstateEmployee = `
UPDATE employees
SET is_active = true, is_terminated = false, demotion_count = 0, updated_at = now()
WHERE id = $1
RETURNING ` + employeeColumns

func (q *Queries) ReinstateEmployee(ctx context.Context, id uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, reinstateEmployee, id))
}

const adjustSalary = `
UPDATE employees
SET salary = salary + $2, updated_at = now()
WHERE id = $1
RETURNING ` + employeeColumns

// AdjustSalary applies a signed delta to the employee's salary.
func (q *Queries) AdjustSalary(ctx context.Context, id uuid.UUID, delta pgtype.Numeric) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, adjustSalary, id, delta))
}
