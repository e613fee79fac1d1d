package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const complaintColumns = `id, complainant_id, target_kind, target_id, order_id, title, description, status, manager_response, created_at, updated_at`

func scanComplaint(row interface{ Scan(dest ...any) error }) (Complaint, error) {
	var c Complaint
	err := row.Scan(
		&c.ID, &c.ComplainantID, &c.TargetKind, &c.TargetID, &c.OrderID,
		&c.Title, &c.Description, &c.Status, &c.ManagerResponse,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

type CreateComplaintParams struct {
	ComplainantID uuid.UUID
	TargetKind    FeedbackTarget
	TargetID      uuid.UUID
	OrderID       pgtype.UUID
	Title         string
	Description   string
}

const createComplaint = `
INSERT INTO complaints (complainant_id, target_kind, target_id, order_id, title, description)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + complaintColumns

func (q *Queries) CreateComplaint(ctx context.Context, arg CreateComplaintParams) (Complaint, error) {
	return scanComplaint(q.db.QueryRow(ctx, createComplaint,
		arg.ComplainantID, arg.TargetKind, arg.TargetID, arg.OrderID,
		arg.Title, arg.Description))
}

const getComplaint = `
SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`

func (q *Queries) GetComplaint(ctx context.Context, id uuid.UUID) (Complaint, error) {
	return scanComplaint(q.db.QueryRow(ctx, getComplaint, id))
}

type UpdateComplaintStatusParams struct {
	ID              uuid.UUID
	Status          ComplaintStatus
	FromStatus      ComplaintStatus
	ManagerResponse pgtype.Text
}

const updateComplaintStatus = `
UPDATE complaints
SET status = $2, manager_response = COALESCE($4, manager_response), updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + complaintColumns

// UpdateComplaintStatus is a compare-and-swap on the status column so a
// complaint cannot be resolved twice from two review screens.
func (q *Queries) UpdateComplaintStatus(ctx context.Context, arg UpdateComplaintStatusParams) (Complaint, error) {
	return scanComplaint(q.db.QueryRow(ctx, updateComplaintStatus,
		arg.ID, arg.Status, arg.FromStatus, arg.ManagerResponse))
}

type ListComplaintsParams struct {
	Status NullComplaintStatus
	Limit  int32
	Offset int32
}

const listComplaints = `
SELECT ` + complaintColumns + `
FROM complaints
WHERE ($1::complaint_status IS NULL OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListComplaints(ctx context.Context, arg ListComplaintsParams) ([]Complaint, error) {
	rows, err := q.db.Query(ctx, listComplaints, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

type ListComplaintsByTargetParams struct {
	TargetKind FeedbackTarget
	TargetID   uuid.UUID
}

const listComplaintsByTarget = `
SELECT ` + complaintColumns + `
FROM complaints
WHERE target_kind = $1 AND target_id = $2
ORDER BY created_at DESC`

func (q *Queries) ListComplaintsByTarget(ctx context.Context, arg ListComplaintsByTargetParams) ([]Complaint, error) {
	rows, err := q.db.Query(ctx, listComplaintsByTarget, arg.TargetKind, arg.TargetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

const countOpenComplaintsByComplainant = `
SELECT COUNT(*) FROM complaints
WHERE complainant_id = $1 AND status IN ('pending', 'investigating')`

// CountOpenComplaintsByComplainant counts the customer's own unresolved
// complaints; any open one blocks a VIP upgrade.
func (q *Queries) CountOpenComplaintsByComplainant(ctx context.Context, complainantID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOpenComplaintsByComplainant, complainantID).Scan(&n)
	return n, err
}

type CountResolvedComplaintsAgainstParams struct {
	TargetKind FeedbackTarget
	TargetID   uuid.UUID
}

const countResolvedComplaintsAgainst = `
SELECT COUNT(*) FROM complaints
WHERE target_kind = $1 AND target_id = $2 AND status = 'resolved'`

func (q *Queries) CountResolvedComplaintsAgainst(ctx context.Context, arg CountResolvedComplaintsAgainstParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countResolvedComplaintsAgainst, arg.TargetKind, arg.TargetID).Scan(&n)
	return n, err
}

// NullComplaintStatus is an optional ComplaintStatus, used for filters.
type NullComplaintStatus struct {
	ComplaintStatus ComplaintStatus
	Valid           bool
}

func (ns NullComplaintStatus) Value() (interface{}, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.ComplaintStatus), nil
}

const complimentColumns = `id, complainant_id, target_kind, target_id, order_id, title, description, status, manager_response, created_at, updated_at`

func scanCompliment(row interface{ Scan(dest ...any) error }) (Compliment, error) {
	var c Compliment
	err := row.Scan(
		&c.ID, &c.ComplainantID, &c.TargetKind, &c.TargetID, &c.OrderID,
		&c.Title, &c.Description, &c.Status, &c.ManagerResponse,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

type CreateComplimentParams struct {
	ComplainantID uuid.UUID
	TargetKind    FeedbackTarget
	TargetID      uuid.UUID
	OrderID       pgtype.UUID
	Title         string
	Description   string
}

const createCompliment = `
INSERT INTO compliments (complainant_id, target_kind, target_id, order_id, title, description)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + complimentColumns

func (q *Queries) CreateCompliment(ctx context.Context, arg CreateComplimentParams) (Compliment, error) {
	return scanCompliment(q.db.QueryRow(ctx, createCompliment,
		arg.ComplainantID, arg.TargetKind, arg.TargetID, arg.OrderID,
		arg.Title, arg.Description))
}

const getCompliment = `
SELECT ` + complimentColumns + ` FROM compliments WHERE id = $1`

func (q *Queries) GetCompliment(ctx context.Context, id uuid.UUID) (Compliment, error) {
	return scanCompliment(q.db.QueryRow(ctx, getCompliment, id))
}

type UpdateComplimentStatusParams struct {
	ID              uuid.UUID
	Status          ComplimentStatus
	FromStatus      ComplimentStatus
	ManagerResponse pgtype.Text
}

const updateComplimentStatus = `
UPDATE compliments
SET status = $2, manager_response = COALESCE($4, manager_response), updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + complimentColumns

func (q *Queries) UpdateComplimentStatus(ctx context.Context, arg UpdateComplimentStatusParams) (Compliment, error) {
	return scanCompliment(q.db.QueryRow(ctx, updateComplimentStatus,
		arg.ID, arg.Status, arg.FromStatus, arg.ManagerResponse))
}

type ListComplimentsByTargetParams struct {
	TargetKind FeedbackTarget
	TargetID   uuid.UUID
}

const listComplimentsByTarget = `
SELECT ` + complimentColumns + `
FROM compliments
WHERE target_kind = $1 AND target_id = $2
ORDER BY created_at DESC`

func (q *Queries) ListComplimentsByTarget(ctx context.Context, arg ListComplimentsByTargetParams) ([]Compliment, error) {
	rows, err := q.db.Query(ctx, listComplimentsByTarget, arg.TargetKind, arg.TargetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Compliment
	for rows.Next() {
		c, err := scanCompliment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

type CountApprovedComplimentsForParams struct {
	TargetKind FeedbackTarget
	TargetID   uuid.UUID
}

const countApprovedComplimentsFor = `
SELECT COUNT(*) FROM compliments
WHERE target_kind = $1 AND target_id = $2 AND status = 'approved'`

func (q *Queries) CountApprovedComplimentsFor(ctx context.Context, arg CountApprovedComplimentsForParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countApprovedComplimentsFor, arg.TargetKind, arg.TargetID).Scan(&n)
	return n, err
}
