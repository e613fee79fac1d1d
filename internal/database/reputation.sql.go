package database

import (
	"context"

	"github.com/google/uuid"
)

type InsertReputationEventParams struct {
	SubjectKind SubjectKind
	SubjectID   uuid.UUID
	SourceKind  ReputationSource
	SourceID    uuid.UUID
	Rule        string
}

const insertReputationEvent = `
INSERT INTO reputation_events (subject_kind, subject_id, source_kind, source_id, rule)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (subject_kind, subject_id, source_kind, source_id) DO NOTHING`

// InsertReputationEvent records that a source (complaint, compliment,
// rating) has been consumed for a subject. Returns the number of rows
// written: 0 means the source was already applied and the caller must
// not re-run the rule.
func (q *Queries) InsertReputationEvent(ctx context.Context, arg InsertReputationEventParams) (int64, error) {
	tag, err := q.db.Exec(ctx, insertReputationEvent,
		arg.SubjectKind, arg.SubjectID, arg.SourceKind, arg.SourceID, arg.Rule)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listUnappliedComplaints = `
SELECT ` + complaintColumns + `
FROM complaints c
WHERE c.status IN ('resolved', 'dismissed')
  AND NOT EXISTS (
    SELECT 1 FROM reputation_events ev
    WHERE ev.source_kind = 'complaint' AND ev.source_id = c.id
  )
ORDER BY c.updated_at ASC
LIMIT $1`

// ListUnappliedComplaints returns reviewed complaints that never made
// it into the reputation ledger, for the batch sweep to pick up.
func (q *Queries) ListUnappliedComplaints(ctx context.Context, limit int32) ([]Complaint, error) {
	rows, err := q.db.Query(ctx, listUnappliedComplaints, limit)
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

const listUnappliedCompliments = `
SELECT ` + complimentColumns + `
FROM compliments c
WHERE c.status IN ('approved', 'dismissed')
  AND NOT EXISTS (
    SELECT 1 FROM reputation_events ev
    WHERE ev.source_kind = 'compliment' AND ev.source_id = c.id
  )
ORDER BY c.updated_at ASC
LIMIT $1`

func (q *Queries) ListUnappliedCompliments(ctx context.Context, limit int32) ([]Compliment, error) {
	rows, err := q.db.Query(ctx, listUnappliedCompliments, limit)
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

const listUnappliedDishRatings = `
SELECT ` + dishRatingColumns + `
FROM dish_ratings r
WHERE NOT EXISTS (
    SELECT 1 FROM reputation_events ev
    WHERE ev.source_kind = 'dish_rating' AND ev.source_id = r.id
  )
ORDER BY r.created_at ASC
LIMIT $1`

func (q *Queries) ListUnappliedDishRatings(ctx context.Context, limit int32) ([]DishRating, error) {
	rows, err := q.db.Query(ctx, listUnappliedDishRatings, limit)
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

const listUnappliedDeliveryRatings = `
SELECT ` + deliveryRatingColumns + `
FROM delivery_ratings r
WHERE NOT EXISTS (
    SELECT 1 FROM reputation_events ev
    WHERE ev.source_kind = 'delivery_rating' AND ev.source_id = r.id
  )
ORDER BY r.created_at ASC
LIMIT $1`

func (q *Queries) ListUnappliedDeliveryRatings(ctx context.Context, limit int32) ([]DeliveryRating, error) {
	rows, err := q.db.Query(ctx, listUnappliedDeliveryRatings, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []DeliveryRating
	for rows.Next() {
		r, err := scanDeliveryRating(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type GetReputationRuleCountsRow struct {
	Rule  string
	Count int64
}

const getReputationRuleCounts = `
SELECT rule, COUNT(*) FROM reputation_events
GROUP BY rule`

// GetReputationRuleCounts reports how many times each reputation rule
// has fired across all subjects.
func (q *Queries) GetReputationRuleCounts(ctx context.Context) ([]GetReputationRuleCountsRow, error) {
	rows, err := q.db.Query(ctx, getReputationRuleCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GetReputationRuleCountsRow
	for rows.Next() {
		var r GetReputationRuleCountsRow
		if err := rows.Scan(&r.Rule, &r.Count); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
