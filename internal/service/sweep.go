package service

import (
	"context"
	"fmt"

	"github.com/goldenwok/api/internal/database"
)

// SweepStore defines the DB methods the sweep needs on top of the
// rule engine's. Satisfied by *database.Queries.
type SweepStore interface {
	ReputationStore

	ListUnappliedComplaints(ctx context.Context, limit int32) ([]database.Complaint, error)
	ListUnappliedCompliments(ctx context.Context, limit int32) ([]database.Compliment, error)
	ListUnappliedDishRatings(ctx context.Context, limit int32) ([]database.DishRating, error)
	ListUnappliedDeliveryRatings(ctx context.Context, limit int32) ([]database.DeliveryRating, error)
}

// NewSweepStore creates a SweepStore from a DBTX (pool or tx).
type NewSweepStore func(db database.DBTX) SweepStore

// SweepReport summarizes one sweep run.
type SweepReport struct {
	ComplaintsApplied      int `json:"complaints_applied"`
	ComplimentsApplied     int `json:"compliments_applied"`
	DishRatingsApplied     int `json:"dish_ratings_applied"`
	DeliveryRatingsApplied int `json:"delivery_ratings_applied"`
}

// SweepService is the batch counterpart of the inline dispatch: it
// finds reviewed feedback and ratings that never reached the
// reputation ledger (a crash between commit points, rows imported from
// elsewhere) and applies them. Each item runs in its own short
// transaction; the reputation_events marker makes re-running a sweep,
// or racing the inline path, harmless.
type SweepService struct {
	pool      TxBeginner
	listStore SweepStore
	newStore  NewSweepStore
	engine    *Engine
	batchSize int32
}

// NewSweepService creates a new SweepService. listStore is pool-backed
// and used only for the unapplied scans.
func NewSweepService(pool TxBeginner, listStore SweepStore, newStore NewSweepStore, batchSize int32) *SweepService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SweepService{
		pool:      pool,
		listStore: listStore,
		newStore:  newStore,
		engine:    NewEngine(),
		batchSize: batchSize,
	}
}

// Run processes one batch per source kind and reports what was
// applied.
func (s *SweepService) Run(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}

	complaints, err := s.listStore.ListUnappliedComplaints(ctx, s.batchSize)
	if err != nil {
		return report, fmt.Errorf("list unapplied complaints: %w", err)
	}
	for _, c := range complaints {
		applied, err := s.applyOne(ctx, func(store SweepStore) (bool, error) {
			return s.engine.ApplyComplaint(ctx, store, c)
		})
		if err != nil {
			return report, fmt.Errorf("sweep complaint %s: %w", c.ID, err)
		}
		if applied {
			report.ComplaintsApplied++
		}
	}

	compliments, err := s.listStore.ListUnappliedCompliments(ctx, s.batchSize)
	if err != nil {
		return report, fmt.Errorf("list unapplied compliments: %w", err)
	}
	for _, c := range compliments {
		applied, err := s.applyOne(ctx, func(store SweepStore) (bool, error) {
			return s.engine.ApplyCompliment(ctx, store, c)
		})
		if err != nil {
			return report, fmt.Errorf("sweep compliment %s: %w", c.ID, err)
		}
		if applied {
			report.ComplimentsApplied++
		}
	}

	dishRatings, err := s.listStore.ListUnappliedDishRatings(ctx, s.batchSize)
	if err != nil {
		return report, fmt.Errorf("list unapplied dish ratings: %w", err)
	}
	for _, r := range dishRatings {
		applied, err := s.applyOne(ctx, func(store SweepStore) (bool, error) {
			return s.engine.ApplyDishRating(ctx, store, r)
		})
		if err != nil {
			return report, fmt.Errorf("sweep dish rating %s: %w", r.ID, err)
		}
		if applied {
			report.DishRatingsApplied++
		}
	}

	deliveryRatings, err := s.listStore.ListUnappliedDeliveryRatings(ctx, s.batchSize)
	if err != nil {
		return report, fmt.Errorf("list unapplied delivery ratings: %w", err)
	}
	for _, r := range deliveryRatings {
		applied, err := s.applyOne(ctx, func(store SweepStore) (bool, error) {
			return s.engine.ApplyDeliveryRating(ctx, store, r)
		})
		if err != nil {
			return report, fmt.Errorf("sweep delivery rating %s: %w", r.ID, err)
		}
		if applied {
			report.DeliveryRatingsApplied++
		}
	}

	return report, nil
}

// applyOne runs a single engine dispatch in its own transaction.
func (s *SweepService) applyOne(ctx context.Context, fn func(SweepStore) (bool, error)) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	applied, err := fn(s.newStore(tx))
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return applied, nil
}
