package service

import (
	"context"
	"fmt"

	"github.com/goldenwok/api/internal/database"
	"github.com/goldenwok/api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Standing thresholds. Warnings escalate customers toward blacklisting,
// review outcomes and rating averages move employees toward demotion or
// a bonus.
const (
	vipSpendThreshold    = 100
	vipOrderThreshold    = 3
	downgradeWarnings    = 2
	blacklistWarnings    = 3
	demotionNetAdverse   = 3
	demotionAvgBelow     = 2.0
	terminationDemotions = 2
	bonusCompliments     = 3
	bonusAvgAbove        = 4.0
)

// ReputationStore defines the DB methods the rule engine needs.
// Satisfied by *database.Queries (and its WithTx variant).
type ReputationStore interface {
	InsertReputationEvent(ctx context.Context, arg database.InsertReputationEventParams) (int64, error)

	GetCustomerForUpdate(ctx context.Context, id uuid.UUID) (database.Customer, error)
	IncrementWarnings(ctx context.Context, id uuid.UUID) (database.Customer, error)
	SetCustomerVip(ctx context.Context, id uuid.UUID, isVip bool) (database.Customer, error)
	SetCustomerBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) (database.Customer, error)
	DowngradeCustomerVip(ctx context.Context, id uuid.UUID) (database.Customer, error)
	CountOpenComplaintsByComplainant(ctx context.Context, complainantID uuid.UUID) (int64, error)

	GetEmployeeForUpdate(ctx context.Context, id uuid.UUID) (database.Employee, error)
	IncrementDemotion(ctx context.Context, id uuid.UUID) (database.Employee, error)
	IncrementBonus(ctx context.Context, id uuid.UUID) (database.Employee, error)
	TerminateEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
	CountResolvedComplaintsAgainst(ctx context.Context, arg database.CountResolvedComplaintsAgainstParams) (int64, error)
	CountApprovedComplimentsFor(ctx context.Context, arg database.CountApprovedComplimentsForParams) (int64, error)
	AvgDishRatingByChef(ctx context.Context, chefID uuid.UUID) (float64, int64, error)
	AvgDeliveryRatingByCourier(ctx context.Context, courierID uuid.UUID) (float64, int64, error)

	GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error)
}

// Engine applies reputation rules inside the caller's transaction. It
// is stateless: every method re-reads standing under a row lock, writes
// the reputation_events marker first, and only mutates state when that
// marker was newly inserted. Both the inline dispatch path and the
// batch sweep go through the same methods, so a source is consumed at
// most once no matter which path reaches it first.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func subjectForTarget(kind database.FeedbackTarget) database.SubjectKind {
	switch kind {
	case database.FeedbackTargetChef:
		return database.SubjectKindChef
	case database.FeedbackTargetCourier:
		return database.SubjectKindCourier
	default:
		return database.SubjectKindCustomer
	}
}

// ApplyComplaint consumes a reviewed complaint. A resolved complaint
// against a customer adds a warning; against an employee it feeds the
// demotion evaluation. Dismissed complaints are marked consumed with
// no state change. Returns whether this call did the consuming.
func (e *Engine) ApplyComplaint(ctx context.Context, store ReputationStore, c database.Complaint) (bool, error) {
	subject := subjectForTarget(c.TargetKind)

	if c.Status != database.ComplaintStatusResolved {
		applied, err := store.InsertReputationEvent(ctx, database.InsertReputationEventParams{
			SubjectKind: subject,
			SubjectID:   c.TargetID,
			SourceKind:  database.ReputationSourceComplaint,
			SourceID:    c.ID,
			Rule:        enum.RuleNone,
		})
		return applied > 0, err
	}

	if c.TargetKind == database.FeedbackTargetCustomer {
		applied, err := store.InsertReputationEvent(ctx, database.InsertReputationEventParams{
			SubjectKind: database.SubjectKindCustomer,
			SubjectID:   c.TargetID,
			SourceKind:  database.ReputationSourceComplaint,
			SourceID:    c.ID,
			Rule:        enum.RuleWarning,
		})
		if err != nil || applied == 0 {
			return false, err
		}
		if err := e.addWarning(ctx, store, c.TargetID); err != nil {
			return false, err
		}
		return true, nil
	}

	applied, err := store.InsertReputationEvent(ctx, database.InsertReputationEventParams{
		SubjectKind: subject,
		SubjectID:   c.TargetID,
		SourceKind:  database.ReputationSourceComplaint,
		SourceID:    c.ID,
		Rule:        enum.RuleComplaintAgainst,
	})
	if err != nil || applied == 0 {
		return false, err
	}
	if err := e.evaluateEmployeeAdverse(ctx, store, c.TargetKind, c.TargetID); err != nil {
		return false, err
	}
	return true, nil
}

// ApplyCompliment consumes a reviewed compliment. Approved compliments
// for an employee feed the bonus evaluation; compliments to customers
// and dismissed compliments are marked consumed with no state change.
func (e *Engine) ApplyCompliment(ctx context.Context, store ReputationStore, c database.Compliment) (bool, error) {
	subject := subjectForTarget(c.TargetKind)

	rule := enum.RuleNone
	if c.Status == database.ComplimentStatusApproved && c.TargetKind != database.FeedbackTargetCustomer {
		rule = enum.RuleCompliment
	}

	applied, err := store.InsertReputationEvent(ctx, database.InsertReputationEventParams{
		SubjectKind: subject,
		SubjectID:   c.TargetID,
		SourceKind:  database.ReputationSourceCompliment,
		SourceID:    c.ID,
		Rule:        rule,
	})
	if err != nil || applied == 0 {
		return false, err
	}
	if rule == enum.RuleCompliment {
		if err := e.evaluateEmployeePositive(ctx, store, c.TargetKind, c.TargetID); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ApplyDishRating consumes a dish rating as a sample in the chef's
// average. A re-rating reuses the same row ID, so the marker blocks a
// second evaluation.
func (e *Engine) ApplyDishRating(ctx context.Context, store ReputationStore, r database.DishRating) (bool, error) {
	dish, err := store.GetDish(ctx, r.DishID)
	if err != nil {
		return false, fmt.Errorf("get dish: %w", err)
	}

	applied, err := store.InsertReputationEvent(ctx, database.InsertReputationEventParams{
		SubjectKind: database.SubjectKindChef,
		SubjectID:   dish.ChefID,
		SourceKind:  database.ReputationSourceDishRating,
		SourceID:    r.ID,
		Rule:        enum.RuleRatingSample,
	})
	if err != nil || applied == 0 {
		return false, err
	}
	if err := e.evaluateEmployeeAdverse(ctx, store, database.FeedbackTargetChef, dish.ChefID); err != nil {
		return false, err
	}
	if err := e.evaluateEmployeePositive(ctx, store, database.FeedbackTargetChef, dish.ChefID); err != nil {
		return false, err
	}
	return true, nil
}

// ApplyDeliveryRating consumes a delivery rating as a sample in the
// courier's average.
func (e *Engine) ApplyDeliveryRating(ctx context.Context, store ReputationStore, r database.DeliveryRating) (bool, error) {
	applied, err := store.InsertReputationEvent(ctx, database.InsertReputationEventParams{
		SubjectKind: database.SubjectKindCourier,
		SubjectID:   r.CourierID,
		SourceKind:  database.ReputationSourceDeliveryRating,
		SourceID:    r.ID,
		Rule:        enum.RuleRatingSample,
	})
	if err != nil || applied == 0 {
		return false, err
	}
	if err := e.evaluateEmployeeAdverse(ctx, store, database.FeedbackTargetCourier, r.CourierID); err != nil {
		return false, err
	}
	if err := e.evaluateEmployeePositive(ctx, store, database.FeedbackTargetCourier, r.CourierID); err != nil {
		return false, err
	}
	return true, nil
}

// PenalizeInsufficientFunds adds a warning when a customer places an
// order their deposit cannot cover. Runs in its own transaction so the
// warning survives the rolled-back order. The failed order only bumps
// the counter; blacklisting and the VIP downgrade fire when a
// complaint reaches resolved, never here.
func (e *Engine) PenalizeInsufficientFunds(ctx context.Context, store ReputationStore, customerID uuid.UUID) error {
	if _, err := store.IncrementWarnings(ctx, customerID); err != nil {
		return fmt.Errorf("increment warnings: %w", err)
	}
	return nil
}

func (e *Engine) addWarning(ctx context.Context, store ReputationStore, customerID uuid.UUID) error {
	cust, err := store.IncrementWarnings(ctx, customerID)
	if err != nil {
		return fmt.Errorf("increment warnings: %w", err)
	}
	// Blacklisting takes precedence over the VIP downgrade.
	if cust.Warnings >= blacklistWarnings {
		_, err := store.SetCustomerBlacklisted(ctx, customerID, true)
		return err
	}
	if cust.IsVip && cust.Warnings >= downgradeWarnings {
		_, err := store.DowngradeCustomerVip(ctx, customerID)
		return err
	}
	return nil
}

// PromoteCustomerIfEligible upgrades a customer to VIP once they have
// spent enough or ordered often enough, provided nothing blocks the
// upgrade. Callers must hold the customer row lock.
func (e *Engine) PromoteCustomerIfEligible(ctx context.Context, store ReputationStore, cust database.Customer) (bool, error) {
	if cust.IsVip || cust.IsBlacklisted {
		return false, nil
	}

	spent := numericToDecimal(cust.TotalSpent)
	if spent.LessThan(decimal.NewFromInt(vipSpendThreshold)) && cust.OrderCount < vipOrderThreshold {
		return false, nil
	}

	open, err := store.CountOpenComplaintsByComplainant(ctx, cust.ID)
	if err != nil {
		return false, fmt.Errorf("count open complaints: %w", err)
	}
	if open > 0 {
		return false, nil
	}

	if _, err := store.SetCustomerVip(ctx, cust.ID, true); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) employeeAverage(ctx context.Context, store ReputationStore, kind database.FeedbackTarget, id uuid.UUID) (float64, int64, error) {
	if kind == database.FeedbackTargetChef {
		return store.AvgDishRatingByChef(ctx, id)
	}
	return store.AvgDeliveryRatingByCourier(ctx, id)
}

// evaluateEmployeeAdverse demotes the employee when net resolved
// complaints or a poor rating average crosses the threshold, and
// terminates on the second demotion.
func (e *Engine) evaluateEmployeeAdverse(ctx context.Context, store ReputationStore, kind database.FeedbackTarget, id uuid.UUID) error {
	emp, err := store.GetEmployeeForUpdate(ctx, id)
	if err != nil {
		return fmt.Errorf("lock employee: %w", err)
	}
	if emp.IsTerminated {
		return nil
	}

	resolved, err := store.CountResolvedComplaintsAgainst(ctx, database.CountResolvedComplaintsAgainstParams{
		TargetKind: kind,
		TargetID:   id,
	})
	if err != nil {
		return err
	}
	approved, err := store.CountApprovedComplimentsFor(ctx, database.CountApprovedComplimentsForParams{
		TargetKind: kind,
		TargetID:   id,
	})
	if err != nil {
		return err
	}

	// Approved compliments offset resolved complaints, floored at zero.
	net := resolved - approved
	if net < 0 {
		net = 0
	}

	avg, samples, err := e.employeeAverage(ctx, store, kind, id)
	if err != nil {
		return err
	}

	if net < demotionNetAdverse && !(samples > 0 && avg < demotionAvgBelow) {
		return nil
	}

	emp, err = store.IncrementDemotion(ctx, id)
	if err != nil {
		return fmt.Errorf("increment demotion: %w", err)
	}
	if emp.DemotionCount >= terminationDemotions {
		if _, err := store.TerminateEmployee(ctx, id); err != nil {
			return fmt.Errorf("terminate employee: %w", err)
		}
	}
	return nil
}

// evaluateEmployeePositive grants a bonus count when approved
// compliments or a strong rating average crosses the threshold.
func (e *Engine) evaluateEmployeePositive(ctx context.Context, store ReputationStore, kind database.FeedbackTarget, id uuid.UUID) error {
	emp, err := store.GetEmployeeForUpdate(ctx, id)
	if err != nil {
		return fmt.Errorf("lock employee: %w", err)
	}
	if emp.IsTerminated {
		return nil
	}

	approved, err := store.CountApprovedComplimentsFor(ctx, database.CountApprovedComplimentsForParams{
		TargetKind: kind,
		TargetID:   id,
	})
	if err != nil {
		return err
	}

	avg, samples, err := e.employeeAverage(ctx, store, kind, id)
	if err != nil {
		return err
	}

	if approved < bonusCompliments && !(samples > 0 && avg > bonusAvgAbove) {
		return nil
	}

	if _, err := store.IncrementBonus(ctx, id); err != nil {
		return fmt.Errorf("increment bonus: %w", err)
	}
	return nil
}
