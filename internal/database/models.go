package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleChef     UserRole = "chef"
	UserRoleCourier  UserRole = "courier"
	UserRoleManager  UserRole = "manager"
)

func (e *UserRole) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = UserRole(s)
	case string:
		*e = UserRole(s)
	default:
		return fmt.Errorf("unsupported scan type for UserRole: %T", src)
	}
	return nil
}

func (e UserRole) Value() (driver.Value, error) { return string(e), nil }

type EmployeeKind string

const (
	EmployeeKindChef    EmployeeKind = "chef"
	EmployeeKindCourier EmployeeKind = "courier"
)

func (e *EmployeeKind) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = EmployeeKind(s)
	case string:
		*e = EmployeeKind(s)
	default:
		return fmt.Errorf("unsupported scan type for EmployeeKind: %T", src)
	}
	return nil
}

func (e EmployeeKind) Value() (driver.Value, error) { return string(e), nil }

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

func (e *OrderStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = OrderStatus(s)
	case string:
		*e = OrderStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for OrderStatus: %T", src)
	}
	return nil
}

func (e OrderStatus) Value() (driver.Value, error) { return string(e), nil }

// NullOrderStatus is an optional OrderStatus, used for query filters.
type NullOrderStatus struct {
	OrderStatus OrderStatus
	Valid       bool
}

func (ns *NullOrderStatus) Scan(src interface{}) error {
	if src == nil {
		ns.OrderStatus, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.OrderStatus.Scan(src)
}

func (ns NullOrderStatus) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.OrderStatus), nil
}

type ComplaintStatus string

const (
	ComplaintStatusPending       ComplaintStatus = "pending"
	ComplaintStatusInvestigating ComplaintStatus = "investigating"
	ComplaintStatusResolved      ComplaintStatus = "resolved"
	ComplaintStatusDismissed     ComplaintStatus = "dismissed"
)

func (e *ComplaintStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = ComplaintStatus(s)
	case string:
		*e = ComplaintStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for ComplaintStatus: %T", src)
	}
	return nil
}

func (e ComplaintStatus) Value() (driver.Value, error) { return string(e), nil }

type ComplimentStatus string

const (
	ComplimentStatusPending   ComplimentStatus = "pending"
	ComplimentStatusApproved  ComplimentStatus = "approved"
	ComplimentStatusDismissed ComplimentStatus = "dismissed"
)

func (e *ComplimentStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = ComplimentStatus(s)
	case string:
		*e = ComplimentStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for ComplimentStatus: %T", src)
	}
	return nil
}

func (e ComplimentStatus) Value() (driver.Value, error) { return string(e), nil }

type FeedbackTarget string

const (
	FeedbackTargetChef     FeedbackTarget = "chef"
	FeedbackTargetCourier  FeedbackTarget = "courier"
	FeedbackTargetCustomer FeedbackTarget = "customer"
)

func (e *FeedbackTarget) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = FeedbackTarget(s)
	case string:
		*e = FeedbackTarget(s)
	default:
		return fmt.Errorf("unsupported scan type for FeedbackTarget: %T", src)
	}
	return nil
}

func (e FeedbackTarget) Value() (driver.Value, error) { return string(e), nil }

type SubjectKind string

const (
	SubjectKindCustomer SubjectKind = "customer"
	SubjectKindChef     SubjectKind = "chef"
	SubjectKindCourier  SubjectKind = "courier"
)

func (e *SubjectKind) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = SubjectKind(s)
	case string:
		*e = SubjectKind(s)
	default:
		return fmt.Errorf("unsupported scan type for SubjectKind: %T", src)
	}
	return nil
}

func (e SubjectKind) Value() (driver.Value, error) { return string(e), nil }

type ReputationSource string

const (
	ReputationSourceComplaint      ReputationSource = "complaint"
	ReputationSourceCompliment     ReputationSource = "compliment"
	ReputationSourceDishRating     ReputationSource = "dish_rating"
	ReputationSourceDeliveryRating ReputationSource = "delivery_rating"
)

func (e *ReputationSource) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = ReputationSource(s)
	case string:
		*e = ReputationSource(s)
	default:
		return fmt.Errorf("unsupported scan type for ReputationSource: %T", src)
	}
	return nil
}

func (e ReputationSource) Value() (driver.Value, error) { return string(e), nil }

// --- Row models ---

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         UserRole
	CreatedAt    time.Time
}

type Customer struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Deposit       pgtype.Numeric
	TotalSpent    pgtype.Numeric
	OrderCount    int32
	Warnings      int32
	IsVip         bool
	IsBlacklisted bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Employee struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Kind          EmployeeKind
	Salary        pgtype.Numeric
	DemotionCount int32
	BonusCount    int32
	IsActive      bool
	IsTerminated  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Dish struct {
	ID          uuid.UUID
	ChefID      uuid.UUID
	Name        string
	Description string
	Price       pgtype.Numeric
	IsVipOnly   bool
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	Status          OrderStatus
	Subtotal        pgtype.Numeric
	VipDiscount     pgtype.Numeric
	TotalAmount     pgtype.Numeric
	CourierID       pgtype.UUID
	DeliveryAddress pgtype.Text
	Memo            pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	DishID    uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
}

type Complaint struct {
	ID              uuid.UUID
	ComplainantID   uuid.UUID
	TargetKind      FeedbackTarget
	TargetID        uuid.UUID
	OrderID         pgtype.UUID
	Title           string
	Description     string
	Status          ComplaintStatus
	ManagerResponse pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Compliment struct {
	ID              uuid.UUID
	ComplainantID   uuid.UUID
	TargetKind      FeedbackTarget
	TargetID        uuid.UUID
	OrderID         pgtype.UUID
	Title           string
	Description     string
	Status          ComplimentStatus
	ManagerResponse pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type DishRating struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	DishID     uuid.UUID
	Rating     int32
	Review     string
	CreatedAt  time.Time
}

type DeliveryRating struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	CourierID  uuid.UUID
	OrderID    uuid.UUID
	Rating     int32
	Review     string
	CreatedAt  time.Time
}

type DeliveryBid struct {
	ID            uuid.UUID
	CourierID     uuid.UUID
	OrderID       uuid.UUID
	BidAmount     pgtype.Numeric
	IsSelected    bool
	Justification string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ReputationEvent struct {
	ID          uuid.UUID
	SubjectKind SubjectKind
	SubjectID   uuid.UUID
	SourceKind  ReputationSource
	SourceID    uuid.UUID
	Rule        string
	AppliedAt   time.Time
}
