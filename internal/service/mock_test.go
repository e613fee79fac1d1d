package service

import (
	"context"
	"fmt"

	"github.com/goldenwok/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock transaction plumbing ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	commits     int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.commits++
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  *mockTx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func uuidToPg(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// --- Stateful mock store ---

// mockStore is a map-backed implementation of every service store
// interface. Commit/rollback is not simulated: tests assert on the
// final state of the maps.
type mockStore struct {
	customers       map[uuid.UUID]database.Customer
	employees       map[uuid.UUID]database.Employee
	dishes          map[uuid.UUID]database.Dish
	orders          map[uuid.UUID]database.Order
	orderItems      []database.OrderItem
	complaints      map[uuid.UUID]database.Complaint
	compliments     map[uuid.UUID]database.Compliment
	dishRatings     map[uuid.UUID]database.DishRating
	deliveryRatings map[uuid.UUID]database.DeliveryRating
	bids            map[uuid.UUID]database.DeliveryBid
	events          map[string]database.ReputationEvent
}

func newMockStore() *mockStore {
	return &mockStore{
		customers:       make(map[uuid.UUID]database.Customer),
		employees:       make(map[uuid.UUID]database.Employee),
		dishes:          make(map[uuid.UUID]database.Dish),
		orders:          make(map[uuid.UUID]database.Order),
		complaints:      make(map[uuid.UUID]database.Complaint),
		compliments:     make(map[uuid.UUID]database.Compliment),
		dishRatings:     make(map[uuid.UUID]database.DishRating),
		deliveryRatings: make(map[uuid.UUID]database.DeliveryRating),
		bids:            make(map[uuid.UUID]database.DeliveryBid),
		events:          make(map[string]database.ReputationEvent),
	}
}

func (m *mockStore) addCustomer(deposit string, vip bool) database.Customer {
	c := database.Customer{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		Deposit: makeNumeric(deposit),
		IsVip:   vip,
	}
	c.TotalSpent = makeNumeric("0.00")
	m.customers[c.ID] = c
	return c
}

func (m *mockStore) addEmployee(kind database.EmployeeKind) database.Employee {
	e := database.Employee{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Kind:     kind,
		Salary:   makeNumeric("2000.00"),
		IsActive: true,
	}
	m.employees[e.ID] = e
	return e
}

func (m *mockStore) addDish(chefID uuid.UUID, price string, vipOnly bool) database.Dish {
	d := database.Dish{
		ID:          uuid.New(),
		ChefID:      chefID,
		Name:        "dish",
		Price:       makeNumeric(price),
		IsVipOnly:   vipOnly,
		IsAvailable: true,
	}
	m.dishes[d.ID] = d
	return d
}

func eventKey(arg database.InsertReputationEventParams) string {
	return fmt.Sprintf("%s|%s|%s|%s", arg.SubjectKind, arg.SubjectID, arg.SourceKind, arg.SourceID)
}

// --- ReputationStore ---

func (m *mockStore) InsertReputationEvent(ctx context.Context, arg database.InsertReputationEventParams) (int64, error) {
	key := eventKey(arg)
	if _, ok := m.events[key]; ok {
		return 0, nil
	}
	m.events[key] = database.ReputationEvent{
		ID:          uuid.New(),
		SubjectKind: arg.SubjectKind,
		SubjectID:   arg.SubjectID,
		SourceKind:  arg.SourceKind,
		SourceID:    arg.SourceID,
		Rule:        arg.Rule,
	}
	return 1, nil
}

func (m *mockStore) GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockStore) GetCustomerForUpdate(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	return m.GetCustomer(ctx, id)
}

func (m *mockStore) IncrementWarnings(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.Warnings++
	m.customers[id] = c
	return c, nil
}

func (m *mockStore) SetCustomerVip(ctx context.Context, id uuid.UUID, isVip bool) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.IsVip = isVip
	m.customers[id] = c
	return c, nil
}

func (m *mockStore) SetCustomerBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.IsBlacklisted = blacklisted
	m.customers[id] = c
	return c, nil
}

func (m *mockStore) DowngradeCustomerVip(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.IsVip = false
	c.Warnings = 0
	m.customers[id] = c
	return c, nil
}

func (m *mockStore) CountOpenComplaintsByComplainant(ctx context.Context, complainantID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range m.complaints {
		if c.ComplainantID == complainantID &&
			(c.Status == database.ComplaintStatusPending || c.Status == database.ComplaintStatusInvestigating) {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) GetEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return database.Employee{}, pgx.ErrNoRows
	}
	return e, nil
}

func (m *mockStore) GetEmployeeForUpdate(ctx context.Context, id uuid.UUID) (database.Employee, error) {
	return m.GetEmployee(ctx, id)
}

func (m *mockStore) IncrementDemotion(ctx context.Context, id uuid.UUID) (database.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return database.Employee{}, pgx.ErrNoRows
	}
	e.DemotionCount++
	m.employees[id] = e
	return e, nil
}

func (m *mockStore) IncrementBonus(ctx context.Context, id uuid.UUID) (database.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return database.Employee{}, pgx.ErrNoRows
	}
	e.BonusCount++
	m.employees[id] = e
	return e, nil
}

func (m *mockStore) TerminateEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return database.Employee{}, pgx.ErrNoRows
	}
	e.IsActive = false
	e.IsTerminated = true
	m.employees[id] = e
	return e, nil
}

func (m *mockStore) CountResolvedComplaintsAgainst(ctx context.Context, arg database.CountResolvedComplaintsAgainstParams) (int64, error) {
	var n int64
	for _, c := range m.complaints {
		if c.TargetKind == arg.TargetKind && c.TargetID == arg.TargetID && c.Status == database.ComplaintStatusResolved {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) CountApprovedComplimentsFor(ctx context.Context, arg database.CountApprovedComplimentsForParams) (int64, error) {
	var n int64
	for _, c := range m.compliments {
		if c.TargetKind == arg.TargetKind && c.TargetID == arg.TargetID && c.Status == database.ComplimentStatusApproved {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) AvgDishRatingByChef(ctx context.Context, chefID uuid.UUID) (float64, int64, error) {
	var sum, n int64
	for _, r := range m.dishRatings {
		dish, ok := m.dishes[r.DishID]
		if ok && dish.ChefID == chefID {
			sum += int64(r.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}

func (m *mockStore) AvgDeliveryRatingByCourier(ctx context.Context, courierID uuid.UUID) (float64, int64, error) {
	var sum, n int64
	for _, r := range m.deliveryRatings {
		if r.CourierID == courierID {
			sum += int64(r.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}

func (m *mockStore) GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error) {
	d, ok := m.dishes[id]
	if !ok {
		return database.Dish{}, pgx.ErrNoRows
	}
	return d, nil
}

// --- OrderStore ---

func (m *mockStore) GetDishForOrder(ctx context.Context, id uuid.UUID) (database.Dish, error) {
	d, ok := m.dishes[id]
	if !ok || !d.IsAvailable {
		return database.Dish{}, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	o := database.Order{
		ID:              uuid.New(),
		CustomerID:      arg.CustomerID,
		Status:          database.OrderStatusPending,
		Subtotal:        arg.Subtotal,
		VipDiscount:     arg.VipDiscount,
		TotalAmount:     arg.TotalAmount,
		DeliveryAddress: arg.DeliveryAddress,
		Memo:            arg.Memo,
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *mockStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	it := database.OrderItem{
		ID:        uuid.New(),
		OrderID:   arg.OrderID,
		DishID:    arg.DishID,
		Quantity:  arg.Quantity,
		UnitPrice: arg.UnitPrice,
	}
	m.orderItems = append(m.orderItems, it)
	return it, nil
}

func (m *mockStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockStore) GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok || o.CustomerID != arg.CustomerID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok || o.Status != arg.FromStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	m.orders[arg.ID] = o
	return o, nil
}

func (m *mockStore) CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok || o.CustomerID != arg.CustomerID || o.Status != database.OrderStatusPending {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = database.OrderStatusCancelled
	m.orders[arg.ID] = o
	return o, nil
}

func (m *mockStore) AssignOrderCourier(ctx context.Context, arg database.AssignOrderCourierParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.CourierID = arg.CourierID
	m.orders[arg.ID] = o
	return o, nil
}

func (m *mockStore) DebitDeposit(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	balance := numericToDecimal(c.Deposit)
	debit := numericToDecimal(amount)
	if balance.LessThan(debit) {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.Deposit = decimalToNumeric(balance.Sub(debit))
	m.customers[id] = c
	return c, nil
}

func (m *mockStore) CreditDeposit(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.Deposit = decimalToNumeric(numericToDecimal(c.Deposit).Add(numericToDecimal(amount)))
	m.customers[id] = c
	return c, nil
}

func (m *mockStore) RecordSpend(ctx context.Context, id uuid.UUID, amount pgtype.Numeric) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.TotalSpent = decimalToNumeric(numericToDecimal(c.TotalSpent).Add(numericToDecimal(amount)))
	c.OrderCount++
	m.customers[id] = c
	return c, nil
}

func (m *mockStore) DecrementOrderCount(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	if c.OrderCount > 0 {
		c.OrderCount--
	}
	m.customers[id] = c
	return c, nil
}

func (m *mockStore) GetLowestBid(ctx context.Context, orderID uuid.UUID) (database.DeliveryBid, error) {
	var best *database.DeliveryBid
	for id := range m.bids {
		b := m.bids[id]
		if b.OrderID != orderID {
			continue
		}
		if courier, ok := m.employees[b.CourierID]; !ok || !courier.IsActive {
			continue
		}
		if best == nil {
			best = &b
			continue
		}
		cur := numericToDecimal(b.BidAmount)
		bestAmt := numericToDecimal(best.BidAmount)
		if cur.LessThan(bestAmt) || (cur.Equal(bestAmt) && b.CreatedAt.Before(best.CreatedAt)) {
			best = &b
		}
	}
	if best == nil {
		return database.DeliveryBid{}, pgx.ErrNoRows
	}
	return *best, nil
}

func (m *mockStore) SelectBid(ctx context.Context, arg database.SelectBidParams) (database.DeliveryBid, error) {
	b, ok := m.bids[arg.ID]
	if !ok {
		return database.DeliveryBid{}, pgx.ErrNoRows
	}
	b.IsSelected = true
	if arg.Justification != "" {
		b.Justification = arg.Justification
	}
	m.bids[arg.ID] = b
	return b, nil
}

func (m *mockStore) GetBid(ctx context.Context, id uuid.UUID) (database.DeliveryBid, error) {
	b, ok := m.bids[id]
	if !ok {
		return database.DeliveryBid{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *mockStore) DeselectBid(ctx context.Context, id uuid.UUID) (database.DeliveryBid, error) {
	b, ok := m.bids[id]
	if !ok {
		return database.DeliveryBid{}, pgx.ErrNoRows
	}
	b.IsSelected = false
	m.bids[id] = b
	return b, nil
}

func (m *mockStore) DeselectBidsForOrder(ctx context.Context, orderID uuid.UUID) error {
	for id, b := range m.bids {
		if b.OrderID == orderID && b.IsSelected {
			b.IsSelected = false
			m.bids[id] = b
		}
	}
	return nil
}

// --- BidStore ---

func (m *mockStore) UpsertBid(ctx context.Context, arg database.UpsertBidParams) (database.DeliveryBid, error) {
	for id, b := range m.bids {
		if b.CourierID == arg.CourierID && b.OrderID == arg.OrderID {
			b.BidAmount = arg.BidAmount
			b.Justification = arg.Justification
			m.bids[id] = b
			return b, nil
		}
	}
	b := database.DeliveryBid{
		ID:            uuid.New(),
		CourierID:     arg.CourierID,
		OrderID:       arg.OrderID,
		BidAmount:     arg.BidAmount,
		Justification: arg.Justification,
	}
	m.bids[b.ID] = b
	return b, nil
}

// --- FeedbackStore ---

func (m *mockStore) CreateComplaint(ctx context.Context, arg database.CreateComplaintParams) (database.Complaint, error) {
	for _, c := range m.complaints {
		if c.ComplainantID == arg.ComplainantID && c.OrderID == arg.OrderID &&
			c.TargetKind == arg.TargetKind && c.TargetID == arg.TargetID {
			return database.Complaint{}, &pgconn.PgError{Code: "23505"}
		}
	}
	c := database.Complaint{
		ID:            uuid.New(),
		ComplainantID: arg.ComplainantID,
		TargetKind:    arg.TargetKind,
		TargetID:      arg.TargetID,
		OrderID:       arg.OrderID,
		Title:         arg.Title,
		Description:   arg.Description,
		Status:        database.ComplaintStatusPending,
	}
	m.complaints[c.ID] = c
	return c, nil
}

func (m *mockStore) GetComplaint(ctx context.Context, id uuid.UUID) (database.Complaint, error) {
	c, ok := m.complaints[id]
	if !ok {
		return database.Complaint{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockStore) UpdateComplaintStatus(ctx context.Context, arg database.UpdateComplaintStatusParams) (database.Complaint, error) {
	c, ok := m.complaints[arg.ID]
	if !ok || c.Status != arg.FromStatus {
		return database.Complaint{}, pgx.ErrNoRows
	}
	c.Status = arg.Status
	if arg.ManagerResponse.Valid {
		c.ManagerResponse = arg.ManagerResponse
	}
	m.complaints[arg.ID] = c
	return c, nil
}

func (m *mockStore) CreateCompliment(ctx context.Context, arg database.CreateComplimentParams) (database.Compliment, error) {
	for _, c := range m.compliments {
		if c.ComplainantID == arg.ComplainantID && c.OrderID == arg.OrderID &&
			c.TargetKind == arg.TargetKind && c.TargetID == arg.TargetID {
			return database.Compliment{}, &pgconn.PgError{Code: "23505"}
		}
	}
	c := database.Compliment{
		ID:            uuid.New(),
		ComplainantID: arg.ComplainantID,
		TargetKind:    arg.TargetKind,
		TargetID:      arg.TargetID,
		OrderID:       arg.OrderID,
		Title:         arg.Title,
		Description:   arg.Description,
		Status:        database.ComplimentStatusPending,
	}
	m.compliments[c.ID] = c
	return c, nil
}

func (m *mockStore) GetCompliment(ctx context.Context, id uuid.UUID) (database.Compliment, error) {
	c, ok := m.compliments[id]
	if !ok {
		return database.Compliment{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockStore) UpdateComplimentStatus(ctx context.Context, arg database.UpdateComplimentStatusParams) (database.Compliment, error) {
	c, ok := m.compliments[arg.ID]
	if !ok || c.Status != arg.FromStatus {
		return database.Compliment{}, pgx.ErrNoRows
	}
	c.Status = arg.Status
	if arg.ManagerResponse.Valid {
		c.ManagerResponse = arg.ManagerResponse
	}
	m.compliments[arg.ID] = c
	return c, nil
}

func (m *mockStore) UpsertDishRating(ctx context.Context, arg database.UpsertDishRatingParams) (database.DishRating, error) {
	for id, r := range m.dishRatings {
		if r.CustomerID == arg.CustomerID && r.DishID == arg.DishID {
			r.Rating = arg.Rating
			r.Review = arg.Review
			m.dishRatings[id] = r
			return r, nil
		}
	}
	r := database.DishRating{
		ID:         uuid.New(),
		CustomerID: arg.CustomerID,
		DishID:     arg.DishID,
		Rating:     arg.Rating,
		Review:     arg.Review,
	}
	m.dishRatings[r.ID] = r
	return r, nil
}

func (m *mockStore) UpsertDeliveryRating(ctx context.Context, arg database.UpsertDeliveryRatingParams) (database.DeliveryRating, error) {
	for id, r := range m.deliveryRatings {
		if r.CustomerID == arg.CustomerID && r.OrderID == arg.OrderID {
			r.Rating = arg.Rating
			r.Review = arg.Review
			m.deliveryRatings[id] = r
			return r, nil
		}
	}
	r := database.DeliveryRating{
		ID:         uuid.New(),
		CustomerID: arg.CustomerID,
		CourierID:  arg.CourierID,
		OrderID:    arg.OrderID,
		Rating:     arg.Rating,
		Review:     arg.Review,
	}
	m.deliveryRatings[r.ID] = r
	return r, nil
}

// --- SweepStore ---

func (m *mockStore) hasEvent(sourceKind database.ReputationSource, sourceID uuid.UUID) bool {
	for _, ev := range m.events {
		if ev.SourceKind == sourceKind && ev.SourceID == sourceID {
			return true
		}
	}
	return false
}

func (m *mockStore) ListUnappliedComplaints(ctx context.Context, limit int32) ([]database.Complaint, error) {
	var out []database.Complaint
	for _, c := range m.complaints {
		if c.Status != database.ComplaintStatusResolved && c.Status != database.ComplaintStatusDismissed {
			continue
		}
		if !m.hasEvent(database.ReputationSourceComplaint, c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) ListUnappliedCompliments(ctx context.Context, limit int32) ([]database.Compliment, error) {
	var out []database.Compliment
	for _, c := range m.compliments {
		if c.Status != database.ComplimentStatusApproved && c.Status != database.ComplimentStatusDismissed {
			continue
		}
		if !m.hasEvent(database.ReputationSourceCompliment, c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) ListUnappliedDishRatings(ctx context.Context, limit int32) ([]database.DishRating, error) {
	var out []database.DishRating
	for _, r := range m.dishRatings {
		if !m.hasEvent(database.ReputationSourceDishRating, r.ID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ListUnappliedDeliveryRatings(ctx context.Context, limit int32) ([]database.DeliveryRating, error) {
	var out []database.DeliveryRating
	for _, r := range m.deliveryRatings {
		if !m.hasEvent(database.ReputationSourceDeliveryRating, r.ID) {
			out = append(out, r)
		}
	}
	return out, nil
}
