package service

import (
	"context"
	"errors"
	"testing"

	"github.com/goldenwok/api/internal/database"
	"github.com/google/uuid"
)

func newBidService(store *mockStore) *BidService {
	pool := &mockTxBeginner{tx: &mockTx{}}
	newStore := func(db database.DBTX) BidStore { return store }
	return NewBidService(pool, newStore)
}

func TestPlaceBid_Records(t *testing.T) {
	store := newMockStore()
	cust := store.addCustomer("100.00", false)
	courier := store.addEmployee(database.EmployeeKindCourier)
	order := addOrder(store, cust.ID, database.OrderStatusConfirmed)
	svc := newBidService(store)

	bid, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		CourierID:     courier.ID,
		OrderID:       order.ID,
		BidAmount:     "7.50",
		Justification: "close by",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(bid.BidAmount, "7.50") {
		t.Errorf("bid_amount: got %v, want 7.50", numericToDecimal(bid.BidAmount))
	}
	if bid.Justification != "close by" {
		t.Errorf("justification: got %q", bid.Justification)
	}
}

func TestPlaceBid_AmendReplacesAmount(t *testing.T) {
	store := newMockStore()
	cust := store.addCustomer("100.00", false)
	courier := store.addEmployee(database.EmployeeKindCourier)
	order := addOrder(store, cust.ID, database.OrderStatusConfirmed)
	svc := newBidService(store)

	first, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		CourierID: courier.ID,
		OrderID:   order.ID,
		BidAmount: "9.00",
	})
	if err != nil {
		t.Fatalf("first bid: %v", err)
	}
	second, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		CourierID: courier.ID,
		OrderID:   order.ID,
		BidAmount: "6.00",
	})
	if err != nil {
		t.Fatalf("amended bid: %v", err)
	}

	if second.ID != first.ID {
		t.Error("amending must reuse the same bid row")
	}
	if len(store.bids) != 1 {
		t.Fatalf("bids: got %d rows, want 1", len(store.bids))
	}
	if !numericEquals(store.bids[first.ID].BidAmount, "6.00") {
		t.Errorf("amended amount: got %v, want 6.00", numericToDecimal(store.bids[first.ID].BidAmount))
	}
}

func TestPlaceBid_InvalidAmount(t *testing.T) {
	store := newMockStore()
	svc := newBidService(store)

	for _, amount := range []string{"", "abc", "0", "-3.00"} {
		_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
			CourierID: uuid.New(),
			OrderID:   uuid.New(),
			BidAmount: amount,
		})
		if !errors.Is(err, ErrInvalidBidAmount) {
			t.Errorf("amount %q: expected ErrInvalidBidAmount, got: %v", amount, err)
		}
	}
}

func TestPlaceBid_ClosedStatuses(t *testing.T) {
	store := newMockStore()
	cust := store.addCustomer("100.00", false)
	courier := store.addEmployee(database.EmployeeKindCourier)
	svc := newBidService(store)

	closed := []database.OrderStatus{
		database.OrderStatusPending,
		database.OrderStatusPreparing,
		database.OrderStatusReady,
		database.OrderStatusOutForDelivery,
		database.OrderStatusDelivered,
		database.OrderStatusCancelled,
	}
	for _, status := range closed {
		order := addOrder(store, cust.ID, status)
		_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
			CourierID: courier.ID,
			OrderID:   order.ID,
			BidAmount: "5.00",
		})
		if !errors.Is(err, ErrBiddingClosed) {
			t.Errorf("status %s: expected ErrBiddingClosed, got: %v", status, err)
		}
	}
}

func TestPlaceBid_ClosedOnceCourierAssigned(t *testing.T) {
	store := newMockStore()
	cust := store.addCustomer("100.00", false)
	assigned := store.addEmployee(database.EmployeeKindCourier)
	other := store.addEmployee(database.EmployeeKindCourier)

	order := addOrder(store, cust.ID, database.OrderStatusConfirmed)
	o := store.orders[order.ID]
	o.CourierID = uuidToPg(assigned.ID)
	store.orders[order.ID] = o

	svc := newBidService(store)
	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		CourierID: other.ID,
		OrderID:   order.ID,
		BidAmount: "5.00",
	})
	if !errors.Is(err, ErrBiddingClosed) {
		t.Fatalf("expected ErrBiddingClosed, got: %v", err)
	}
}

func TestPlaceBid_InactiveCourier(t *testing.T) {
	store := newMockStore()
	cust := store.addCustomer("100.00", false)
	courier := store.addEmployee(database.EmployeeKindCourier)
	courier.IsActive = false
	store.employees[courier.ID] = courier
	order := addOrder(store, cust.ID, database.OrderStatusConfirmed)
	svc := newBidService(store)

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		CourierID: courier.ID,
		OrderID:   order.ID,
		BidAmount: "5.00",
	})
	if !errors.Is(err, ErrCourierInactive) {
		t.Fatalf("expected ErrCourierInactive, got: %v", err)
	}
}

func TestPlaceBid_ChefCannotBid(t *testing.T) {
	store := newMockStore()
	cust := store.addCustomer("100.00", false)
	chef := store.addEmployee(database.EmployeeKindChef)
	order := addOrder(store, cust.ID, database.OrderStatusConfirmed)
	svc := newBidService(store)

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		CourierID: chef.ID,
		OrderID:   order.ID,
		BidAmount: "5.00",
	})
	if !errors.Is(err, ErrCourierInactive) {
		t.Fatalf("expected ErrCourierInactive, got: %v", err)
	}
}

func TestSetSelection_ManualSelectOverridesWinner(t *testing.T) {
	store := newMockStore()
	cust := store.addCustomer("100.00", false)
	winner := store.addEmployee(database.EmployeeKindCourier)
	override := store.addEmployee(database.EmployeeKindCourier)
	order := addOrder(store, cust.ID, database.OrderStatusReady)
	svc := newBidService(store)

	low, _ := store.UpsertBid(context.Background(), database.UpsertBidParams{
		CourierID: winner.ID, OrderID: order.ID, BidAmount: makeNumeric("5.00"),
	})
	low, _ = store.SelectBid(context.Background(), database.SelectBidParams{ID: low.ID})
	high, _ := store.UpsertBid(context.Background(), database.UpsertBidParams{
		CourierID: override.ID, OrderID: order.ID, BidAmount: makeNumeric("9.00"),
	})

	bid, err := svc.SetSelection(context.Background(), high.ID, true, "customer asked for this courier")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bid.IsSelected {
		t.Error("expected overriding bid to be selected")
	}
	if bid.Justification != "customer asked for this courier" {
		t.Errorf("justification: got %q", bid.Justification)
	}
	if store.bids[low.ID].IsSelected {
		t.Error("previous winner must be deselected")
	}
	o := store.orders[order.ID]
	if !o.CourierID.Valid || uuid.UUID(o.CourierID.Bytes) != override.ID {
		t.Errorf("order courier: got %v, want %s", o.CourierID, override.ID)
	}
}

func TestSetSelection_DeselectUnassignsOrder(t *testing.T) {
	store := newMockStore()
	cust := store.addCustomer("100.00", false)
	courier := store.addEmployee(database.EmployeeKindCourier)
	order := addOrder(store, cust.ID, database.OrderStatusReady)
	svc := newBidService(store)

	bid, _ := store.UpsertBid(context.Background(), database.UpsertBidParams{
		CourierID: courier.ID, OrderID: order.ID, BidAmount: makeNumeric("5.00"),
	})
	store.SelectBid(context.Background(), database.SelectBidParams{ID: bid.ID})
	o := store.orders[order.ID]
	o.CourierID = uuidToPg(courier.ID)
	store.orders[order.ID] = o

	got, err := svc.SetSelection(context.Background(), bid.ID, false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsSelected {
		t.Error("expected bid to be deselected")
	}
	if store.orders[order.ID].CourierID.Valid {
		t.Error("expected order to be unassigned")
	}
}

func TestSetSelection_ClosedAfterDispatch(t *testing.T) {
	store := newMockStore()
	cust := store.addCustomer("100.00", false)
	courier := store.addEmployee(database.EmployeeKindCourier)
	order := addOrder(store, cust.ID, database.OrderStatusOutForDelivery)
	svc := newBidService(store)

	bid, _ := store.UpsertBid(context.Background(), database.UpsertBidParams{
		CourierID: courier.ID, OrderID: order.ID, BidAmount: makeNumeric("5.00"),
	})

	_, err := svc.SetSelection(context.Background(), bid.ID, true, "")
	if !errors.Is(err, ErrSelectionClosed) {
		t.Fatalf("expected ErrSelectionClosed, got: %v", err)
	}
}

func TestSetSelection_BidNotFound(t *testing.T) {
	store := newMockStore()
	svc := newBidService(store)

	_, err := svc.SetSelection(context.Background(), uuid.New(), true, "")
	if !errors.Is(err, ErrBidNotFound) {
		t.Fatalf("expected ErrBidNotFound, got: %v", err)
	}
}

func TestPlaceBid_OrderNotFound(t *testing.T) {
	store := newMockStore()
	courier := store.addEmployee(database.EmployeeKindCourier)
	svc := newBidService(store)

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		CourierID: courier.ID,
		OrderID:   uuid.New(),
		BidAmount: "5.00",
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}
