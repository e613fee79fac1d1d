package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goldenwok/api/internal/database"
	"github.com/goldenwok/api/internal/handler"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock store ---

type mockDishStore struct {
	dishes map[uuid.UUID]database.Dish
}

func newMockDishStore() *mockDishStore {
	return &mockDishStore{dishes: make(map[uuid.UUID]database.Dish)}
}

func (m *mockDishStore) addDish(chefID uuid.UUID, price string) database.Dish {
	var num pgtype.Numeric
	num.Scan(price)
	d := database.Dish{
		ID: uuid.New(), ChefID: chefID, Name: "Fried Rice", Price: num,
		IsAvailable: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.dishes[d.ID] = d
	return d
}

func (m *mockDishStore) ListAvailableDishes(_ context.Context) ([]database.Dish, error) {
	var result []database.Dish
	for _, d := range m.dishes {
		if d.IsAvailable {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *mockDishStore) GetDish(_ context.Context, id uuid.UUID) (database.Dish, error) {
	d, ok := m.dishes[id]
	if !ok {
		return database.Dish{}, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockDishStore) CreateDish(_ context.Context, arg database.CreateDishParams) (database.Dish, error) {
	d := database.Dish{
		ID: uuid.New(), ChefID: arg.ChefID, Name: arg.Name, Description: arg.Description,
		Price: arg.Price, IsVipOnly: arg.IsVipOnly, IsAvailable: true,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.dishes[d.ID] = d
	return d, nil
}

func (m *mockDishStore) SetDishAvailability(_ context.Context, id uuid.UUID, available bool) (database.Dish, error) {
	d, ok := m.dishes[id]
	if !ok {
		return database.Dish{}, pgx.ErrNoRows
	}
	d.IsAvailable = available
	m.dishes[id] = d
	return d, nil
}

// --- Helpers ---

func setupDishRouter(store *mockDishStore) *chi.Mux {
	h := handler.NewDishHandler(store)
	r := chi.NewRouter()
	h.RegisterSharedRoutes(r)
	h.RegisterStaffRoutes(r)
	return r
}

// --- Tests ---

func TestDishList(t *testing.T) {
	store := newMockDishStore()
	store.addDish(uuid.New(), "25.00")
	hidden := store.addDish(uuid.New(), "30.00")
	hidden.IsAvailable = false
	store.dishes[hidden.ID] = hidden

	router := setupDishRouter(store)

	req := authedRequest(http.MethodGet, "/dishes", nil, customerClaims(uuid.New()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	resp := decodeBody(t, rr)
	if dishes := resp["dishes"].([]interface{}); len(dishes) != 1 {
		t.Errorf("expected 1 available dish, got %d", len(dishes))
	}
}

func TestDishCreateAsChef(t *testing.T) {
	store := newMockDishStore()
	chefID := uuid.New()
	router := setupDishRouter(store)

	req := authedRequest(http.MethodPost, "/dishes", map[string]interface{}{
		"name":        "Mapo Tofu",
		"description": "numbing and hot",
		"price":       "18.50",
		"is_vip_only": true,
	}, chefClaims(chefID))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["chef_id"] != chefID.String() {
		t.Errorf("chef_id: got %v, want the caller %s", resp["chef_id"], chefID)
	}
	if resp["price"] != "18.50" {
		t.Errorf("price: got %v, want 18.50", resp["price"])
	}
	if resp["is_vip_only"] != true {
		t.Error("expected vip-only dish")
	}
}

func TestDishCreateAsManagerRequiresChefID(t *testing.T) {
	store := newMockDishStore()
	router := setupDishRouter(store)

	req := authedRequest(http.MethodPost, "/dishes", map[string]interface{}{
		"name":  "Dumplings",
		"price": "12.00",
	}, managerClaims())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without chef_id, got %d", rr.Code)
	}
}

func TestDishCreateAsManagerWithChefID(t *testing.T) {
	store := newMockDishStore()
	chefID := uuid.New()
	router := setupDishRouter(store)

	req := authedRequest(http.MethodPost, "/dishes", map[string]interface{}{
		"chef_id": chefID.String(),
		"name":    "Dumplings",
		"price":   "12.00",
	}, managerClaims())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	resp := decodeBody(t, rr)
	if resp["chef_id"] != chefID.String() {
		t.Errorf("chef_id: got %v, want %s", resp["chef_id"], chefID)
	}
}

func TestDishCreateInvalidPrice(t *testing.T) {
	store := newMockDishStore()
	router := setupDishRouter(store)

	for _, price := range []string{"", "abc", "0", "-3.00"} {
		req := authedRequest(http.MethodPost, "/dishes", map[string]interface{}{
			"name":  "Dumplings",
			"price": price,
		}, chefClaims(uuid.New()))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("price %q: expected status 400, got %d", price, rr.Code)
		}
	}
}

func TestDishSetAvailability(t *testing.T) {
	store := newMockDishStore()
	chefID := uuid.New()
	d := store.addDish(chefID, "25.00")
	router := setupDishRouter(store)

	req := authedRequest(http.MethodPatch, "/dishes/"+d.ID.String()+"/availability",
		map[string]bool{"is_available": false}, chefClaims(chefID))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if store.dishes[d.ID].IsAvailable {
		t.Error("expected dish to be unavailable")
	}
}

func TestDishSetAvailabilityForeignChef(t *testing.T) {
	store := newMockDishStore()
	d := store.addDish(uuid.New(), "25.00")
	router := setupDishRouter(store)

	req := authedRequest(http.MethodPatch, "/dishes/"+d.ID.String()+"/availability",
		map[string]bool{"is_available": false}, chefClaims(uuid.New()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for another chef's dish, got %d", rr.Code)
	}
}

func TestDishSetAvailabilityAsManager(t *testing.T) {
	store := newMockDishStore()
	d := store.addDish(uuid.New(), "25.00")
	router := setupDishRouter(store)

	req := authedRequest(http.MethodPatch, "/dishes/"+d.ID.String()+"/availability",
		map[string]bool{"is_available": false}, managerClaims())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200 for manager, got %d", rr.Code)
	}
}
