package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goldenwok/api/internal/auth"
	"github.com/goldenwok/api/internal/database"
	"github.com/goldenwok/api/internal/handler"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

// --- Mock store ---

type mockAuthStore struct {
	users     map[uuid.UUID]database.User
	customers map[uuid.UUID]database.Customer // keyed by user ID
	employees map[uuid.UUID]database.Employee // keyed by user ID
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{
		users:     make(map[uuid.UUID]database.User),
		customers: make(map[uuid.UUID]database.Customer),
		employees: make(map[uuid.UUID]database.Employee),
	}
}

func (m *mockAuthStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	for _, u := range m.users {
		if u.Email == arg.Email {
			return database.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := database.User{
		ID:           uuid.New(),
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Name:         arg.Name,
		Role:         arg.Role,
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockAuthStore) GetUser(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (database.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) CreateCustomer(_ context.Context, userID uuid.UUID) (database.Customer, error) {
	c := database.Customer{ID: uuid.New(), UserID: userID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.customers[userID] = c
	return c, nil
}

func (m *mockAuthStore) GetCustomerByUser(_ context.Context, userID uuid.UUID) (database.Customer, error) {
	c, ok := m.customers[userID]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockAuthStore) GetEmployeeByUser(_ context.Context, userID uuid.UUID) (database.Employee, error) {
	e, ok := m.employees[userID]
	if !ok {
		return database.Employee{}, pgx.ErrNoRows
	}
	return e, nil
}

// --- Helpers ---

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func registerUser(t *testing.T, store *mockAuthStore, email, password string) database.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := store.CreateUser(context.Background(), database.CreateUserParams{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test User",
		Role:         database.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.CreateCustomer(context.Background(), u.ID); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return u
}

// --- Tests ---

func TestRegister(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	req := authedRequest(http.MethodPost, "/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
		"name":     "Alice",
	}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	if resp["access_token"] == "" || resp["refresh_token"] == "" {
		t.Error("expected token pair in response")
	}
	user := resp["user"].(map[string]interface{})
	if user["role"] != "customer" {
		t.Errorf("role: got %v, want customer", user["role"])
	}
	if user["profile_id"] == uuid.Nil.String() {
		t.Error("expected a customer profile to be created")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)
	registerUser(t, store, "alice@example.com", "password123")

	req := authedRequest(http.MethodPost, "/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
		"name":     "Alice Again",
	}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	req := authedRequest(http.MethodPost, "/auth/register", map[string]string{
		"email":    "bob@example.com",
		"password": "short",
		"name":     "Bob",
	}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	req := authedRequest(http.MethodPost, "/auth/register", map[string]string{
		"email": "bob@example.com",
	}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)
	u := registerUser(t, store, "alice@example.com", "password123")

	req := authedRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	user := resp["user"].(map[string]interface{})
	if user["id"] != u.ID.String() {
		t.Errorf("user id: got %v, want %s", user["id"], u.ID)
	}
	if user["profile_id"] != store.customers[u.ID].ID.String() {
		t.Errorf("profile_id: got %v, want %s", user["profile_id"], store.customers[u.ID].ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)
	registerUser(t, store, "alice@example.com", "password123")

	req := authedRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	req := authedRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestRefresh(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)
	u := registerUser(t, store, "alice@example.com", "password123")

	token, err := auth.GenerateRefreshToken(testJWTSecret, u.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	req := authedRequest(http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": token,
	}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	if resp["access_token"] == "" {
		t.Error("expected a fresh access token")
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	req := authedRequest(http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": "not-a-token",
	}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}
