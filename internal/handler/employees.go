package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goldenwok/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Salary adjustments per action, by employee kind.
var (
	demoteDelta = map[database.EmployeeKind]string{
		database.EmployeeKindChef:    "-200.00",
		database.EmployeeKindCourier: "-150.00",
	}
	bonusDelta = map[database.EmployeeKind]string{
		database.EmployeeKindChef:    "500.00",
		database.EmployeeKindCourier: "300.00",
	}
	raiseDelta = map[database.EmployeeKind]string{
		database.EmployeeKindChef:    "300.00",
		database.EmployeeKindCourier: "200.00",
	}
)

// terminationDemotions mirrors the automatic rule: a second demotion,
// manual or earned, ends employment.
const terminationDemotions = 2

// EmployeeStore defines the database methods needed by employee
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type EmployeeStore interface {
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	CreateEmployee(ctx context.Context, arg database.CreateEmployeeParams) (database.Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
	ListEmployees(ctx context.Context) ([]database.Employee, error)
	IncrementDemotion(ctx context.Context, id uuid.UUID) (database.Employee, error)
	IncrementBonus(ctx context.Context, id uuid.UUID) (database.Employee, error)
	AdjustSalary(ctx context.Context, id uuid.UUID, delta pgtype.Numeric) (database.Employee, error)
	TerminateEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
	ReinstateEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
}

// EmployeeHandler handles staff administration endpoints.
type EmployeeHandler struct {
	store EmployeeStore
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(store EmployeeStore) *EmployeeHandler {
	return &EmployeeHandler{store: store}
}

// RegisterManagerRoutes registers employee administration endpoints.
func (h *EmployeeHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/employees", h.List)
	r.Post("/employees", h.Create)
	r.Post("/employees/{id}/bonus", h.Bonus)
	r.Post("/employees/{id}/demote", h.Demote)
	r.Post("/employees/{id}/raise", h.Raise)
	r.Post("/employees/{id}/terminate", h.Terminate)
	r.Post("/employees/{id}/reinstate", h.Reinstate)
}

// --- Request / Response types ---

type createEmployeeRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Salary   string `json:"salary"`
}

type employeeResponse struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Kind          string    `json:"kind"`
	Salary        string    `json:"salary"`
	DemotionCount int32     `json:"demotion_count"`
	BonusCount    int32     `json:"bonus_count"`
	IsActive      bool      `json:"is_active"`
	IsTerminated  bool      `json:"is_terminated"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// --- Handlers ---

// List handles GET /employees.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.store.ListEmployees(r.Context())
	if err != nil {
		log.Printf("ERROR: list employees: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]employeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = toEmployeeResponse(e)
	}
	writeJSON(w, http.StatusOK, map[string][]employeeResponse{"employees": resp})
}

// Create handles POST /employees: a manager onboarding a chef or
// courier. Creates the login account and the employee record.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email, password and name are required"})
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	kind := database.EmployeeKind(req.Kind)
	if kind != database.EmployeeKindChef && kind != database.EmployeeKindCourier {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind must be chef or courier"})
		return
	}

	salary, err := decimal.NewFromString(req.Salary)
	if err != nil || salary.LessThanOrEqual(decimal.Zero) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "salary must be a positive decimal"})
		return
	}
	var salaryNum pgtype.Numeric
	if err := salaryNum.Scan(salary.StringFixed(2)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "salary must be a positive decimal"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         database.UserRole(kind),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		log.Printf("ERROR: create user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	emp, err := h.store.CreateEmployee(r.Context(), database.CreateEmployeeParams{
		UserID: user.ID,
		Kind:   kind,
		Salary: salaryNum,
	})
	if err != nil {
		log.Printf("ERROR: create employee: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeResponse(emp))
}

// Bonus handles POST /employees/{id}/bonus: a manual bonus with the
// kind-specific salary bump.
func (h *EmployeeHandler) Bonus(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.loadActive(w, r)
	if !ok {
		return
	}

	if _, err := h.store.IncrementBonus(r.Context(), emp.ID); err != nil {
		log.Printf("ERROR: increment bonus: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.adjustAndRespond(w, r, emp.ID, bonusDelta[emp.Kind])
}

// Demote handles POST /employees/{id}/demote. A second demotion, from
// any source, terminates the employee.
func (h *EmployeeHandler) Demote(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.loadActive(w, r)
	if !ok {
		return
	}

	demoted, err := h.store.IncrementDemotion(r.Context(), emp.ID)
	if err != nil {
		log.Printf("ERROR: increment demotion: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	delta, err := numericFromString(demoteDelta[emp.Kind])
	if err != nil {
		log.Printf("ERROR: demotion delta: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	updated, err := h.store.AdjustSalary(r.Context(), emp.ID, delta)
	if err != nil {
		log.Printf("ERROR: adjust salary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if demoted.DemotionCount >= terminationDemotions {
		updated, err = h.store.TerminateEmployee(r.Context(), emp.ID)
		if err != nil {
			log.Printf("ERROR: terminate employee: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(updated))
}

// Raise handles POST /employees/{id}/raise.
func (h *EmployeeHandler) Raise(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.loadActive(w, r)
	if !ok {
		return
	}
	h.adjustAndRespond(w, r, emp.ID, raiseDelta[emp.Kind])
}

// Terminate handles POST /employees/{id}/terminate.
func (h *EmployeeHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee ID"})
		return
	}

	emp, err := h.store.TerminateEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
			return
		}
		log.Printf("ERROR: terminate employee: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(emp))
}

// Reinstate handles POST /employees/{id}/reinstate: reverses a
// termination and resets the demotion counter.
func (h *EmployeeHandler) Reinstate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee ID"})
		return
	}

	emp, err := h.store.ReinstateEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
			return
		}
		log.Printf("ERROR: reinstate employee: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(emp))
}

// --- Helpers ---

// loadActive fetches the employee from the URL and rejects terminated
// staff, which cannot receive bonuses, raises or further demotions.
func (h *EmployeeHandler) loadActive(w http.ResponseWriter, r *http.Request) (database.Employee, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee ID"})
		return database.Employee{}, false
	}

	emp, err := h.store.GetEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
			return database.Employee{}, false
		}
		log.Printf("ERROR: get employee: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.Employee{}, false
	}
	if emp.IsTerminated {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "employee is terminated"})
		return database.Employee{}, false
	}
	return emp, true
}

func (h *EmployeeHandler) adjustAndRespond(w http.ResponseWriter, r *http.Request, id uuid.UUID, deltaStr string) {
	delta, err := numericFromString(deltaStr)
	if err != nil {
		log.Printf("ERROR: salary delta: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	emp, err := h.store.AdjustSalary(r.Context(), id, delta)
	if err != nil {
		log.Printf("ERROR: adjust salary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(emp))
}

func numericFromString(s string) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	err := num.Scan(s)
	return num, err
}

func toEmployeeResponse(e database.Employee) employeeResponse {
	return employeeResponse{
		ID:            e.ID,
		UserID:        e.UserID,
		Kind:          string(e.Kind),
		Salary:        numericToString(e.Salary),
		DemotionCount: e.DemotionCount,
		BonusCount:    e.BonusCount,
		IsActive:      e.IsActive,
		IsTerminated:  e.IsTerminated,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
