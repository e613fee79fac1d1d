package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goldenwok/api/internal/config"
	"github.com/goldenwok/api/internal/database"
	"github.com/goldenwok/api/internal/enum"
	"github.com/goldenwok/api/internal/handler"
	mw "github.com/goldenwok/api/internal/middleware"
	"github.com/goldenwok/api/internal/service"
	"github.com/goldenwok/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Routes are grouped by role: customer ordering and feedback, courier
// bidding, chef menu management, and manager administration.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services. Each opens its own transactions against the pool and
	// builds a tx-scoped store through the factory.
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	bidService := service.NewBidService(pool, func(db database.DBTX) service.BidStore {
		return database.New(db)
	})
	feedbackService := service.NewFeedbackService(pool, func(db database.DBTX) service.FeedbackStore {
		return database.New(db)
	})
	sweepService := service.NewSweepService(pool, queries, func(db database.DBTX) service.SweepStore {
		return database.New(db)
	}, cfg.SweepBatchSize)

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	orderHandler := handler.NewOrderHandler(orderService, queries, hub)
	bidHandler := handler.NewBidHandler(bidService, queries, hub)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, queries)
	customerHandler := handler.NewCustomerHandler(queries)
	employeeHandler := handler.NewEmployeeHandler(queries)
	dishHandler := handler.NewDishHandler(queries)
	reportsHandler := handler.NewReportsHandler(queries, sweepService)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Every authenticated role can browse the menu and read orders.
		dishHandler.RegisterSharedRoutes(r)
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterSharedRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleCustomer))
				orderHandler.RegisterCustomerRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleChef, enum.RoleCourier, enum.RoleManager))
				orderHandler.RegisterStaffRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleManager))
				orderHandler.RegisterManagerRoutes(r)
			})
		})

		// Customer self-service: ledger, complaints, compliments, ratings.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleCustomer))
			customerHandler.RegisterSelfRoutes(r)
			feedbackHandler.RegisterCustomerRoutes(r)
		})

		// Courier bidding surface.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleCourier))
			bidHandler.RegisterCourierRoutes(r)
		})

		// Chefs and couriers see feedback filed against them; chefs and
		// managers maintain the menu.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleChef, enum.RoleCourier))
			feedbackHandler.RegisterStaffRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleChef, enum.RoleManager))
			dishHandler.RegisterStaffRoutes(r)
		})

		// Manager administration.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleManager))
			bidHandler.RegisterManagerRoutes(r)
			feedbackHandler.RegisterManagerRoutes(r)
			customerHandler.RegisterManagerRoutes(r)
			employeeHandler.RegisterManagerRoutes(r)
			reportsHandler.RegisterManagerRoutes(r)
		})
	})

	return r
}
