package http

import (
	"net/http"

	"trade-backend/internal/handlers"
	"trade-backend/internal/middleware"
	"trade-backend/internal/realtime"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	challanHandler *handlers.DeliveryChallanHandler,
	stockHandler *handlers.StockHandler,
	mappingHandler *handlers.ProductMappingHandler,
	healthHandler *handlers.HealthHandler,
	statsHandler *handlers.StatsHandler,
	hub *realtime.Hub,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/health", healthHandler.Check).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// System stats
	statsAPI := r.PathPrefix("/api/stats").Subrouter()
	statsAPI.Use(authMiddleware.Authenticate)
	statsAPI.HandleFunc("", statsHandler.Stats).Methods("GET")

	// Finished-goods delivery challans
	challanAPI := r.PathPrefix("/api/fg/delivery-challan").Subrouter()
	challanAPI.Use(authMiddleware.Authenticate)
	challanAPI.HandleFunc("", challanHandler.Create).Methods("POST")
	challanAPI.HandleFunc("", challanHandler.List).Methods("GET")
	challanAPI.HandleFunc("/{id:[0-9]+}", challanHandler.Get).Methods("GET")
	challanAPI.HandleFunc("/{id:[0-9]+}", challanHandler.UpdateStatus).Methods("PUT")

	// Product mappings (master data). Mutations are admin-only: a wrong
	// carton size corrupts every conversion downstream.
	mappingAPI := r.PathPrefix("/api/fg/product-mappings").Subrouter()
	mappingAPI.Use(authMiddleware.Authenticate)
	mappingAPI.Handle("", middleware.RequireAdmin(http.HandlerFunc(mappingHandler.Create))).Methods("POST")
	mappingAPI.HandleFunc("", mappingHandler.List).Methods("GET")
	mappingAPI.Handle("/{id:[0-9]+}", middleware.RequireAdmin(http.HandlerFunc(mappingHandler.Update))).Methods("PUT")
	mappingAPI.Handle("/{id:[0-9]+}", middleware.RequireAdmin(http.HandlerFunc(mappingHandler.Delete))).Methods("DELETE")

	// Real-time stock updates. Registered ahead of the stock subrouter so
	// /ws is not swallowed by the {product} catch-all; browsers cannot send
	// an Authorization header on the websocket handshake, so this route is
	// unauthenticated.
	r.HandleFunc("/api/fg/stock/ws", hub.HandleWebSocket)

	// Stock balances and inward receipts
	stockAPI := r.PathPrefix("/api/fg/stock").Subrouter()
	stockAPI.Use(authMiddleware.Authenticate)
	stockAPI.HandleFunc("", stockHandler.List).Methods("GET")
	stockAPI.HandleFunc("/receive", stockHandler.Receive).Methods("POST")
	stockAPI.HandleFunc("/{product}/movements", stockHandler.Movements).Methods("GET")
	stockAPI.HandleFunc("/{product}", stockHandler.Get).Methods("GET")

	return r
}
