package report

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/auth"
)

// Handler exposes reporting HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/daily-sales", h.dailySales)
		r.Get("/gst", h.gst)
		r.Get("/cashiers/{id}", h.cashierSales)
		r.Get("/stock", h.stock)
	})
}

func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.DailySales(r.Context(),
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, rows)
}

func (h *Handler) gst(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.GSTReport(r.Context(),
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, rows)
}

func (h *Handler) cashierSales(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.CashierSales(r.Context(), chi.URLParam(r, "id"),
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, row)
}

func (h *Handler) stock(w http.ResponseWriter, r *http.Request) {
	threshold, _ := strconv.Atoi(r.URL.Query().Get("low_stock_threshold"))
	rep, err := h.service.StockReport(r.Context(), threshold)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, rep)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
