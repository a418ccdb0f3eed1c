package billing

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/auth"
)

// Handler exposes billing HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/bills", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/", h.list)                         // GET  /api/v1/bills?from=...&to=...
		r.Post("/", h.create)                      // POST /api/v1/bills
		r.Get("/{id}", h.get)                      // GET  /api/v1/bills/{id}
		r.Post("/{id}/cancel", h.cancel)           // POST /api/v1/bills/{id}/cancel
		r.Get("/number/{number}", h.getByNumber)   // GET  /api/v1/bills/number/{number}
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := h.service.CreateBill(r.Context(), req, auth.ActorFromRequest(r))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, b)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, b)
}

func (h *Handler) getByNumber(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBillByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, b)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		bills []*Bill
		err   error
	)
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from != "" && to != "" {
		bills, err = h.service.ListBillsByDateRange(r.Context(), from, to)
	} else {
		bills, err = h.service.ListBills(r.Context())
	}
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, bills)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := h.service.CancelBill(r.Context(), chi.URLParam(r, "id"), req.Reason, auth.ActorFromRequest(r))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, b)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
