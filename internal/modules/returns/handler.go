package returns

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/auth"
)

// Handler exposes return HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/returns", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/", h.list)                 // GET  /api/v1/returns?bill_id=...
		r.Post("/", h.process)             // POST /api/v1/returns
		r.Get("/{id}", h.get)              // GET  /api/v1/returns/{id}
	})
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var req ProcessReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ret, bill, err := h.service.ProcessReturn(r.Context(), req, auth.ActorFromRequest(r))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{"return": ret, "bill": bill})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ret, err := h.service.GetReturn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, ret)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		out []*Return
		err error
	)
	if billID := r.URL.Query().Get("bill_id"); billID != "" {
		out, err = h.service.ListReturnsByBill(r.Context(), billID)
	} else {
		out, err = h.service.ListReturns(r.Context())
	}
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, out)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
