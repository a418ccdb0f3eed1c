package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/auth"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/medicines", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/", h.list)                       // GET    /api/v1/medicines?search=para
		r.Post("/", h.create)                    // POST   /api/v1/medicines
		r.Get("/{id}", h.get)                    // GET    /api/v1/medicines/{id}
		r.Put("/{id}", h.update)                 // PUT    /api/v1/medicines/{id}
		r.Patch("/{id}/status", h.updateStatus)  // PATCH  /api/v1/medicines/{id}/status
		r.Delete("/{id}", h.delete)              // DELETE /api/v1/medicines/{id}
		r.Get("/barcode/{code}", h.getByBarcode) // GET    /api/v1/medicines/barcode/{code}
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		medicines []*Medicine
		err       error
	)
	if term := r.URL.Query().Get("search"); term != "" {
		medicines, err = h.service.SearchMedicines(r.Context(), term)
	} else {
		medicines, err = h.service.ListMedicines(r.Context())
	}
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, medicines)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateMedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	m, err := h.service.CreateMedicine(r.Context(), req, auth.ActorFromRequest(r))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, m)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetMedicine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) getByBarcode(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetMedicineByBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateMedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	m, err := h.service.UpdateMedicine(r.Context(), chi.URLParam(r, "id"), req, auth.ActorFromRequest(r))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	m, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), Status(req.Status), auth.ActorFromRequest(r))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMedicine(r.Context(), chi.URLParam(r, "id"), auth.ActorFromRequest(r)); err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "medicine deleted"})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
