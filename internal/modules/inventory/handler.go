package inventory

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/auth"
)

// Handler exposes inventory HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/batches", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/", h.list)                        // GET    /api/v1/batches?medicine_id=...
		r.Post("/", h.create)                     // POST   /api/v1/batches
		r.Get("/expired", h.listExpired)          // GET    /api/v1/batches/expired
		r.Get("/low-stock", h.listLowStock)       // GET    /api/v1/batches/low-stock?threshold=10
		r.Get("/{id}", h.get)                     // GET    /api/v1/batches/{id}
		r.Put("/{id}", h.update)                  // PUT    /api/v1/batches/{id}
		r.Patch("/{id}/stock", h.resetStock)      // PATCH  /api/v1/batches/{id}/stock
		r.Delete("/{id}", h.delete)               // DELETE /api/v1/batches/{id}
		r.Post("/{id}/restore", h.restore)        // POST   /api/v1/batches/{id}/restore
		r.Get("/{id}/barcodes", h.listBarcodes)   // GET    /api/v1/batches/{id}/barcodes
		r.Post("/{id}/barcodes", h.addBarcodes)   // POST   /api/v1/batches/{id}/barcodes
		r.Get("/select/{medicineID}", h.selected) // GET    /api/v1/batches/select/{medicineID}?quantity=2
	})
	r.Route("/api/v1/stock-barcodes", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Patch("/{code}", h.markBarcode) // PATCH /api/v1/stock-barcodes/{code}
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		batches []*Batch
		err     error
	)
	if medicineID := r.URL.Query().Get("medicine_id"); medicineID != "" {
		batches, err = h.service.ListByMedicine(r.Context(), medicineID)
	} else {
		batches, err = h.service.ListBatches(r.Context())
	}
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, batches)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := h.service.CreateBatch(r.Context(), req, auth.ActorFromRequest(r))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, b)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, b)
}

func (h *Handler) selected(w http.ResponseWriter, r *http.Request) {
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "quantity must be an integer"})
		return
	}
	b, err := h.service.SelectBatch(r.Context(), chi.URLParam(r, "medicineID"), quantity)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, b)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := h.service.UpdateBatch(r.Context(), chi.URLParam(r, "id"), req, auth.ActorFromRequest(r))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, b)
}

func (h *Handler) resetStock(w http.ResponseWriter, r *http.Request) {
	var req ResetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := h.service.ResetStock(r.Context(), chi.URLParam(r, "id"), req, auth.ActorFromRequest(r))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, b)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "id must be a valid UUID"})
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.service.Restore(r.Context(), id, req.Quantity); err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "stock restored"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBatch(r.Context(), chi.URLParam(r, "id"), auth.ActorFromRequest(r)); err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "batch deleted"})
}

func (h *Handler) listExpired(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.ListExpired(r.Context())
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, batches)
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, _ := strconv.Atoi(r.URL.Query().Get("threshold"))
	batches, err := h.service.ListLowStock(r.Context(), threshold)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, batches)
}

func (h *Handler) addBarcodes(w http.ResponseWriter, r *http.Request) {
	var req AddBarcodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.service.AddBarcodes(r.Context(), chi.URLParam(r, "id"), req, auth.ActorFromRequest(r)); err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, map[string]string{"status": "barcodes added"})
}

func (h *Handler) listBarcodes(w http.ResponseWriter, r *http.Request) {
	barcodes, err := h.service.ListBarcodes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, barcodes)
}

func (h *Handler) markBarcode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sold bool `json:"sold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.service.MarkBarcodeSold(r.Context(), chi.URLParam(r, "code"), req.Sold); err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "barcode updated"})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
