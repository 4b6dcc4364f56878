package handler

import (
	"errors"
	"net/http"

	"servicedir/internal/domain"
	"servicedir/internal/etag"
	"servicedir/internal/registry"
	"servicedir/internal/service"
)

// APIPrefix is the versioned base path of the REST surface.
const APIPrefix = "/api/v1"

// ServiceHandler handles the REST service endpoints.
type ServiceHandler struct {
	svc *service.DirectoryService
}

// NewServiceHandler creates a new service handler.
func NewServiceHandler(svc *service.DirectoryService) *ServiceHandler {
	return &ServiceHandler{svc: svc}
}

// Create handles POST /api/v1/services.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.ServiceInput
	decodeJSON(r, &in)

	svc, err := h.svc.CreateService(in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Location", APIPrefix+"/services/"+svc.ID)
	writeJSON(w, http.StatusCreated, svc)
}

// List handles GET /api/v1/services with an optional exact-type filter.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListServices(r.URL.Query().Get("type")))
}

// Get handles GET /api/v1/services/{id} with conditional-read support.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.svc.GetService(r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	fingerprint := etag.Compute(svc)
	etag.SetHeaders(w, fingerprint)

	if etag.Match(r.Header.Get("If-None-Match"), fingerprint) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// Replace handles PUT /api/v1/services/{id}.
func (h *ServiceHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var in domain.ServiceInput
	decodeJSON(r, &in)

	svc, err := h.svc.ReplaceService(r.PathValue("id"), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// Patch handles PATCH /api/v1/services/{id}.
func (h *ServiceHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var p domain.ServicePatch
	decodeJSON(r, &p)

	svc, err := h.svc.PatchService(r.PathValue("id"), p)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// Delete handles DELETE /api/v1/services/{id}.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteService(r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health.
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Debug handles GET /debug/services, dumping the full registry contents
// keyed by id. Diagnostic only, not part of the stable contract.
func (h *ServiceHandler) Debug(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// writeServiceError maps registry outcomes to the REST error contract.
func (h *ServiceHandler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, registry.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "missing_fields",
			"fields": verr.Fields,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
