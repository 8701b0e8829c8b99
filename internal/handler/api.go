package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"utdr-guide/internal/auth"
	"utdr-guide/internal/domain"
	"utdr-guide/internal/logger"
)

// catalogResponse mirrors the upstream aggregation envelope
type catalogResponse struct {
	Code   int                     `json:"code"`
	Data   *domain.CatalogDocument `json:"data"`
	Source domain.Origin           `json:"_source"`
}

// apiStatus is the body of responses that carry no data
type apiStatus struct {
	Code    int    `json:"code"`
	Message string `json:"msg,omitempty"`
}

type downloadResponse struct {
	Code int `json:"code"`
	Data struct {
		ID        string `json:"id"`
		Downloads int    `json:"downloads"`
	} `json:"data"`
}

// fetchDataError is the error body of the data proxy
type fetchDataError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIHandler serves the JSON endpoints
type APIHandler struct {
	catalogService  domain.CatalogService
	catalogSource   domain.CatalogSource
	resourceService domain.ResourceService
	gate            *auth.AdminGate
	notFound        http.Handler
	logger          *logger.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(
	catalogService domain.CatalogService,
	catalogSource domain.CatalogSource,
	resourceService domain.ResourceService,
	gate *auth.AdminGate,
	notFound http.Handler,
) *APIHandler {
	return &APIHandler{
		catalogService:  catalogService,
		catalogSource:   catalogSource,
		resourceService: resourceService,
		gate:            gate,
		notFound:        notFound,
		logger:          logger.GetGlobalLogger(),
	}
}

// writeJSON encodes v with the given status
func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode response", map[string]interface{}{
			"error": err,
		})
	}
}

// HandleCatalog answers in the upstream envelope shape with the snapshot of
// whichever tier served it. It never fails: an empty catalog is still 200.
// POST /api/catalog
func (h *APIHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	result := h.catalogService.Load(r.Context())
	h.writeJSON(w, http.StatusOK, catalogResponse{
		Code:   http.StatusOK,
		Data:   domain.NewCatalogDocument(result.Catalog),
		Source: result.Origin,
	})
}

// HandleFetchData proxies the upstream data as-is
// GET /api/fetch_data
func (h *APIHandler) HandleFetchData(w http.ResponseWriter, r *http.Request) {
	resp, err := h.catalogSource.FetchCatalog(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch video data", map[string]interface{}{
			"error": err,
		})
		h.writeJSON(w, http.StatusInternalServerError, fetchDataError{
			Error:   "Failed to fetch video data",
			Message: err.Error(),
		})
		return
	}

	data := resp.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HandleClearCache drops the cached catalog. It requires the admin key and
// otherwise pretends not to exist.
// POST /api/cache/clear
func (h *APIHandler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-Access-Key")
	if key == "" {
		key = r.URL.Query().Get(auth.AccessKeyParam)
	}
	if !h.gate.Allow(key) {
		h.notFound.ServeHTTP(w, r)
		return
	}

	if err := h.catalogService.Clear(r.Context()); err != nil {
		h.logger.Error("Failed to clear catalog cache", map[string]interface{}{
			"error": err,
		})
		h.writeJSON(w, http.StatusInternalServerError, apiStatus{
			Code:    http.StatusInternalServerError,
			Message: "failed to clear cache",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, apiStatus{Code: http.StatusOK})
}

// HandleDownload increments a resource download counter
// POST /api/downloads/{id}
func (h *APIHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	resource, err := h.resourceService.RecordDownload(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, apiStatus{
				Code:    http.StatusNotFound,
				Message: "resource not found",
			})
			return
		}
		h.logger.Error("Failed to record download", map[string]interface{}{
			"resource_id": r.PathValue("id"),
			"error":       err,
		})
		h.writeJSON(w, http.StatusInternalServerError, apiStatus{
			Code:    http.StatusInternalServerError,
			Message: "failed to record download",
		})
		return
	}

	var resp downloadResponse
	resp.Code = http.StatusOK
	resp.Data.ID = resource.ID
	resp.Data.Downloads = resource.Downloads
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleHealth reports liveness
// GET /healthz
func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
