package state

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/internal/server"
	"github.com/HerbHall/droidspec/pkg/models"
)

// DeviceResolver resolves identity keys against the current catalog.
type DeviceResolver interface {
	LookupKeys(keys []string) []models.AndroidDevice
}

// Handler serves the state and comparison endpoints.
type Handler struct {
	store   *Store
	devices DeviceResolver
	logger  *zap.Logger
}

// NewHandler creates a state Handler.
func NewHandler(store *Store, devices DeviceResolver, logger *zap.Logger) *Handler {
	return &Handler{store: store, devices: devices, logger: logger}
}

// RegisterRoutes registers state routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/state", h.handleList)
	mux.HandleFunc("GET /api/v1/state/{key}", h.handleGet)
	mux.HandleFunc("PUT /api/v1/state/{key}", h.handlePut)
	mux.HandleFunc("DELETE /api/v1/state/{key}", h.handleDelete)

	mux.HandleFunc("GET /api/v1/comparison", h.handleGetComparison)
	mux.HandleFunc("DELETE /api/v1/comparison", h.handleClearComparison)
	mux.HandleFunc("POST /api/v1/comparison/{brand}/{device}", h.handleAddComparison)
	mux.HandleFunc("DELETE /api/v1/comparison/{brand}/{device}", h.handleRemoveComparison)
}

// ComparisonResponse lists the comparison set with resolved devices. Keys no
// longer present in the catalog are listed but not resolved.
type ComparisonResponse struct {
	Keys    []string               `json:"keys" example:"google/husky"`
	Devices []models.AndroidDevice `json:"devices"`
	Max     int                    `json:"max" example:"4"`
}

// handleList returns every stored slot.
//
//	@Summary		List state
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	map[string]Entry
//	@Failure		500	{object}	server.Problem
//	@Router			/state [get]
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list state", zap.Error(err))
		server.InternalError(w, "failed to list state", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, entries)
}

// handleGet returns one slot.
//
//	@Summary		Get state slot
//	@Tags			state
//	@Produce		json
//	@Param			key	path		string	true	"filters, pagination, comparison, preferences or upload"
//	@Success		200	{object}	Entry
//	@Failure		400	{object}	server.Problem
//	@Failure		404	{object}	server.Problem
//	@Router			/state/{key} [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	e, ok, err := h.store.Get(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		server.NotFound(w, "state "+key+" is not set", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, e)
}

// handlePut replaces one slot.
//
//	@Summary		Set state slot
//	@Description	Stores a JSON value. The value must match the slot's shape; the comparison set holds at most 4 keys.
//	@Tags			state
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string	true	"filters, pagination, comparison or preferences"
//	@Param			value	body		object	true	"Slot value"
//	@Success		200		{object}	Entry
//	@Failure		400		{object}	server.Problem
//	@Router			/state/{key} [put]
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == KeyUpload {
		server.BadRequest(w, "the upload slot is managed by catalog uploads", r.URL.Path)
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		server.BadRequest(w, "reading body: "+err.Error(), r.URL.Path)
		return
	}
	if err := h.store.Set(r.Context(), key, raw); err != nil {
		h.writeError(w, r, err)
		return
	}
	e, _, err := h.store.Get(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, e)
}

// handleDelete clears one slot.
//
//	@Summary		Clear state slot
//	@Tags			state
//	@Param			key	path	string	true	"Slot key"
//	@Success		204
//	@Failure		400	{object}	server.Problem
//	@Router			/state/{key} [delete]
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("key")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetComparison returns the comparison set.
//
//	@Summary		Get comparison set
//	@Tags			comparison
//	@Produce		json
//	@Success		200	{object}	ComparisonResponse
//	@Router			/comparison [get]
func (h *Handler) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.Comparison(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeComparison(w, keys)
}

// handleClearComparison empties the comparison set.
//
//	@Summary		Clear comparison set
//	@Tags			comparison
//	@Produce		json
//	@Success		200	{object}	ComparisonResponse
//	@Router			/comparison [delete]
func (h *Handler) handleClearComparison(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SaveComparison(r.Context(), nil); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeComparison(w, []string{})
}

// handleAddComparison adds a device to the comparison set.
//
//	@Summary		Add to comparison
//	@Tags			comparison
//	@Produce		json
//	@Param			brand	path		string	true	"Brand"
//	@Param			device	path		string	true	"Device codename"
//	@Success		200		{object}	ComparisonResponse
//	@Failure		404		{object}	server.Problem
//	@Failure		409		{object}	server.Problem
//	@Router			/comparison/{brand}/{device} [post]
func (h *Handler) handleAddComparison(w http.ResponseWriter, r *http.Request) {
	key := models.IdentityKey(r.PathValue("brand"), r.PathValue("device"))
	if h.devices != nil && len(h.devices.LookupKeys([]string{key})) == 0 {
		server.NotFound(w, "device "+key+" is not in the catalog", r.URL.Path)
		return
	}
	keys, err := h.store.AddComparison(r.Context(), key)
	if errors.Is(err, ErrComparisonFull) {
		server.Conflict(w, err.Error(), r.URL.Path)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeComparison(w, keys)
}

// handleRemoveComparison removes a device from the comparison set.
//
//	@Summary		Remove from comparison
//	@Tags			comparison
//	@Produce		json
//	@Param			brand	path		string	true	"Brand"
//	@Param			device	path		string	true	"Device codename"
//	@Success		200		{object}	ComparisonResponse
//	@Router			/comparison/{brand}/{device} [delete]
func (h *Handler) handleRemoveComparison(w http.ResponseWriter, r *http.Request) {
	key := models.IdentityKey(r.PathValue("brand"), r.PathValue("device"))
	keys, err := h.store.RemoveComparison(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeComparison(w, keys)
}

func (h *Handler) writeComparison(w http.ResponseWriter, keys []string) {
	resp := ComparisonResponse{Keys: keys, Devices: []models.AndroidDevice{}, Max: MaxComparison}
	if h.devices != nil {
		resp.Devices = h.devices.LookupKeys(keys)
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if IsInvalid(err) {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	h.logger.Error("state operation failed", zap.Error(err))
	server.InternalError(w, "state operation failed", r.URL.Path)
}
