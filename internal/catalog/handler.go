package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/internal/export"
	"github.com/HerbHall/droidspec/internal/filter"
	"github.com/HerbHall/droidspec/internal/paginate"
	"github.com/HerbHall/droidspec/internal/schema"
	"github.com/HerbHall/droidspec/internal/server"
	"github.com/HerbHall/droidspec/internal/stats"
	"github.com/HerbHall/droidspec/pkg/models"
)

// StateSource supplies the persisted selection used when a request omits
// filter or pagination parameters.
type StateSource interface {
	Filters(ctx context.Context) (filter.State, bool, error)
	Pagination(ctx context.Context) (paginate.State, bool, error)
}

// HandlerOptions carries configured defaults.
type HandlerOptions struct {
	ItemsPerPage int
	PrettyExport bool
	DefaultURL   string
}

// Handler serves the catalog query, load and export endpoints.
type Handler struct {
	svc     *Service
	loader  Loader
	fetcher *Fetcher
	state   StateSource
	opts    HandlerOptions
	logger  *zap.Logger
}

// NewHandler creates a catalog handler. state may be nil.
func NewHandler(svc *Service, loader Loader, fetcher *Fetcher, state StateSource, opts HandlerOptions, logger *zap.Logger) *Handler {
	if opts.ItemsPerPage <= 0 {
		opts.ItemsPerPage = paginate.DefaultItemsPerPage
	}
	return &Handler{
		svc:     svc,
		loader:  loader,
		fetcher: fetcher,
		state:   state,
		opts:    opts,
		logger:  logger,
	}
}

// RegisterRoutes registers catalog routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/devices", h.handleListDevices)
	mux.HandleFunc("GET /api/v1/devices/{brand}/{device}", h.handleGetDevice)
	mux.HandleFunc("GET /api/v1/stats", h.handleStats)
	mux.HandleFunc("GET /api/v1/manufacturers", h.handleManufacturers)
	mux.HandleFunc("GET /api/v1/form-factors", h.handleFormFactors)
	mux.HandleFunc("GET /api/v1/catalog", h.handleInfo)
	mux.HandleFunc("POST /api/v1/catalog/upload", h.handleUpload)
	mux.HandleFunc("POST /api/v1/catalog/fetch", h.handleFetch)
	mux.HandleFunc("POST /api/v1/catalog/reset", h.handleReset)
	mux.HandleFunc("GET /api/v1/export", h.handleExport)
	mux.HandleFunc("GET /api/v1/export/estimate", h.handleEstimate)
}

// DevicesResponse is one page of the filtered, sorted catalog.
type DevicesResponse struct {
	Devices    []models.AndroidDevice `json:"devices"`
	Pagination paginate.Info          `json:"pagination"`
	Total      int                    `json:"total" example:"18"`
	Filtered   int                    `json:"filtered" example:"7"`
	Filters    filter.State           `json:"filters"`
}

// StatsResponse wraps the statistics summary with its scope.
type StatsResponse struct {
	Scope   string            `json:"scope" example:"filtered"`
	Devices int               `json:"devices" example:"7"`
	Stats   stats.DeviceStats `json:"stats"`
	TopRAM  []stats.Count     `json:"topRamBuckets"`
	SDKs    []stats.Count     `json:"sdkDistribution"`
}

// FetchRequest is the body of POST /catalog/fetch.
type FetchRequest struct {
	URL string `json:"url" example:"https://example.com/devices.json"`
}

// LoadResponse reports the dataset installed by an upload, fetch or reset.
type LoadResponse struct {
	Catalog Info   `json:"catalog"`
	Warning string `json:"warning,omitempty" example:"fetch failed; default catalog loaded: unexpected status 404 Not Found"`
}

// handleListDevices returns one page of the filtered catalog.
//
//	@Summary		List devices
//	@Description	Filters, sorts and paginates the catalog. Omitted parameters fall back to the persisted selection.
//	@Tags			devices
//	@Produce		json
//	@Param			search			query		string	false	"Case-insensitive substring over model, manufacturer, codename, chipset"
//	@Param			formFactor		query		string	false	"Form factor or 'all'"
//	@Param			manufacturer	query		string	false	"Manufacturer or 'all'"
//	@Param			manufacturers	query		[]string	false	"Manufacturer set (repeatable or comma list)"
//	@Param			minRam			query		string	false	"Minimum RAM in MB or 'all'"
//	@Param			sdkVersion		query		string	false	"Required API level or 'all'"
//	@Param			ramMin			query		int		false	"RAM range lower bound (MB)"
//	@Param			ramMax			query		int		false	"RAM range upper bound (MB)"
//	@Param			sdkMin			query		int		false	"API level range lower bound"
//	@Param			sdkMax			query		int		false	"API level range upper bound"
//	@Param			sort			query		string	false	"name, manufacturer, ram or sdk"
//	@Param			order			query		string	false	"asc or desc"
//	@Param			page			query		int		false	"1-based page"
//	@Param			perPage			query		int		false	"Items per page"
//	@Success		200				{object}	DevicesResponse
//	@Failure		400				{object}	server.Problem
//	@Router			/devices [get]
func (h *Handler) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := h.svc.Devices()
	fs, err := h.resolveFilters(r, devices)
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	ps, err := h.resolvePagination(r)
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	filtered := filter.Sort(filter.Apply(devices, fs), fs.SortBy, fs.SortOrder)
	ps = ps.WithTotal(len(filtered))
	page := paginate.Paginate(filtered, ps.CurrentPage, ps.ItemsPerPage)

	server.WriteJSON(w, http.StatusOK, DevicesResponse{
		Devices:    page.Items,
		Pagination: page.Pagination,
		Total:      len(devices),
		Filtered:   len(filtered),
		Filters:    fs,
	})
}

// handleGetDevice returns a device by identity key.
//
//	@Summary		Get device
//	@Tags			devices
//	@Produce		json
//	@Param			brand	path		string	true	"Brand"
//	@Param			device	path		string	true	"Device codename"
//	@Success		200		{object}	models.AndroidDevice
//	@Failure		404		{object}	server.Problem
//	@Router			/devices/{brand}/{device} [get]
func (h *Handler) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Lookup(r.PathValue("brand"), r.PathValue("device"))
	if err != nil {
		server.NotFound(w, err.Error(), r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, d)
}

// handleStats returns aggregate statistics.
//
//	@Summary		Catalog statistics
//	@Description	Statistics over the filtered collection, or the full catalog with scope=all.
//	@Tags			devices
//	@Produce		json
//	@Param			scope	query		string	false	"filtered (default) or all"
//	@Success		200		{object}	StatsResponse
//	@Failure		400		{object}	server.Problem
//	@Router			/stats [get]
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	devices := h.svc.Devices()
	scope := r.URL.Query().Get("scope")
	switch scope {
	case "all":
	case "", "filtered":
		scope = "filtered"
		fs, err := h.resolveFilters(r, devices)
		if err != nil {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		devices = filter.Apply(devices, fs)
	default:
		server.BadRequest(w, fmt.Sprintf("invalid scope %q: must be filtered or all", scope), r.URL.Path)
		return
	}

	s := stats.Calculate(devices)
	server.WriteJSON(w, http.StatusOK, StatsResponse{
		Scope:   scope,
		Devices: len(devices),
		Stats:   s,
		TopRAM:  stats.TopN(s.ByRAMBucket, len(stats.RAMBuckets())),
		SDKs:    stats.SDKDistribution(s.BySDKVersion),
	})
}

// handleManufacturers lists distinct manufacturers.
//
//	@Summary		List manufacturers
//	@Tags			devices
//	@Produce		json
//	@Success		200	{array}	string
//	@Router			/manufacturers [get]
func (h *Handler) handleManufacturers(w http.ResponseWriter, _ *http.Request) {
	server.WriteJSON(w, http.StatusOK, Manufacturers(h.svc.Devices()))
}

// handleFormFactors lists the form factors present in the catalog.
//
//	@Summary		List form factors
//	@Tags			devices
//	@Produce		json
//	@Success		200	{array}	FormFactorCount
//	@Router			/form-factors [get]
func (h *Handler) handleFormFactors(w http.ResponseWriter, _ *http.Request) {
	server.WriteJSON(w, http.StatusOK, FormFactorOptions(h.svc.Devices()))
}

// handleInfo returns the current dataset metadata.
//
//	@Summary		Catalog info
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	Info
//	@Router			/catalog [get]
func (h *Handler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	server.WriteJSON(w, http.StatusOK, h.svc.Info())
}

// handleUpload replaces the catalog with an uploaded document.
//
//	@Summary		Upload catalog
//	@Description	Validates and installs a JSON (or YAML) device array. Any violation rejects the whole upload.
//	@Tags			catalog
//	@Accept			json
//	@Accept			application/yaml
//	@Produce		json
//	@Param			filename	query		string					false	"Original file name"
//	@Param			catalog		body		[]models.AndroidDevice	true	"Device array"
//	@Success		200			{object}	LoadResponse
//	@Failure		400			{object}	server.Problem
//	@Failure		422			{object}	server.Problem
//	@Router			/catalog/upload [post]
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxCatalogBytes))
	if err != nil {
		server.BadRequest(w, "reading upload: "+err.Error(), r.URL.Path)
		return
	}
	devices, err := Parse(data, EncodingForContentType(r.Header.Get("Content-Type")))
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}
	origin := r.URL.Query().Get("filename")
	info, err := h.svc.Replace(r.Context(), Load{Devices: devices, Source: SourceUpload, Origin: origin})
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, LoadResponse{Catalog: info})
}

// handleFetch downloads a remote catalog.
//
//	@Summary		Fetch remote catalog
//	@Description	Downloads a catalog with retries. When every attempt fails the default catalog is loaded and a warning returned.
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			request	body		FetchRequest	false	"Catalog URL; defaults to catalog.url"
//	@Success		200		{object}	LoadResponse
//	@Failure		400		{object}	server.Problem
//	@Failure		409		{object}	server.Problem
//	@Failure		422		{object}	server.Problem
//	@Failure		502		{object}	server.Problem
//	@Router			/catalog/fetch [post]
func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			server.BadRequest(w, "invalid request body: "+err.Error(), r.URL.Path)
			return
		}
	}
	if req.URL == "" {
		req.URL = h.opts.DefaultURL
	}
	if req.URL == "" {
		server.BadRequest(w, "url is required", r.URL.Path)
		return
	}

	info, err := FetchInto(r.Context(), h.svc, h.fetcher, h.loader, req.URL)
	var fe *FetchError
	if errors.As(err, &fe) && info.Fallback {
		h.logger.Warn("catalog fetch failed, using default catalog", zap.Error(err))
		server.WriteJSON(w, http.StatusOK, LoadResponse{
			Catalog: info,
			Warning: fmt.Sprintf("fetch failed; %s catalog loaded: %v", info.Source, fe.Err),
		})
		return
	}
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, LoadResponse{Catalog: info})
}

// handleReset restores the default catalog.
//
//	@Summary		Reset catalog
//	@Description	Discards uploaded or fetched data and restores the default catalog.
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	LoadResponse
//	@Failure		500	{object}	server.Problem
//	@Router			/catalog/reset [post]
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	info, err := Reset(r.Context(), h.svc, h.loader)
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, LoadResponse{Catalog: info})
}

// handleExport streams the filtered catalog as a file download.
//
//	@Summary		Export devices
//	@Description	Serializes the filtered, sorted catalog as csv, json, xml or yaml.
//	@Tags			export
//	@Produce		octet-stream
//	@Param			format		query		string	true	"csv, json, xml or yaml"
//	@Param			pretty		query		bool	false	"Indent JSON"
//	@Param			filename	query		string	false	"Download file name"
//	@Success		200			{file}		file
//	@Failure		400			{object}	server.Problem
//	@Router			/export [get]
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	pretty, err := queryBool(r, "pretty", h.opts.PrettyExport)
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	devices := h.svc.Devices()
	fs, err := h.resolveFilters(r, devices)
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	res, err := export.Export(filter.Sort(filter.Apply(devices, fs), fs.SortBy, fs.SortOrder), export.Options{
		Format:   f,
		Pretty:   pretty,
		Filename: q.Get("filename"),
	})
	if err != nil {
		server.InternalError(w, err.Error(), r.URL.Path)
		return
	}
	exportsTotal.WithLabelValues(string(f)).Inc()

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// handleEstimate previews the export size.
//
//	@Summary		Estimate export size
//	@Tags			export
//	@Produce		json
//	@Param			format	query		string	true	"csv, json, xml or yaml"
//	@Param			pretty	query		bool	false	"Indent JSON"
//	@Success		200		{object}	export.SizeEstimate
//	@Failure		400		{object}	server.Problem
//	@Router			/export/estimate [get]
func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	pretty, err := queryBool(r, "pretty", h.opts.PrettyExport)
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	devices := h.svc.Devices()
	fs, err := h.resolveFilters(r, devices)
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	est, err := export.EstimateSize(len(filter.Apply(devices, fs)), f, pretty)
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, est)
}

func (h *Handler) writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		server.ValidationFailed(w, fmt.Sprintf("catalog rejected: %d validation errors", len(verr.Errors)),
			r.URL.Path, schema.Truncate(verr.Errors, schema.MaxReportedErrors))
	case errors.Is(err, ErrStaleLoad):
		server.Conflict(w, err.Error(), r.URL.Path)
	case errors.Is(err, ErrInvalidURL):
		server.BadRequest(w, err.Error(), r.URL.Path)
	case errors.As(err, new(*FetchError)):
		server.BadGateway(w, err.Error(), r.URL.Path)
	default:
		h.logger.Error("catalog load failed", zap.Error(err))
		server.InternalError(w, err.Error(), r.URL.Path)
	}
}

// resolveFilters starts from the persisted selection (or the neutral one)
// and overrides every field present in the query.
func (h *Handler) resolveFilters(r *http.Request, devices []models.AndroidDevice) (filter.State, error) {
	s := filter.DefaultState(devices)
	if h.state != nil {
		saved, ok, err := h.state.Filters(r.Context())
		if err != nil {
			return s, fmt.Errorf("loading saved filters: %w", err)
		}
		if ok {
			s = saved
		}
	}

	q := r.URL.Query()
	setString := func(key string, dst *string) {
		if q.Has(key) {
			*dst = q.Get(key)
		}
	}
	setString("search", &s.Search)
	setString("formFactor", &s.FormFactor)
	setString("manufacturer", &s.Manufacturer)
	setString("minRam", &s.MinRAM)
	setString("sdkVersion", &s.SDKVersion)
	setString("sort", &s.SortBy)
	setString("order", &s.SortOrder)

	if q.Has("manufacturers") {
		s.Manufacturers = []string{}
		for _, v := range q["manufacturers"] {
			for _, m := range strings.Split(v, ",") {
				if m = strings.TrimSpace(m); m != "" {
					s.Manufacturers = append(s.Manufacturers, m)
				}
			}
		}
	}

	var err error
	if s.RAMRange, err = rangeParam(q, "ramMin", "ramMax", s.RAMRange); err != nil {
		return s, err
	}
	if s.SDKVersionRange, err = rangeParam(q, "sdkMin", "sdkMax", s.SDKVersionRange); err != nil {
		return s, err
	}

	switch s.SortBy {
	case "", filter.SortByName, filter.SortByManufacturer, filter.SortByRAM, filter.SortBySDK:
	default:
		return s, fmt.Errorf("invalid sort %q: must be name, manufacturer, ram or sdk", s.SortBy)
	}
	switch s.SortOrder {
	case "", filter.OrderAsc, filter.OrderDesc:
	default:
		return s, fmt.Errorf("invalid order %q: must be asc or desc", s.SortOrder)
	}
	return s, nil
}

func (h *Handler) resolvePagination(r *http.Request) (paginate.State, error) {
	ps := paginate.State{CurrentPage: 1, ItemsPerPage: h.opts.ItemsPerPage}
	if h.state != nil {
		saved, ok, err := h.state.Pagination(r.Context())
		if err != nil {
			return ps, fmt.Errorf("loading saved pagination: %w", err)
		}
		if ok {
			ps = saved
		}
	}
	var err error
	if ps.CurrentPage, err = queryInt(r, "page", ps.CurrentPage); err != nil {
		return ps, err
	}
	if ps.ItemsPerPage, err = queryInt(r, "perPage", ps.ItemsPerPage); err != nil {
		return ps, err
	}
	return ps, nil
}

// rangeParam overrides one side or both of base from the query. A missing
// side keeps base's bound, or is unbounded when there is no base.
func rangeParam(q map[string][]string, loKey, hiKey string, base *[2]int) (*[2]int, error) {
	loRaw, hasLo := first(q, loKey)
	hiRaw, hasHi := first(q, hiKey)
	if !hasLo && !hasHi {
		return base, nil
	}
	out := [2]int{0, int(^uint(0) >> 1)}
	if base != nil {
		out = *base
	}
	if hasLo {
		v, err := strconv.Atoi(loRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: must be an integer", loKey, loRaw)
		}
		out[0] = v
	}
	if hasHi {
		v, err := strconv.Atoi(hiRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: must be an integer", hiKey, hiRaw)
		}
		out[1] = v
	}
	return &out, nil
}

func first(q map[string][]string, key string) (string, bool) {
	v, ok := q[key]
	if !ok || len(v) == 0 || v[0] == "" {
		return "", false
	}
	return v[0], true
}

func queryInt(r *http.Request, key string, defaultVal int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s %q: must be an integer", key, s)
	}
	return v, nil
}

func queryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s %q: must be a boolean", key, s)
	}
	return v, nil
}
