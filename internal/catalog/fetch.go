package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/pkg/models"
)

// Fetch defaults.
const (
	DefaultFetchRetries = 3
	DefaultFetchBackoff = 500 * time.Millisecond
	DefaultFetchTimeout = 30 * time.Second
	MaxCatalogBytes     = 32 << 20
)

// Fetcher downloads remote catalogs.
type Fetcher struct {
	client  *http.Client
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

// NewFetcher creates a fetcher. Zero values select the defaults.
func NewFetcher(timeout time.Duration, retries int, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if retries <= 0 {
		retries = DefaultFetchRetries
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		backoff: DefaultFetchBackoff,
		logger:  logger,
	}
}

// ErrInvalidURL is returned for catalog URLs that are not absolute http(s).
var ErrInvalidURL = errors.New("invalid catalog url")

// FetchError reports a download that failed on every attempt.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetch downloads and validates the catalog at rawURL, retrying transport
// and HTTP failures with exponential backoff. A document that downloads but
// fails validation is returned as a *ValidationError without retrying.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]models.AndroidDevice, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w %q: must be an absolute http(s) URL", ErrInvalidURL, rawURL)
	}

	wait := f.backoff
	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		data, enc, err := f.get(ctx, u.String())
		if err == nil {
			return Parse(data, enc)
		}
		lastErr = err
		f.logger.Warn("catalog fetch attempt failed",
			zap.String("url", u.Redacted()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == f.retries {
			break
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, &FetchError{URL: u.Redacted(), Attempts: attempt, Err: ctx.Err()}
		case <-t.C:
		}
		wait *= 2
	}
	return nil, &FetchError{URL: u.Redacted(), Attempts: f.retries, Err: lastErr}
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, Encoding, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, EncodingJSON, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, EncodingJSON, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, EncodingJSON, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxCatalogBytes+1))
	if err != nil {
		return nil, EncodingJSON, fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxCatalogBytes {
		return nil, EncodingJSON, errors.New("catalog exceeds size limit")
	}

	enc := EncodingForContentType(resp.Header.Get("Content-Type"))
	if enc == EncodingJSON {
		enc = EncodingForPath(req.URL.Path)
	}
	return data, enc, nil
}

// FetchInto downloads rawURL and commits it as the current catalog. When
// every attempt fails, the default-tier catalog from fallback is committed
// instead (the bundled sample if fallback cannot load) and the returned Info
// has Fallback set alongside the *FetchError. Validation failures leave the
// catalog untouched.
func FetchInto(ctx context.Context, svc *Service, f *Fetcher, fallback Loader, rawURL string) (Info, error) {
	ticket := svc.BeginLoad()
	devices, err := f.Fetch(ctx, rawURL)
	if err == nil {
		return svc.Commit(ctx, ticket, Load{Devices: devices, Source: SourceURL, Origin: rawURL})
	}

	catalogLoads.WithLabelValues(string(SourceURL), "error").Inc()
	var fe *FetchError
	if !errors.As(err, &fe) || ctx.Err() != nil {
		return Info{}, err
	}
	load, lerr := fallback.Load()
	if lerr != nil {
		f.logger.Warn("fallback catalog unavailable, using bundled sample", zap.Error(lerr))
		load = Load{Devices: Sample(), Source: SourceDefault}
	}
	load.Origin = rawURL
	load.Fallback = true
	info, cerr := svc.Force(ctx, ticket, load)
	if cerr != nil {
		return Info{}, errors.Join(err, cerr)
	}
	return info, err
}

// Reset restores the default-tier catalog, discarding user-supplied data.
// It is user-initiated and supersedes any pending upload or fetch.
func Reset(ctx context.Context, svc *Service, l Loader) (Info, error) {
	ticket := svc.BeginLoad()
	load, err := l.Load()
	if err != nil {
		catalogLoads.WithLabelValues(string(SourceFile), "error").Inc()
		return Info{}, err
	}
	return svc.Force(ctx, ticket, load)
}

// Reload re-reads the default-tier catalog without overriding user data or
// superseding a pending user load.
func Reload(ctx context.Context, svc *Service, l Loader) (Info, error) {
	load, err := l.Load()
	if err != nil {
		catalogLoads.WithLabelValues(string(SourceFile), "error").Inc()
		return Info{}, err
	}
	return svc.Replace(ctx, load)
}
