package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/HerbHall/droidspec/internal/version"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

// deviceMux mounts stand-ins for the catalog routes the middleware sees in
// production.
func deviceMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/devices/{brand}/{device}", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"key": r.PathValue("brand") + "/" + r.PathValue("device")})
	})
	mux.HandleFunc("POST /api/v1/catalog/upload", func(w http.ResponseWriter, r *http.Request) {
		ValidationFailed(w, "catalog rejected: 1 validation errors", r.URL.Path, []string{"[0].brand: required"})
	})
	mux.HandleFunc("GET /api/v1/export", func(w http.ResponseWriter, r *http.Request) {
		InternalError(w, "export failed", r.URL.Path)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"missing", "", false},
		{"propagated", "catalog-fetch.42", true},
		{"control characters", "abc\r\nlevel=error", false},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = RequestID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/api/v1/catalog", http.NoBody)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			if got != seen {
				t.Errorf("header %q != context %q", got, seen)
			}
			if tt.keep {
				if got != tt.incoming {
					t.Errorf("X-Request-ID = %q, want %q", got, tt.incoming)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("X-Request-ID = %q, want a generated UUID", got)
			}
		})
	}
}

func TestAccessLogMiddleware_RouteMetrics(t *testing.T) {
	handler := AccessLogMiddleware(zap.NewNop(), nil)(deviceMux())

	const route = "GET /api/v1/devices/{brand}/{device}"
	ok := httpRequestsTotal.WithLabelValues("GET", route, "200")
	unmatched := httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")
	beforeOK, beforeUnmatched := counterValue(t, ok), counterValue(t, unmatched)

	for _, target := range []string{"/api/v1/devices/google/husky", "/api/v1/devices/samsung/a14", "/api/v1/nope"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", target, http.NoBody))
	}

	if got := counterValue(t, ok) - beforeOK; got != 2 {
		t.Errorf("identity-keyed requests recorded under %d series increments, want 2 on one route", int(got))
	}
	if got := counterValue(t, unmatched) - beforeUnmatched; got != 1 {
		t.Errorf("unmatched increments = %v, want 1", got)
	}
}

func TestAccessLogMiddleware_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := AccessLogMiddleware(zap.New(core), opsPaths)(deviceMux())

	requests := []struct {
		method, target string
		want           zapcore.Level
	}{
		{"GET", "/api/v1/devices/google/husky", zapcore.InfoLevel},
		{"POST", "/api/v1/catalog/upload", zapcore.WarnLevel},
		{"GET", "/api/v1/export", zapcore.ErrorLevel},
		{"GET", "/healthz", zapcore.DebugLevel},
	}
	for _, rq := range requests {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(rq.method, rq.target, http.NoBody))
	}

	entries := logs.All()
	if len(entries) != len(requests) {
		t.Fatalf("log entries = %d, want %d", len(entries), len(requests))
	}
	for i, rq := range requests {
		e := entries[i]
		if e.Level != rq.want {
			t.Errorf("%s %s logged at %v, want %v", rq.method, rq.target, e.Level, rq.want)
		}
		if e.ContextMap()["path"] != rq.target {
			t.Errorf("entry %d path = %v", i, e.ContextMap()["path"])
		}
	}
	if got := entries[0].ContextMap()["route"]; got != "GET /api/v1/devices/{brand}/{device}" {
		t.Errorf("route = %v", got)
	}
	if got, _ := entries[0].ContextMap()["bytes"].(int64); got == 0 {
		t.Error("response bytes not recorded")
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware(deviceMux())

	tests := []struct {
		target string
		csp    string
	}{
		{"/api/v1/devices/google/husky", apiCSP},
		{"/swagger/index.html", ""},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", tt.target, http.NoBody))

		if got := w.Header().Get("Content-Security-Policy"); got != tt.csp {
			t.Errorf("%s: Content-Security-Policy = %q, want %q", tt.target, got, tt.csp)
		}
		for header, want := range map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"Referrer-Policy":              "no-referrer",
			"Cross-Origin-Resource-Policy": "same-origin",
		} {
			if got := w.Header().Get(header); got != want {
				t.Errorf("%s: %s = %q, want %q", tt.target, header, got, want)
			}
		}
	}
}

func TestVersionHeaderMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	VersionHeaderMiddleware(deviceMux()).ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/export", http.NoBody))

	if got := w.Header().Get("X-Droidspec-Version"); got != version.Short() {
		t.Errorf("X-Droidspec-Version = %q, want %q", got, version.Short())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("panic before response", func(t *testing.T) {
		before := counterValue(t, httpPanics)
		handler := RecoveryMiddleware(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("nil catalog")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/stats", http.NoBody))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Errorf("content-type = %q", ct)
		}
		if got := counterValue(t, httpPanics) - before; got != 1 {
			t.Errorf("droidspec_http_panics_total increments = %v, want 1", got)
		}
	})

	t.Run("panic mid export", func(t *testing.T) {
		handler := RecoveryMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("brand,device\n"))
			panic("row encoder")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/export?format=csv", http.NoBody))

		if w.Code != http.StatusOK || w.Body.String() != "brand,device\n" {
			t.Errorf("started response was rewritten: %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("abort handler re-raised", func(t *testing.T) {
		handler := RecoveryMiddleware(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))
		defer func() {
			if rec := recover(); rec != http.ErrAbortHandler {
				t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
			}
		}()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/ws/events", http.NoBody))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimitMiddleware(RateLimit{
		RPS:            1,
		Burst:          1,
		ExemptPrefixes: append(opsPaths, streamPrefix),
	})(deviceMux())

	send := func(target, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", target, http.NoBody)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	before := counterValue(t, httpRateLimited)
	if w := send("/api/v1/devices/google/husky", "10.0.0.1:9999"); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", w.Code)
	}
	w := send("/api/v1/devices/google/husky", "10.0.0.1:9999")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	if got := counterValue(t, httpRateLimited) - before; got != 1 {
		t.Errorf("droidspec_http_rate_limited_total increments = %v, want 1", got)
	}

	if w := send("/api/v1/devices/google/husky", "10.0.0.2:9999"); w.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", w.Code)
	}
	for _, exempt := range []string{"/healthz", "/metrics", "/api/v1/ws/events"} {
		for range 3 {
			if w := send(exempt, "10.0.0.1:9999"); w.Code == http.StatusTooManyRequests {
				t.Errorf("%s was rate limited", exempt)
			}
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.RemoteAddr = "127.0.0.1:12345"
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")

	if ip := clientIP(req, false); ip != "127.0.0.1" {
		t.Errorf("untrusted clientIP = %q, want the peer address", ip)
	}
	if ip := clientIP(req, true); ip != "203.0.113.50" {
		t.Errorf("trusted clientIP = %q, want the first forwarded address", ip)
	}
}

func TestClientLimiter_SweepsIdleClients(t *testing.T) {
	l := newClientLimiter(rate.Limit(1), 1)
	start := time.Now()

	if _, ok := l.allow("10.0.0.1", start); !ok {
		t.Fatal("first request denied")
	}
	if wait, ok := l.allow("10.0.0.1", start); ok || wait <= 0 {
		t.Fatalf("second request: ok=%v wait=%v, want denied with a wait", ok, wait)
	}

	later := start.Add(limiterIdleTTL + limiterSweepMin)
	if _, ok := l.allow("10.0.0.2", later); !ok {
		t.Fatal("new client denied")
	}
	if _, idle := l.buckets["10.0.0.1"]; idle {
		t.Error("idle client bucket was not swept")
	}
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(deviceMux(), mark("recovery"), mark("request-id")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", http.NoBody))

	if strings.Join(order, ",") != "recovery,request-id" {
		t.Errorf("order = %v, want outermost first", order)
	}
}

func TestStatusWriter(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	sw.WriteHeader(http.StatusCreated)
	sw.WriteHeader(http.StatusNotFound)
	_, _ = sw.Write([]byte("brand,device\n"))

	if sw.status != http.StatusCreated {
		t.Errorf("status = %d, want first WriteHeader to win", sw.status)
	}
	if sw.bytes != int64(len("brand,device\n")) {
		t.Errorf("bytes = %d", sw.bytes)
	}
}
