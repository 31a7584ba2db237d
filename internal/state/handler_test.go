package state

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/internal/catalog"
	"github.com/HerbHall/droidspec/internal/testutil"
	"github.com/HerbHall/droidspec/pkg/models"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	s, bus := newTestStore(t)
	s.Follow(bus, 24)
	svc := catalog.NewService(bus, zap.NewNop())
	devices := make([]models.AndroidDevice, 0, 5)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		devices = append(devices, testutil.NewDevice(testutil.WithIdentity("brand", id)))
	}
	if _, err := svc.Replace(context.Background(), catalog.Load{Devices: devices, Source: catalog.SourceUpload}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	mux := http.NewServeMux()
	NewHandler(s, svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_StateRoundTrip(t *testing.T) {
	mux := newTestMux(t)

	rec := serve(mux, http.MethodGet, "/api/v1/state/preferences", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET unset: status = %d, want 404", rec.Code)
	}

	rec = serve(mux, http.MethodPut, "/api/v1/state/preferences", `{"viewMode":"list","theme":"dark"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(mux, http.MethodGet, "/api/v1/state/preferences", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: status = %d", rec.Code)
	}
	var e Entry
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var p Preferences
	if err := json.Unmarshal(e.Value, &p); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if p.ViewMode != ViewList || p.Theme != ThemeDark {
		t.Errorf("preferences = %+v", p)
	}

	rec = serve(mux, http.MethodGet, "/api/v1/state", "")
	var all map[string]Entry
	if err := json.NewDecoder(rec.Body).Decode(&all); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	// The catalog replace in setup wrote filters, pagination and upload.
	for _, k := range []string{KeyPreferences, KeyFilters, KeyPagination, KeyUpload} {
		if _, ok := all[k]; !ok {
			t.Errorf("list missing %q", k)
		}
	}

	rec = serve(mux, http.MethodDelete, "/api/v1/state/preferences", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE: status = %d, want 204", rec.Code)
	}
}

func TestHandler_StateErrors(t *testing.T) {
	mux := newTestMux(t)

	tests := []struct {
		name, method, target, body string
	}{
		{"unknown key", http.MethodGet, "/api/v1/state/bogus", ""},
		{"bad value", http.MethodPut, "/api/v1/state/preferences", `{"viewMode":"cards"}`},
		{"malformed", http.MethodPut, "/api/v1/state/filters", `{`},
		{"upload is read-only", http.MethodPut, "/api/v1/state/upload", `{}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(mux, tc.method, tc.target, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandler_Comparison(t *testing.T) {
	mux := newTestMux(t)

	for _, id := range []string{"a", "b", "c", "d"} {
		rec := serve(mux, http.MethodPost, "/api/v1/comparison/brand/"+id, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("add %s: status = %d", id, rec.Code)
		}
	}

	rec := serve(mux, http.MethodPost, "/api/v1/comparison/brand/e", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("fifth add: status = %d, want 409", rec.Code)
	}
	rec = serve(mux, http.MethodPost, "/api/v1/comparison/brand/zzz", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown device: status = %d, want 404", rec.Code)
	}

	rec = serve(mux, http.MethodDelete, "/api/v1/comparison/brand/b", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: status = %d", rec.Code)
	}

	rec = serve(mux, http.MethodGet, "/api/v1/comparison", "")
	var resp ComparisonResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Keys) != 3 || len(resp.Devices) != 3 || resp.Max != MaxComparison {
		t.Errorf("comparison = %+v", resp)
	}
	if resp.Keys[0] != "brand/a" || resp.Devices[2].Device != "d" {
		t.Errorf("order not preserved: %v", resp.Keys)
	}

	rec = serve(mux, http.MethodDelete, "/api/v1/comparison", "")
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Keys) != 0 {
		t.Errorf("keys after clear = %v", resp.Keys)
	}
}
