package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// okHandler answers 200 "ok".
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok")) //nolint:errcheck
})

func callWithKey(t *testing.T, mw func(http.Handler) http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rr := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rr, req)
	return rr
}

func TestAPIKey_ModeNone_PassesThrough(t *testing.T) {
	// No key on the request; passes because mode != "apikey".
	rr := callWithKey(t, APIKey("none", "x-api-key", "secret"), "x-api-key", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_EmptyKey_PassesThrough(t *testing.T) {
	// key="" means auth is not configured → allow all.
	rr := callWithKey(t, APIKey("apikey", "x-api-key", ""), "x-api-key", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_ValidKey(t *testing.T) {
	rr := callWithKey(t, APIKey("apikey", "x-api-key", "secret"), "x-api-key", "secret")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("body: got %q, want ok", rr.Body.String())
	}
}

func TestAPIKey_HeaderNameIsCaseInsensitive(t *testing.T) {
	rr := callWithKey(t, APIKey("apikey", "X-Hole-Key", "secret"), "x-hole-key", "secret")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_Rejected(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"missing", ""},
		{"wrong", "nope"},
		{"prefix", "secre"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := callWithKey(t, APIKey("apikey", "x-api-key", "secret"), "x-api-key", tc.key)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q", ct)
			}
		})
	}
}
