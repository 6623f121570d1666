package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/everstacklabs/modelrouter/internal/catalog"
	"github.com/everstacklabs/modelrouter/internal/router"
)

func newTestHandler(t *testing.T, cat *catalog.Catalog, cfg Config) http.Handler {
	t.Helper()
	r, err := router.New(cat)
	if err != nil {
		t.Fatal(err)
	}
	return NewHandler(r, cfg)
}

func postRoute(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, catalog.Builtin(), DefaultConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouteEndpoint(t *testing.T) {
	h := newTestHandler(t, catalog.Builtin(), DefaultConfig())

	rec := postRoute(t, h, `{"query":"Write a short story about dragons","estimated_tokens":3000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var d router.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if d.Category != router.CategoryCreativeWriting || d.SelectedModel != "gemini-1.5-pro" {
		t.Errorf("unexpected decision: %+v", d)
	}
	if d.EstimatedCostUSD != 0.024 {
		t.Errorf("cost = %v, want 0.024", d.EstimatedCostUSD)
	}
	if d.MaxTokens != 100000 || len(d.Modalities) != 3 || len(d.Strengths) != 3 {
		t.Errorf("profile fields missing: %+v", d)
	}
}

func TestRouteEndpointDefaultTokens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultTokens = 500
	h := newTestHandler(t, catalog.Builtin(), cfg)

	rec := postRoute(t, h, `{"query":"note"}`)
	var d router.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.Category != router.CategoryFastLowCost {
		t.Errorf("category = %s, want fast_low_cost with 500 default tokens", d.Category)
	}
}

func TestRouteEndpointBadRequest(t *testing.T) {
	h := newTestHandler(t, catalog.Builtin(), DefaultConfig())

	for _, body := range []string{`{"query":`, `{"query":"x","surprise":1}`, `{"estimated_tokens":"many"}`} {
		rec := postRoute(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestRouteEndpointProfileNotFound(t *testing.T) {
	cat := catalog.Builtin()
	cat.Priorities["image_analysis"] = []string{"ghost"}
	h := newTestHandler(t, cat, DefaultConfig())

	rec := postRoute(t, h, `{"query":"what is this","has_image":true}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ghost") {
		t.Errorf("error should name the missing model: %s", rec.Body.String())
	}
}

func TestListEndpoints(t *testing.T) {
	h := newTestHandler(t, catalog.Builtin(), DefaultConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	var models struct {
		Data []catalog.Profile `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &models); err != nil {
		t.Fatal(err)
	}
	if len(models.Data) != 4 || models.Data[0].Name != "claude-3-opus" {
		t.Errorf("unexpected models: %+v", models.Data)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/categories", nil))
	var cats struct {
		Data []struct {
			Category   string   `json:"category"`
			Model      string   `json:"selected_model"`
			Candidates []string `json:"candidates"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cats); err != nil {
		t.Fatal(err)
	}
	if len(cats.Data) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(cats.Data))
	}
	if cats.Data[0].Category != "image_analysis" || cats.Data[0].Model != "gpt-4-turbo" || len(cats.Data[0].Candidates) != 3 {
		t.Errorf("unexpected first category: %+v", cats.Data[0])
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 0.001
	cfg.Burst = 2
	h := newTestHandler(t, catalog.Builtin(), cfg)

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests should pass: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", codes[2])
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	r, err := router.New(catalog.Builtin())
	if err != nil {
		t.Fatal(err)
	}
	s := New(r, DefaultConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/v1/route"
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(`{"query":"quick"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
