package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/everstacklabs/modelrouter/internal/catalog"
	"github.com/everstacklabs/modelrouter/internal/router"
)

const maxBodyBytes = 1 << 20

// RouteRequest is the body of POST /v1/route.
type RouteRequest struct {
	Query           string `json:"query"`
	HasImage        bool   `json:"has_image"`
	EstimatedTokens *int   `json:"estimated_tokens,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	router        *router.Router
	defaultTokens int
}

// NewHandler builds the chi router exposing r over HTTP.
func NewHandler(r *router.Router, config Config) http.Handler {
	h := &handler{router: r, defaultTokens: config.DefaultTokens}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(requestLogger)
	mux.Use(middleware.Recoverer)
	if config.RateLimit > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		mux.Use(rateLimit(rate.NewLimiter(rate.Limit(config.RateLimit), burst)))
	}

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Route("/v1", func(r chi.Router) {
		r.Get("/categories", h.listCategories) // GET /v1/categories
		r.Get("/models", h.listModels)         // GET /v1/models
		r.Post("/route", h.route)              // POST /v1/route
	})

	return mux
}

func (h *handler) listCategories(w http.ResponseWriter, _ *http.Request) {
	type categoryInfo struct {
		Category   router.Category `json:"category"`
		Model      string          `json:"selected_model"`
		Candidates []string        `json:"candidates"`
	}
	cats := router.Categories()
	out := make([]categoryInfo, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryInfo{Category: c, Model: h.router.Select(c), Candidates: h.router.Candidates(c)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *handler) listModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]catalog.Profile{"data": h.router.Profiles()})
}

func (h *handler) route(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	tokens := h.defaultTokens
	if req.EstimatedTokens != nil {
		tokens = *req.EstimatedTokens
	}

	d, err := h.router.Route(req.Query, req.HasImage, tokens)
	if err != nil {
		var pnf *router.ProfileNotFoundError
		if errors.As(err, &pnf) {
			slog.Error("routing table inconsistent", "model", pnf.Model, "category", pnf.Category,
				"request_id", middleware.GetReqID(r.Context()))
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// rateLimit rejects requests once the shared token bucket is empty.
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}
