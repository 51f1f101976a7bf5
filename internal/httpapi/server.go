package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inferd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	Ready() bool
	Load(ctx context.Context, modelID string) error
	LoadAsync(modelID string) (string, error)
	Unload(modelID string) error
	Generate(ctx context.Context, req types.GenerateRequest) (*types.GenerateResponse, error)
	Classify(ctx context.Context, req types.ClassifyRequest) (*types.ClassifyResponse, error)
	LastResult() (types.InferenceResult, bool)
	LastResultImage() ([]byte, string, bool)
}

// NewMux builds the API router.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// ListModels godoc
	// @Summary List selectable models
	// @Produce json
	// @Success 200 {object} types.ModelsResponse
	// @Router /models [get]
	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.ModelsResponse{Models: svc.ListModels()}); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	// Status godoc
	// @Summary Manager and resident model status
	// @Produce json
	// @Success 200 {object} types.StatusResponse
	// @Router /status [get]
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	// Load godoc
	// @Summary Load a model, replacing the resident one
	// @Accept json
	// @Produce json
	// @Param request body types.LoadRequest true "model to load"
	// @Success 200 {object} types.LoadResponse
	// @Router /load [post]
	r.Post("/load", func(w http.ResponseWriter, r *http.Request) {
		var req types.LoadRequest
		if !decodeJSONBody(w, r, &req, maxBodyBytes) {
			return
		}
		start := time.Now()
		if req.Async {
			op, err := svc.LoadAsync(req.Model)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(types.LoadResponse{Op: op, Model: req.Model, State: "loading"})
			return
		}
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.Load(joinedCtx, req.Model); err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := writeServiceError(w, err)
			logRequestEnd(r, "load", req.Model, status, start)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.LoadResponse{Model: req.Model, State: "ready"})
		logRequestEnd(r, "load", req.Model, http.StatusOK, start)
	})

	// Unload godoc
	// @Summary Drain and release the resident model
	// @Accept json
	// @Produce json
	// @Param request body types.LoadRequest true "model to unload"
	// @Success 204 "unloaded"
	// @Router /unload [post]
	r.Post("/unload", func(w http.ResponseWriter, r *http.Request) {
		var req types.LoadRequest
		if !decodeJSONBody(w, r, &req, maxBodyBytes) {
			return
		}
		if err := svc.Unload(req.Model); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Generate godoc
	// @Summary Generate an image from a text prompt
	// @Accept json
	// @Produce json
	// @Param request body types.GenerateRequest true "generation request"
	// @Success 200 {object} types.GenerateResponse
	// @Failure 409 {object} types.ErrorResponse "capability mismatch"
	// @Router /generate [post]
	r.Post("/generate", func(w http.ResponseWriter, r *http.Request) {
		var req types.GenerateRequest
		if !decodeJSONBody(w, r, &req, maxBodyBytes) {
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		start := time.Now()
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.Generate(joinedCtx, req)
		if err != nil {
			// If context was canceled (client disconnect), just return.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := writeServiceError(w, err)
			logRequestEnd(r, "generate", req.Model, status, start)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
		logRequestEnd(r, "generate", resp.Model, http.StatusOK, start)
	})

	// Classify godoc
	// @Summary Classify an image
	// @Accept json
	// @Produce json
	// @Param request body types.ClassifyRequest true "classification request"
	// @Success 200 {object} types.ClassifyResponse
	// @Failure 409 {object} types.ErrorResponse "capability mismatch"
	// @Router /classify [post]
	r.Post("/classify", func(w http.ResponseWriter, r *http.Request) {
		var req types.ClassifyRequest
		if !decodeJSONBody(w, r, &req, classifyMaxBodyBytes) {
			return
		}
		start := time.Now()
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.Classify(joinedCtx, req)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := writeServiceError(w, err)
			logRequestEnd(r, "classify", req.Model, status, start)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
		logRequestEnd(r, "classify", resp.Model, http.StatusOK, start)
	})

	// Result godoc
	// @Summary Metadata of the most recent successful run
	// @Produce json
	// @Success 200 {object} types.InferenceResult
	// @Failure 404 {object} types.ErrorResponse "no result yet"
	// @Router /result [get]
	r.Get("/result", func(w http.ResponseWriter, r *http.Request) {
		res, ok := svc.LastResult()
		if !ok {
			writeJSONError(w, http.StatusNotFound, "no result yet")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	})

	// ResultImage godoc
	// @Summary Image payload of the most recent successful generation
	// @Produce png
	// @Success 200 {string} binary "image bytes"
	// @Failure 404 {object} types.ErrorResponse "no image result"
	// @Router /result/image [get]
	r.Get("/result/image", func(w http.ResponseWriter, r *http.Request) {
		data, format, ok := svc.LastResultImage()
		if !ok {
			writeJSONError(w, http.StatusNotFound, "no image result")
			return
		}
		ct := "image/png"
		if format == "jpeg" {
			ct = "image/jpeg"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = w.Write(data)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSONBody enforces content type and size limits before decoding.
// Returns false if a response has already been written.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, limit int64) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// An exceeded limit also lands here; report 400 without size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
