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

	"modelscan/internal/manager"
	"modelscan/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.ModelFile
	Model(digest string) (types.ModelFile, error)
	Search(term string) []types.ModelFile
	Verify(digest, level string) (types.VerifyResponse, error)
	Identify(digest string) (string, error)
	Scan(ctx context.Context) (types.ScanResponse, error)
	Status() types.StatusResponse
	Ready() bool
	RegisterWorkflow(path, name string) (types.WorkflowDescriptor, error)
	Workflows() []types.WorkflowDescriptor
	Workflow(id string) (types.WorkflowDescriptor, []types.DependencyReference, error)
	ResolveWorkflow(id string) (types.ResolveResponse, error)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: svc.ListModels()})
	})

	r.Get("/models/{digest}", func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Model(chi.URLParam(r, "digest"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	r.Post("/models/{digest}/verify", func(w http.ResponseWriter, r *http.Request) {
		var req types.VerifyRequest
		if !decodeOptionalJSON(w, r, &req) {
			return
		}
		start := time.Now()
		resp, err := svc.Verify(chi.URLParam(r, "digest"), req.Level)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if requestLogLevel(r) >= LevelInfo && zlog != nil {
			z := zlog.Info().Str("digest", chi.URLParam(r, "digest")).Bool("valid", resp.Valid).Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("verify")
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/models/{digest}/identify", func(w http.ResponseWriter, r *http.Request) {
		full, err := svc.Identify(chi.URLParam(r, "digest"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, types.IdentifyResponse{FullDigest: full})
	})

	r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			writeJSONError(w, http.StatusBadRequest, "query parameter q is required")
			return
		}
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: svc.Search(q)})
	})

	r.Post("/scan", func(w http.ResponseWriter, r *http.Request) {
		// Join server base context with request context so shutdown
		// cancels a running pass too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if scanTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, time.Duration(scanTimeout)*time.Second)
			defer tcancel()
		}
		resp, err := svc.Scan(ctx)
		if err != nil {
			if manager.IsScanBusy(err) {
				IncrementScanRejected("busy")
			}
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/workflows", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.WorkflowsResponse{Workflows: svc.Workflows()})
	})

	r.Post("/workflows", func(w http.ResponseWriter, r *http.Request) {
		var req types.RegisterWorkflowRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			writeJSONError(w, http.StatusBadRequest, "path is required")
			return
		}
		wf, err := svc.RegisterWorkflow(req.Path, req.Name)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, wf)
	})

	r.Get("/workflows/{id}", func(w http.ResponseWriter, r *http.Request) {
		wf, deps, err := svc.Workflow(chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, types.WorkflowDetailResponse{Workflow: wf, Dependencies: deps})
	})

	r.Post("/workflows/{id}/resolve", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		start := time.Now()
		resp, err := svc.ResolveWorkflow(id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if requestLogLevel(r) >= LevelInfo && zlog != nil {
			z := zlog.Info().Str("workflow", id).Str("status", string(resp.Workflow.Status)).Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("resolve")
		}
		writeJSON(w, http.StatusOK, resp)
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
		w.Write([]byte("scanning"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSON enforces the JSON content type and body limit, writing the
// error response itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return decodeJSON(w, r, dst)
}
