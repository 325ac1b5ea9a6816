package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/imamik/stratus/internal/provisioning"
)

// StatusFor maps an orchestration error to an HTTP status code.
func StatusFor(err error) int {
	switch provisioning.Kind(err) {
	case provisioning.KindValidation:
		return http.StatusBadRequest
	case provisioning.KindNotFound:
		return http.StatusNotFound
	case provisioning.KindPathTraversal:
		return http.StatusForbidden
	case provisioning.KindConflict, provisioning.KindNotEmpty:
		return http.StatusConflict
	case provisioning.KindTransient:
		return http.StatusServiceUnavailable
	case provisioning.KindTimeout:
		return http.StatusGatewayTimeout
	case provisioning.KindRemote, provisioning.KindClone, provisioning.KindLaunchFailed, provisioning.KindPartialFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(err))
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error(), Kind: provisioning.Kind(err)})
}

type statusRecorder struct {
	http.ResponseWriter
	code  int
	bytes int64
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

func requestLogger(log logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.V(1).Info("http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.code,
				"bytes", rec.bytes,
				"durationMs", float64(time.Since(start))/1e6,
				"requestId", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// NewRouter serves mirrored repositories under /repo/{id}/, plus /health and
// /metrics.
func NewRouter(m Mirror, log logr.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", provisioning.MetricsHandler())

	r.Get("/repo/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
	})
	r.Get("/repo/{id}/*", serveMirror(m))
	return r
}

func serveMirror(m Mirror) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rel := chi.URLParam(r, "*")
		// chi routes on RawPath when the request escaped it, so only then is
		// the wildcard still encoded.
		if r.URL.RawPath != "" {
			decoded, err := url.PathUnescape(rel)
			if err != nil {
				writeError(w, &provisioning.ValidationError{Field: "path", Value: rel, Reason: "invalid escape"})
				return
			}
			rel = decoded
		}

		f, info, err := m.Open(id, rel)
		if err != nil {
			writeError(w, err)
			return
		}
		defer f.Close()
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	}
}
