package web

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/logging"
)

const headerRequestID = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withRequestLog tags the request with an id and logs it once it is served.
func withRequestLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				reqID := r.Header.Get(headerRequestID)
				if reqID == "" {
					reqID = uuid.NewString()
				}
				w.Header().Set(headerRequestID, reqID)
				ctx := logging.WithRequestID(r.Context(), reqID)

				rec := &statusRecorder{ResponseWriter: w}
				next.ServeHTTP(rec, r.WithContext(ctx))

				logging.FromContext(ctx, logger).Info(
					"http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.status,
					"bytes", rec.bytes,
					"duration", time.Since(start),
				)
			},
		)
	}
}

func withRecover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logging.FromContext(r.Context(), logger).Error(
							"panic recovered in handler",
							"panic", rec,
							"stack", string(debug.Stack()),
						)
						writeError(w, http.StatusInternalServerError, "internal server error")
					}
				}()
				next.ServeHTTP(w, r)
			},
		)
	}
}

// withCORS leaves the API open to any origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		},
	)
}

// chainMiddlewares applies middlewares in order, so the last one runs first.
func chainMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
