package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
)

const report_access = "access"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type requestIdKeyType int

var requestIdKey requestIdKeyType

// RequestId returns the id assigned to the request ctx belongs to, empty outside of a request.
func RequestId(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey).(string)
	return id
}

// withObservability assigns a request id, records prometheus metrics and reports an access line.
// endpoint is the route pattern, not the raw path, so query strings and ids do not blow up label
// cardinality.
func (s *Server) withObservability(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get("x-request-id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("x-request-id", id)
		r = r.WithContext(context.WithValue(r.Context(), requestIdKey, id))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		s.metrics.RecordRequest(r.Method, endpoint, sw.status, duration)
		s.tel.ReportDebug(report_access, id, r.Method, r.URL.Path, sw.status, duration.String())
	})
}

// withCors allows the configured origins, an empty list allows any origin. Credentials are never
// allowed.
func withCors(origins []string, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           600,
	}).Handler(next)
}

// ParseOrigins splits a comma separated origin list, blanks are dropped.
func ParseOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
