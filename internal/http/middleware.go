package http

import (
	"net/http"
	"time"

	"carbon/internal/log"
	"carbon/internal/observability"
)

const headerRequestID = "X-Request-ID"

func requestIDFromHeader(r *http.Request) string {
	return r.Header.Get(headerRequestID)
}

// wrap adds request IDs, security headers, POST rate limiting, request
// logging and metrics to next. route labels the request in metrics.
func (s *Server) wrap(route string, next http.HandlerFunc) http.Handler {
	h := log.Middleware(s.logger)(log.RequestIDMiddleware(requestIDFromHeader)(s.instrument(route, next)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := generateRequestID()
		r.Header.Set(headerRequestID, requestID)
		w.Header().Set(headerRequestID, requestID)
		h.ServeHTTP(w, r)
	})
}

// instrument runs next with the request-scoped logger already on the context.
func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		ctx := r.Context()
		logger := log.FromContext(ctx)
		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			duration := time.Since(start)
			observability.RecordHTTPRequest(route, rw.statusCode, duration)
			log.NewStructuredLogger(logger).LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
		}()

		if detectSuspiciousRequest(r) {
			observability.RecordSuspiciousRequest()
			logger.WarnContext(ctx, "Suspicious request detected",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			http.Error(rw, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next(rw, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
