package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"org-task-backend/pkg/config"
)

// Logger picks the request logger for the environment: chi's default
// colored logger in development, a structured JSON line in production.
func Logger(cfg *config.Config) func(http.Handler) http.Handler {
	if cfg.IsProduction() {
		return structuredLogger
	}
	return middleware.Logger
}

// requestLogEntry is one structured request log line
type requestLogEntry struct {
	Time      string `json:"time"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	Duration  string `json:"duration"`
	User      string `json:"user"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
}

// formatLogLine marshals the entry so request-controlled fields cannot
// break the JSON line.
func formatLogLine(r *http.Request, status int, duration time.Duration) []byte {
	userInfo := "anonymous"
	if user, ok := GetUserFromContext(r.Context()); ok && user != nil {
		userInfo = user.Email
	}

	line, err := json.Marshal(requestLogEntry{
		Time:      time.Now().Format(time.RFC3339),
		Method:    r.Method,
		Path:      r.URL.Path,
		Status:    status,
		Duration:  duration.String(),
		User:      userInfo,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return nil
	}
	return line
}

// structuredLogger emits one JSON line per request
func structuredLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fmt.Printf("%s\n", formatLogLine(r, ww.Status(), time.Since(start)))
	})
}

// getClientIP resolves the client address behind proxies
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
