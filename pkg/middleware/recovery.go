package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"org-task-backend/pkg/config"
	"org-task-backend/pkg/utils"
)

// Recovery converts panics into JSON 500 responses. In development the
// response carries the panic value; in production it is hidden.
func Recovery(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					stack := debug.Stack()
					fmt.Printf("PANIC: %v\n%s\n", err, stack)

					if cfg.IsDevelopment() {
						utils.WriteInternalServerErrorResponse(w,
							fmt.Sprintf("Internal server error: %v", err))
					} else {
						utils.WriteInternalServerErrorResponse(w, "Internal server error occurred")
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
