package utils

import (
	"encoding/json"
	"net/http"
)

// MessageResponse is the body shape for status/confirmation replies
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body shape for failure replies
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONResponse writes an arbitrary payload with the given status code
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteMessageResponse writes a {"message": ...} body
func WriteMessageResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, MessageResponse{Message: message})
}

// WriteErrorResponse writes an {"error": ...} body
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, ErrorResponse{Error: message})
}

// WriteInternalServerErrorResponse writes a 500 error body
func WriteInternalServerErrorResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusInternalServerError, message)
}

// ParseJSONBody decodes the request body into v
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
