package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/freshmart/grocery-api/pkg/errors"
)

// ApiResponse is the envelope every endpoint returns.
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError sends a JSON response with an error message
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{
		Success: false,
		Error:   message,
	})
}

// handleServiceError translates service-layer errors into HTTP responses.
// Unclassified errors are masked as a generic 500.
func (s *Server) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.StatusCode(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		s.respondWithError(w, code, appErr.Message)
		return
	}

	s.logger.Error("Unhandled service error", "path", r.URL.Path, "error", err)
	s.respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeJSONBody parses the request body into dst, rejecting unknown fields.
func (s *Server) decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
