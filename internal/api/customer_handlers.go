package api

import (
	"net/http"

	"github.com/freshmart/grocery-api/internal/service"
)

type registerRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
}

// registerHandler creates a customer account and returns a token.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	result, err := s.customerService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: result})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginHandler authenticates a customer and returns a token.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	result, err := s.customerService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result})
}

// profileHandler returns the caller's account.
func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	customer, err := s.customerService.GetProfile(r.Context(), principal.ID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: customer})
}

// loyaltyHandler returns the caller's points balance and history.
func (s *Server) loyaltyHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	summary, err := s.customerService.GetLoyaltySummary(r.Context(), principal.ID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary})
}
