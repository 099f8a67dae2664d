package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/freshmart/grocery-api/internal/auth"
	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
)

type createStaffRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// createStaffHandler registers a staff member. Admin only.
func (s *Server) createStaffHandler(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	if req.Name == "" || req.Email == "" || req.Role == "" {
		s.respondWithError(w, http.StatusBadRequest, "Name, email and role are required")
		return
	}

	staff := models.NewStaff(req.Name, req.Email, req.Role)
	if err := s.staffRepo.Create(r.Context(), staff); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.respondWithError(w, http.StatusConflict, "A staff member with this email already exists")
			return
		}
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: staff})
}

// listStaffHandler returns the staff directory. Admin only.
func (s *Server) listStaffHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	staff, err := s.staffRepo.GetAll(r.Context(), limit, offset)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: staff})
}

// issueStaffTokenHandler mints a bearer token for a staff member. Staff do
// not hold credentials of their own; an admin provisions their access.
func (s *Server) issueStaffTokenHandler(w http.ResponseWriter, r *http.Request) {
	staff, err := s.staffRepo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Staff member not found")
			return
		}
		s.handleServiceError(w, r, err)
		return
	}

	if !staff.IsActive {
		s.respondWithError(w, http.StatusConflict, "Staff member is inactive")
		return
	}

	token, err := s.tokens.Issue(auth.Principal{ID: staff.ID, Name: staff.Name, Role: staff.Role})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"token": token}})
}
