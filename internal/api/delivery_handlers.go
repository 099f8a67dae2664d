package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/freshmart/grocery-api/internal/auth"
	"github.com/freshmart/grocery-api/internal/models"
)

// myDeliveriesHandler returns the calling courier's deliveries.
func (s *Server) myDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())
	limit, offset := pagination(r)

	deliveries, err := s.deliveryService.ListForStaff(r.Context(), principal.ID, limit, offset)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: deliveries})
}

type updateDeliveryRequest struct {
	Status        string  `json:"status"`
	FailureReason *string `json:"failure_reason,omitempty"`
}

// updateDeliveryStatusHandler advances a delivery through its lifecycle.
// Couriers may only touch their own deliveries; admins may touch any.
func (s *Server) updateDeliveryStatusHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())
	deliveryID := mux.Vars(r)["id"]

	var req updateDeliveryRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	// An empty actor skips the ownership check.
	actorStaffID := principal.ID
	if principal.Role == auth.RoleAdmin {
		actorStaffID = ""
	}

	delivery, err := s.deliveryService.UpdateStatus(r.Context(), deliveryID, models.DeliveryStatus(req.Status), req.FailureReason, actorStaffID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: delivery})
}
