package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// generatePurchaseOrdersHandler creates replenishment orders for every
// low-stock product without an open one. Admin only.
func (s *Server) generatePurchaseOrdersHandler(w http.ResponseWriter, r *http.Request) {
	created, err := s.inventoryService.GeneratePurchaseOrders(r.Context())
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created})
}

// listPurchaseOrdersHandler returns replenishment orders. Admin only.
func (s *Server) listPurchaseOrdersHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	orders, err := s.inventoryService.ListPurchaseOrders(r.Context(), limit, offset)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: orders})
}

// receivePurchaseOrderHandler marks a purchase order received and restocks
// the product. Admin only.
func (s *Server) receivePurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	po, err := s.inventoryService.ReceivePurchaseOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: po})
}
