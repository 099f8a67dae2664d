package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/service"
)

type placeOrderRequest struct {
	Items []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	DeliveryAddress     string  `json:"delivery_address"`
	SpecialInstructions *string `json:"special_instructions,omitempty"`
	PaymentMethod       string  `json:"payment_method"`
}

// placeOrderHandler checks out the caller's cart.
func (s *Server) placeOrderHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req placeOrderRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	input := service.PlaceOrderInput{
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		PaymentMethod:       models.PaymentMethod(req.PaymentMethod),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	placed, err := s.orderService.PlaceOrder(r.Context(), principal.ID, input)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: placed})
}

// listOrdersHandler returns the caller's order history.
func (s *Server) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())
	limit, offset := pagination(r)

	orders, err := s.orderService.ListOrders(r.Context(), principal.ID, limit, offset)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: orders})
}

// getOrderHandler returns one of the caller's orders.
func (s *Server) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())
	orderID := mux.Vars(r)["id"]

	view, err := s.orderService.GetOrder(r.Context(), principal.ID, orderID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: view})
}

type updateOrderRequest struct {
	DeliveryAddress     *string `json:"delivery_address,omitempty"`
	SpecialInstructions *string `json:"special_instructions,omitempty"`
}

// updateOrderHandler amends the address or instructions of a mutable order.
func (s *Server) updateOrderHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())
	orderID := mux.Vars(r)["id"]

	var req updateOrderRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	view, err := s.orderService.UpdateOrder(r.Context(), principal.ID, orderID, req.DeliveryAddress, req.SpecialInstructions)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: view})
}

// cancelOrderHandler cancels a mutable order and restores its stock.
func (s *Server) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())
	orderID := mux.Vars(r)["id"]

	view, err := s.orderService.CancelOrder(r.Context(), principal.ID, orderID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: view})
}

// pagination reads limit/offset query params with sane defaults.
func pagination(r *http.Request) (int, int) {
	limit := 20
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
