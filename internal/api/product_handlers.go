package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/freshmart/grocery-api/internal/service"
)

// listProductsHandler returns the catalog. Public.
func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	products, err := s.inventoryService.ListProducts(r.Context(), limit, offset)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: products})
}

// getProductHandler returns one product. Public.
func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := s.inventoryService.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: product})
}

type productRequest struct {
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	QuantityInStock int     `json:"quantity_in_stock"`
	ReorderLevel    int     `json:"reorder_level"`
	ReorderQuantity int     `json:"reorder_quantity"`
}

// createProductHandler adds a catalog entry. Admin only.
func (s *Server) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	product, err := s.inventoryService.CreateProduct(r.Context(), service.CreateProductInput{
		Name:            req.Name,
		Category:        req.Category,
		Price:           req.Price,
		QuantityInStock: req.QuantityInStock,
		ReorderLevel:    req.ReorderLevel,
		ReorderQuantity: req.ReorderQuantity,
	})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: product})
}

// updateProductHandler rewrites a catalog entry. Admin only.
func (s *Server) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req productRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	product, err := s.inventoryService.GetProduct(r.Context(), id)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	product.Name = req.Name
	product.Category = req.Category
	product.Price = req.Price
	product.QuantityInStock = req.QuantityInStock
	product.ReorderLevel = req.ReorderLevel
	product.ReorderQuantity = req.ReorderQuantity

	if err := s.inventoryService.UpdateProduct(r.Context(), product); err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: product})
}

// deleteProductHandler removes a catalog entry. Admin only.
func (s *Server) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.inventoryService.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true})
}

// lowStockHandler reports products at or below their reorder level. Admin only.
func (s *Server) lowStockHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.inventoryService.LowStockReport(r.Context())
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: products})
}
