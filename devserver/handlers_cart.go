package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jrsteele09/go-shop-client/internal/errors"
)

type addToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) ProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.store.catalog())
	}
}

func (s *Server) GetCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.store.cartItems(userID(c)))
	}
}

func (s *Server) AddToCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if s.hooks.createFails(req.ProductID) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
			return
		}
		if err := s.store.addToCart(userID(c), req.ProductID, req.Quantity); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item added to cart successfully"})
	}
}

func (s *Server) UpdateCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lineID, ok := parseIDParam(c, "itemID")
		if !ok {
			return
		}
		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.store.setQuantity(userID(c), lineID, req.Quantity); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item updated successfully"})
	}
}

func (s *Server) RemoveCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lineID, ok := parseIDParam(c, "itemID")
		if !ok {
			return
		}
		if err := s.store.removeLine(userID(c), lineID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart successfully"})
	}
}

func (s *Server) ClearCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.store.clearCart(userID(c))
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}
