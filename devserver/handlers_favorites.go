package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addFavoriteRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

func (s *Server) ListFavoritesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"favorites": s.store.listFavorites(userID(c))})
	}
}

func (s *Server) AddFavoriteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addFavoriteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if s.hooks.createFails(req.ProductID) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error adding favorite"})
			return
		}
		s.store.addFavorite(userID(c), req.ProductID)
		c.JSON(http.StatusOK, gin.H{"message": "Favorite added"})
	}
}

func (s *Server) RemoveFavoriteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := parseIDParam(c, "productID")
		if !ok {
			return
		}
		s.store.removeFavorite(userID(c), productID)
		c.JSON(http.StatusOK, gin.H{"message": "Favorite removed"})
	}
}
