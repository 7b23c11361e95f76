package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateUserRequest struct {
	IsAdmin  bool `json:"is_admin"`
	IsActive bool `json:"is_active"`
}

func (s *Server) AdminUsersListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"users": s.store.listUsers()})
	}
}

func (s *Server) AdminUpdateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if id == userID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot modify your own account"})
			return
		}
		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.store.updateUser(id, req.IsAdmin, req.IsActive); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User updated"})
	}
}

func (s *Server) AdminDeleteUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if id == userID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot delete your own account"})
			return
		}
		if err := s.store.deleteUser(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}
