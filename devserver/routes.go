package devserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) initRoutes() {
	// AUTH
	s.handle(http.MethodPost, RouteRefreshToken, s.RefreshTokenHandler())
	s.handle(http.MethodPost, RouteDevLogin, s.DevLoginHandler())
	s.handle(http.MethodPost, RouteVerificationCode, s.VerificationCodeHandler())
	s.handle(http.MethodPost, RouteBeginRegistration, s.BeginRegistrationHandler())
	s.handle(http.MethodPost, RouteFinishRegistration, s.FinishRegistrationHandler())
	s.handle(http.MethodGet, RouteBeginLogin, s.BeginLoginHandler())
	s.handle(http.MethodPost, RouteFinishLogin, s.FinishLoginHandler())

	// CATALOG
	s.handle(http.MethodGet, RouteProducts, s.ProductsHandler())

	// CART
	s.handle(http.MethodGet, RouteCart, s.RequireAuth(), s.GetCartHandler())
	s.handle(http.MethodPost, RouteCartItems, s.RequireAuth(), s.AddToCartHandler())
	s.handle(http.MethodPut, RouteCartItem, s.RequireAuth(), s.UpdateCartItemHandler())
	s.handle(http.MethodDelete, RouteCartItem, s.RequireAuth(), s.RemoveCartItemHandler())
	s.handle(http.MethodPost, RouteCartClear, s.RequireAuth(), s.ClearCartHandler())

	// FAVORITES
	s.handle(http.MethodGet, RouteFavorites, s.RequireAuth(), s.ListFavoritesHandler())
	s.handle(http.MethodPost, RouteFavorites, s.RequireAuth(), s.AddFavoriteHandler())
	s.handle(http.MethodDelete, RouteFavorite, s.RequireAuth(), s.RemoveFavoriteHandler())

	// ADMIN
	s.handle(http.MethodGet, RouteAdminUsers, s.RequireAuth(), s.RequireAdmin(), s.AdminUsersListHandler())
	s.handle(http.MethodPut, RouteAdminUser, s.RequireAuth(), s.RequireAdmin(), s.AdminUpdateUserHandler())
	s.handle(http.MethodDelete, RouteAdminUser, s.RequireAuth(), s.RequireAdmin(), s.AdminDeleteUserHandler())
}

// parseIDParam reads a positive integer path parameter, answering 400 when it is not one
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
