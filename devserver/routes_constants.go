package devserver

// Route path constants
const (
	// Auth
	RouteRefreshToken       = "/auth/refresh-token"
	RouteDevLogin           = "/auth/dev-login"
	RouteVerificationCode   = "/auth/request-verification-code"
	RouteBeginRegistration  = "/auth/begin-registration"
	RouteFinishRegistration = "/auth/finish-registration"
	RouteBeginLogin         = "/auth/begin-login"
	RouteFinishLogin        = "/auth/finish-login"

	// Catalog
	RouteProducts = "/api/products"

	// Cart
	RouteCart      = "/api/cart"
	RouteCartItems = "/api/cart/items"
	RouteCartItem  = "/api/cart/items/:itemID"
	RouteCartClear = "/api/cart/clear"

	// Favorites
	RouteFavorites = "/api/favorites"
	RouteFavorite  = "/api/favorites/:productID"

	// Admin
	RouteAdminUsers = "/admin/users"
	RouteAdminUser  = "/admin/users/:id"
)
