package routes

import (
	"github.com/Kariqs/amexan-market/controllers"
	"github.com/gin-gonic/gin"
)

// Middlewares are the guards the route groups are wired with.
type Middlewares struct {
	RequireAuth  gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	RequireAdmin gin.HandlerFunc
	Idempotency  gin.HandlerFunc
}

func Register(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	DefaultRoutes(server)
	OrderRoutes(server, c, mw)
	SellerRoutes(server, c, mw)
	AdminRoutes(server, c, mw)
	ProductRoutes(server, c, mw)
	ReviewRoutes(server, c, mw)
	SavedRoutes(server, c, mw)
}
