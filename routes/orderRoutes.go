package routes

import (
	"github.com/Kariqs/amexan-market/controllers"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	server.POST("/order", mw.RequireAuth, mw.Idempotency, c.CreateOrder)
	server.GET("/order/confirmation", c.ConfirmOrder)

	orders := server.Group("/orders", mw.RequireAuth)
	{
		orders.GET("", c.GetBuyerOrders)
		orders.GET("/stats", c.GetBuyerStats)
		orders.GET("/:orderId", c.GetBuyerOrder)
	}
}

func SellerRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	seller := server.Group("/seller/orders", mw.RequireAuth)
	{
		seller.GET("", c.GetSellerOrders)
		seller.GET("/:orderId", c.GetSellerOrder)
	}
}

func AdminRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	admin := server.Group("/admin/orders", mw.RequireAuth, mw.RequireAdmin)
	{
		admin.GET("", c.GetOrders)
		admin.GET("/stats", c.GetOrderStats)
		admin.PATCH("/:orderId", c.UpdateOrder)
		admin.DELETE("/:orderId", c.DeleteOrder)
	}
}
