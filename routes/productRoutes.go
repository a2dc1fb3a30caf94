package routes

import (
	"github.com/Kariqs/amexan-market/controllers"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	products := server.Group("/products/:productId")
	{
		products.GET("", c.GetProduct)
		products.GET("/reviews", c.GetProductReviews)
		products.GET("/reviews/eligibility", mw.OptionalAuth, c.GetReviewEligibility)
		products.GET("/reviews/mine", mw.RequireAuth, c.GetMyReview)
		products.POST("/reviews", mw.RequireAuth, c.CreateReview)
	}
}

func ReviewRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	reviews := server.Group("/reviews/:reviewId", mw.RequireAuth)
	{
		reviews.PUT("", c.UpdateReview)
		reviews.DELETE("", c.DeleteReview)
		reviews.POST("/helpful", c.MarkReviewHelpful)
	}
}

func SavedRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	saved := server.Group("/saved", mw.RequireAuth)
	{
		saved.GET("", c.GetSavedProducts)
		saved.GET("/ids", c.GetSavedProductIDs)
		saved.GET("/:productId/status", c.GetSavedStatus)
		saved.POST("/:productId", c.SaveProduct)
		saved.DELETE("/:productId", c.UnsaveProduct)
	}
}
