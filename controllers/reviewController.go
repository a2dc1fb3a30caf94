package controllers

import (
	"net/http"

	"github.com/Kariqs/amexan-market/middlewares"
	"github.com/Kariqs/amexan-market/services"
	"github.com/gin-gonic/gin"
)

func (c *Controller) UpdateReview(ctx *gin.Context) {
	var input services.ReviewInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithBindingError(ctx, err)
		return
	}

	review, err := c.Reviews.UpdateReview(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("reviewId"), input)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"review": review})
}

func (c *Controller) DeleteReview(ctx *gin.Context) {
	if err := c.Reviews.DeleteReview(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("reviewId")); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Review deleted successfully."})
}

func (c *Controller) MarkReviewHelpful(ctx *gin.Context) {
	if err := c.Reviews.MarkHelpful(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("reviewId")); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Review marked as helpful."})
}
