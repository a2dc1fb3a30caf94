package controllers

import (
	"net/http"

	"github.com/Kariqs/amexan-market/middlewares"
	"github.com/Kariqs/amexan-market/services"
	"github.com/gin-gonic/gin"
)

func (c *Controller) GetProduct(ctx *gin.Context) {
	product, err := c.Products.Product(ctx.Request.Context(), ctx.Param("productId"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"product": product})
}

func (c *Controller) GetProductReviews(ctx *gin.Context) {
	reviews, meta, err := c.Reviews.ListReviews(ctx.Request.Context(), ctx.Param("productId"), pagination(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"reviews": reviews, "metadata": meta})
}

func (c *Controller) GetReviewEligibility(ctx *gin.Context) {
	eligibility, err := c.Reviews.CanReview(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("productId"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"eligibility": eligibility})
}

func (c *Controller) GetMyReview(ctx *gin.Context) {
	review, err := c.Reviews.MyReview(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("productId"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"review": review})
}

func (c *Controller) CreateReview(ctx *gin.Context) {
	var input services.ReviewInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithBindingError(ctx, err)
		return
	}

	review, err := c.Reviews.CreateReview(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("productId"), input)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"review": review})
}
