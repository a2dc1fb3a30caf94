package controllers

import (
	"net/http"

	"github.com/Kariqs/amexan-market/middlewares"
	"github.com/gin-gonic/gin"
)

func (c *Controller) GetSavedProducts(ctx *gin.Context) {
	products, meta, err := c.Saved.List(ctx.Request.Context(), middlewares.CallerFrom(ctx), pagination(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"products": products, "metadata": meta})
}

func (c *Controller) GetSavedProductIDs(ctx *gin.Context) {
	ids, err := c.Saved.IDs(ctx.Request.Context(), middlewares.CallerFrom(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"productIds": ids})
}

func (c *Controller) GetSavedStatus(ctx *gin.Context) {
	saved, err := c.Saved.IsSaved(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("productId"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"saved": saved})
}

func (c *Controller) SaveProduct(ctx *gin.Context) {
	if err := c.Saved.Save(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("productId")); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"message": "Product saved successfully."})
}

func (c *Controller) UnsaveProduct(ctx *gin.Context) {
	if err := c.Saved.Unsave(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("productId")); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Product removed from saved."})
}
