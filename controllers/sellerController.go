package controllers

import (
	"net/http"

	"github.com/Kariqs/amexan-market/middlewares"
	"github.com/gin-gonic/gin"
)

func (c *Controller) GetSellerOrders(ctx *gin.Context) {
	orders, meta, err := c.Projections.SellerOrders(ctx.Request.Context(), middlewares.CallerFrom(ctx), pagination(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders, "metadata": meta})
}

func (c *Controller) GetSellerOrder(ctx *gin.Context) {
	order, err := c.Projections.SellerOrderDetail(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("orderId"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}
