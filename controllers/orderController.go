package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Kariqs/amexan-market/middlewares"
	"github.com/Kariqs/amexan-market/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (c *Controller) CreateOrder(ctx *gin.Context) {
	caller := middlewares.CallerFrom(ctx)
	if caller == nil {
		sendErrorResponse(ctx, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input services.CreateOrderInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithBindingError(ctx, err)
		return
	}

	created, err := c.Orders.CreateOrder(ctx.Request.Context(), caller, input)
	if err != nil {
		respondWithError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"order": gin.H{
			"id":     created.OrderID,
			"status": created.Status,
			"total":  created.Total,
		},
		"payment": gin.H{
			"authorization_url": created.AuthorizationURL,
			"reference":         created.Reference,
		},
	})
}

// ConfirmOrder is the gateway callback. The gateway appends reference (and trxref) to the
// callback URL registered at checkout.
func (c *Controller) ConfirmOrder(ctx *gin.Context) {
	reference := ctx.Query("reference")
	if reference == "" {
		reference = ctx.Query("trxref")
	}
	orderID := ctx.Query("orderId")

	confirmation, err := c.Orders.ConfirmPayment(ctx.Request.Context(), reference, orderID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	if confirmation.AlreadyPaid {
		log.WithField("orderId", orderID).Info("confirmation replayed for settled order")
	}

	ctx.Redirect(http.StatusFound, strings.TrimRight(c.FrontendURL, "/")+"/checkout/confirmed?orderId="+url.QueryEscape(confirmation.OrderID))
}

func (c *Controller) GetBuyerOrders(ctx *gin.Context) {
	orders, meta, err := c.Projections.BuyerOrders(ctx.Request.Context(), middlewares.CallerFrom(ctx), pagination(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders, "metadata": meta})
}

func (c *Controller) GetBuyerOrder(ctx *gin.Context) {
	order, err := c.Projections.BuyerOrder(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.Param("orderId"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func (c *Controller) GetBuyerStats(ctx *gin.Context) {
	stats, err := c.Projections.BuyerStats(ctx.Request.Context(), middlewares.CallerFrom(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"stats": stats})
}

func (c *Controller) GetOrders(ctx *gin.Context) {
	filter := services.OrderFilter{
		Status:        ctx.Query("status"),
		PaymentStatus: ctx.Query("paymentStatus"),
		Search:        strings.TrimSpace(ctx.Query("search")),
		Pagination:    pagination(ctx),
	}

	orders, meta, err := c.Projections.AdminOrders(ctx.Request.Context(), filter)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders, "metadata": meta})
}

func (c *Controller) GetOrderStats(ctx *gin.Context) {
	stats, err := c.Projections.AdminStats(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"stats": stats})
}

func (c *Controller) UpdateOrder(ctx *gin.Context) {
	var input services.UpdateOrderInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithBindingError(ctx, err)
		return
	}

	orderID := ctx.Param("orderId")
	if err := c.Orders.UpdateOrder(ctx.Request.Context(), orderID, input); err != nil {
		respondWithError(ctx, err)
		return
	}
	log.WithField("orderId", orderID).Info("order updated")
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order updated successfully."})
}

func (c *Controller) DeleteOrder(ctx *gin.Context) {
	orderID := ctx.Param("orderId")
	if err := c.Orders.DeleteOrder(ctx.Request.Context(), orderID); err != nil {
		respondWithError(ctx, err)
		return
	}
	log.WithField("orderId", orderID).Info("order deleted")
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order deleted successfully."})
}
