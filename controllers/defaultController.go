package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to Amexan Market API ❤️. Enjoy seamless interaction with this API.

The following are the endpoints for this API:

ORDER
- POST "/order" - Place an order and start payment (Idempotency-Key supported)
- GET "/order/confirmation" - Payment callback (reference, orderId)
- GET "/orders" - Get your orders
- GET "/orders/stats" - Get your purchase statistics
- GET "/orders/:orderId" - Get one of your orders

SELLER
- GET "/seller/orders" - Get orders containing your products
- GET "/seller/orders/:orderId" - Get your lines of an order

ADMIN
- GET "/admin/orders" - Get all orders (status, paymentStatus, search, page, limit)
- GET "/admin/orders/stats" - Get order statistics
- PATCH "/admin/orders/:orderId" - Update order status or payment status
- DELETE "/admin/orders/:orderId" - Delete order by ID

PRODUCT
- GET "/products/:productId" - Get product by ID
- GET "/products/:productId/reviews" - Get product reviews
- GET "/products/:productId/reviews/eligibility" - Check whether you can review
- GET "/products/:productId/reviews/mine" - Get your review
- POST "/products/:productId/reviews" - Review a purchased product

REVIEW
- PUT "/reviews/:reviewId" - Update your review
- DELETE "/reviews/:reviewId" - Delete your review
- POST "/reviews/:reviewId/helpful" - Mark a review helpful

SAVED
- GET "/saved" - Get saved products
- GET "/saved/ids" - Get saved product IDs
- GET "/saved/:productId/status" - Check whether a product is saved
- POST "/saved/:productId" - Save product
- DELETE "/saved/:productId" - Remove saved product`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
