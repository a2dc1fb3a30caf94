package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Kariqs/amexan-market/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const msgInternalServerError = "Internal server error"

// Controller exposes the marketplace services over HTTP.
type Controller struct {
	Orders      *services.OrderService
	Projections *services.ProjectionService
	Reviews     *services.ReviewService
	Saved       *services.SavedService
	Products    *services.ProductService
	// FrontendURL is where buyers land after payment confirmation.
	FrontendURL string
}

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"error": message})
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindInvalidInput,
		services.KindValidationFailed,
		services.KindPaymentInitFailed,
		services.KindPaymentVerificationFailed:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondWithError writes the client-safe message of a service error. Anything that is not
// a service error is logged and hidden behind a generic 500.
func respondWithError(ctx *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		log.WithField("path", ctx.FullPath()).WithError(err).Error("unhandled error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	status := statusFor(svcErr.Kind)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{"path": ctx.FullPath(), "kind": svcErr.Kind.String()}).WithError(err).Error(svcErr.Message)
	}
	body := gin.H{"error": svcErr.Message}
	if len(svcErr.Missing) > 0 {
		body["missing"] = svcErr.Missing
	}
	sendJSONResponse(ctx, status, body)
}

func respondWithBindingError(ctx *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		sendErrorResponse(ctx, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s failed on '%s'", fe.Namespace(), fe.Tag()))
		return
	}
	sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
}

func pagination(ctx *gin.Context) services.Pagination {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	return services.Pagination{Page: page, Limit: limit}
}
