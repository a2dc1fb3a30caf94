package middlewares

import (
	"net/http"
	"strings"

	"github.com/Kariqs/amexan-market/models"
	"github.com/Kariqs/amexan-market/utils"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	userKey   = "user"
	callerKey = "caller"
)

var errNoToken = errors.New("no token")

// RequireAuth rejects requests without a valid bearer token and stores the claims under
// "user" and the resolved caller under "caller".
func RequireAuth(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := authenticate(ctx, secret); err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and lets the request
// through either way.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		_ = authenticate(ctx, secret)
		ctx.Next()
	}
}

// CallerFrom returns the caller set by RequireAuth or OptionalAuth, or nil.
func CallerFrom(ctx *gin.Context) *models.Caller {
	v, ok := ctx.Get(callerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*models.Caller)
	return caller
}

func authenticate(ctx *gin.Context, secret string) error {
	tokenString := bearerToken(ctx)
	if tokenString == "" {
		return errNoToken
	}
	claims, err := utils.ParseToken(secret, tokenString)
	if err != nil {
		return err
	}
	caller, err := utils.CallerFromClaims(claims)
	if err != nil {
		return err
	}
	ctx.Set(userKey, claims)
	ctx.Set(callerKey, caller)
	return nil
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := ctx.Cookie("Authorization"); err == nil {
		return cookie
	}
	return ""
}
