package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		entry := log.WithFields(log.Fields{
			"method":  ctx.Request.Method,
			"path":    ctx.FullPath(),
			"status":  ctx.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      ctx.ClientIP(),
		})
		if caller := CallerFrom(ctx); caller != nil {
			entry = entry.WithField("userId", caller.ID)
		}
		switch {
		case ctx.Writer.Status() >= 500:
			entry.Error("request failed")
		case len(ctx.Errors) > 0:
			entry.WithField("errors", ctx.Errors.String()).Warn("request completed with errors")
		default:
			entry.Info("request completed")
		}
	}
}
