package middlewares

import (
	"net/http"

	"github.com/Kariqs/megano-api/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userClaims, exists := ctx.Get("user")
		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, ok := userClaims.(jwt.MapClaims)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		role, ok := claims["role"].(string)
		if !ok || role != models.RoleAdmin || !CallerFrom(ctx).Staff {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		ctx.Next()
	}
}
