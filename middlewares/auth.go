package middlewares

import (
	"net/http"
	"strings"

	"github.com/Kariqs/megano-api/initializers"
	"github.com/Kariqs/megano-api/models"
	"github.com/Kariqs/megano-api/services"
	"github.com/Kariqs/megano-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TokenCookie   = "token"
	SessionCookie = "sessionid"
	callerKey     = "caller"
)

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if token, err := ctx.Cookie(TokenCookie); err == nil {
		return token
	}
	return ""
}

// Identify works out who is calling. A valid token makes an authenticated caller and puts
// its claims under "user"; everyone else gets an anonymous session cookie.
func Identify() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var caller services.Caller

		if token := bearerToken(ctx); token != "" {
			if claims, err := utils.ParseJWT(token); err == nil {
				if userID, ok := utils.ClaimUserID(claims); ok {
					role, _ := claims["role"].(string)
					caller.UserID = userID
					caller.Staff = models.User{Role: role}.IsStaff()
					ctx.Set("user", claims)
				}
			}
		}

		if !caller.Authenticated() {
			sessionID, err := ctx.Cookie(SessionCookie)
			if err != nil || uuid.Validate(sessionID) != nil {
				sessionID = uuid.NewString()
				maxAge := int(initializers.Cfg.SessionTTL.Seconds())
				ctx.SetSameSite(http.SameSiteLaxMode)
				ctx.SetCookie(SessionCookie, sessionID, maxAge, "/", "", false, true)
			}
			caller.SessionID = sessionID
		}

		ctx.Set(callerKey, caller)
		ctx.Next()
	}
}

// CallerFrom returns the caller stored by Identify.
func CallerFrom(ctx *gin.Context) services.Caller {
	if value, ok := ctx.Get(callerKey); ok {
		if caller, ok := value.(services.Caller); ok {
			return caller
		}
	}
	return services.Caller{}
}

func RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !CallerFrom(ctx).Authenticated() {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		ctx.Next()
	}
}
