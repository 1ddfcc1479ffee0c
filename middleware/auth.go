package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/utils"
)

const (
	// ContextEmailKey stores the authenticated email inside the Gin context.
	ContextEmailKey = "email"
	// SessionCookie is the name of the cookie carrying the session token.
	SessionCookie = "token"
)

// TokenFromRequest returns the session token from the cookie, falling back to a Bearer header.
func TokenFromRequest(ctx *gin.Context) string {
	if tok, err := ctx.Cookie(SessionCookie); err == nil && tok != "" {
		return tok
	}
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthRequired ensures the request carries a valid, unrevoked session token.
func AuthRequired(secret string, blacklist *utils.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := TokenFromRequest(ctx)
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "unauthorized access")
			ctx.Abort()
			return
		}

		if blacklist != nil && blacklist.IsRevoked(ctx.Request.Context(), tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextEmailKey, claims.Email)
		ctx.Next()
	}
}
