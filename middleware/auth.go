package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/demaesdadas/aldeia/config"
	"github.com/demaesdadas/aldeia/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextEmailKey stores the account email inside Gin context.
	ContextEmailKey = "email"
	// ContextIsModeratorKey marks requests made by a configured moderator.
	ContextIsModeratorKey = "is_moderator"
)

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setIdentity(ctx *gin.Context, claims *utils.Claims) {
	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextEmailKey, claims.Email)
	ctx.Set(ContextIsModeratorKey, config.IsModeratorEmail(claims.Email))
}

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := bearerToken(ctx)
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing or malformed")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		setIdentity(ctx, claims)
		ctx.Next()
	}
}

// AuthOptional parses a bearer token when present but never rejects the
// request. The community allows anonymous posting, so content endpoints only
// need the identity when there is one (liked flags, authorship).
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := bearerToken(ctx)
		if tokenString != "" && !utils.IsTokenBlacklisted(tokenString) {
			if claims, err := utils.ParseToken(tokenString); err == nil {
				setIdentity(ctx, claims)
			}
		}
		ctx.Next()
	}
}

// ModeratorRequired allows only configured moderator accounts through.
// Must run after AuthRequired.
func ModeratorRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !ctx.GetBool(ContextIsModeratorKey) {
			utils.Error(ctx, http.StatusForbidden, 40301, "moderator role required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
