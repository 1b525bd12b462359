package handlers

import (
	"net/http"
	"strings"

	"nft-vault/server/database"
	"nft-vault/server/internal/models"
	"nft-vault/server/internal/services"
	"nft-vault/shared/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const userContextKey = "currentUser"

// RequireAuth rejects requests without a valid bearer token and loads the
// token's user into the request context.
func RequireAuth(resolver *services.IdentityResolver, db *gorm.DB, appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authenticate(c, resolver, db, appLogger)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// OptionalAuth loads the user when a valid bearer token is present and lets
// the request through either way. The wallet login route uses it to support
// linking a wallet to an already signed-in account.
func OptionalAuth(resolver *services.IdentityResolver, db *gorm.DB, appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := authenticate(c, resolver, db, appLogger); ok {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, resolver *services.IdentityResolver, db *gorm.DB, appLogger *logger.Logger) (*models.User, bool) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	userID, err := resolver.ParseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		appLogger.Debug("Rejected bearer token", "error", err)
		return nil, false
	}
	user, err := database.FindUserByID(db.WithContext(c.Request.Context()), userID)
	if err != nil {
		appLogger.Error("User lookup failed during authentication", "userId", userID, "error", err)
		return nil, false
	}
	if user == nil {
		return nil, false
	}
	return user, true
}

// currentUser returns the authenticated user set by the auth middleware, or
// nil when the request is anonymous.
func currentUser(c *gin.Context) *models.User {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}
