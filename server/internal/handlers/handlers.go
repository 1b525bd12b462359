package handlers

import (
	"net/http"

	"nft-vault/server/internal/services"
	"nft-vault/shared/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterRoutes(router *gin.Engine, appLogger *logger.Logger) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is running."})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func RegisterAPIRoutes(router *gin.Engine, svcs *services.Services, db *gorm.DB, appLogger *logger.Logger) {
	apiGroup := router.Group("/api")
	registerAuthRoutes(apiGroup, svcs, db, appLogger)
	registerUserRoutes(apiGroup, svcs, db, appLogger)
}
