package handlers

import (
	"context"
	"net/http"

	"nft-vault/server/internal/services"
	"nft-vault/shared/apperrors"
	"nft-vault/shared/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type oauthLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type walletLoginRequest struct {
	Blockchain    string `json:"blockchain" binding:"required"`
	WalletAddress string `json:"walletAddress" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
	IsLedger      bool   `json:"isLedger"`
}

func registerAuthRoutes(group *gin.RouterGroup, svcs *services.Services, db *gorm.DB, appLogger *logger.Logger) {
	auth := group.Group("/auth")
	{
		auth.GET("/discord/auth-url", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "url": svcs.Discord.AuthorizationURL()})
		})
		auth.POST("/discord/login", oauthLoginHandler(svcs, appLogger, svcs.Discord.ExchangeCode))

		auth.GET("/google/client-id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "clientId": svcs.Google.ClientID()})
		})
		auth.POST("/google/login", oauthLoginHandler(svcs, appLogger, svcs.Google.ExchangeCode))

		auth.GET("/twitter/auth-url", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "url": svcs.Twitter.AuthorizationURL()})
		})
		auth.POST("/twitter/login", oauthLoginHandler(svcs, appLogger, svcs.Twitter.ExchangeCode))

		auth.GET("/facebook/auth-url", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "url": svcs.Facebook.AuthorizationURL()})
		})
		auth.POST("/facebook/login", oauthLoginHandler(svcs, appLogger, svcs.Facebook.ExchangeCode))

		auth.POST("/signup", handleSignup(svcs, appLogger))
		auth.POST("/login", handleLogin(svcs, appLogger))
		auth.POST("/wallet/login", OptionalAuth(svcs.Identity, db, appLogger), handleWalletLogin(svcs, appLogger))
	}
}

type exchangeFunc func(ctx context.Context, code string) (services.VerifiedIdentity, error)

func oauthLoginHandler(svcs *services.Services, appLogger *logger.Logger, exchange exchangeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req oauthLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "authorization code is required"})
			return
		}
		identity, err := exchange(c.Request.Context(), req.Code)
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := svcs.Identity.Resolve(c.Request.Context(), identity, nil)
		if err != nil {
			respondError(c, err)
			return
		}
		token, err := svcs.Identity.IssueToken(user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
	}
}

func handleSignup(svcs *services.Services, appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "email and password are required"})
			return
		}
		_, token, err := svcs.Identity.SignupWithPassword(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
	}
}

func handleLogin(svcs *services.Services, appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "email and password are required"})
			return
		}
		_, token, err := svcs.Identity.LoginWithPassword(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
	}
}

func handleWalletLogin(svcs *services.Services, appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req walletLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "blockchain, walletAddress and signature are required"})
			return
		}
		proof := services.WalletProof{
			Blockchain:    services.Blockchain(req.Blockchain),
			WalletAddress: req.WalletAddress,
			Signature:     req.Signature,
			IsLedger:      req.IsLedger,
		}
		ok, err := svcs.Verifier.Verify(c.Request.Context(), proof)
		if err != nil {
			respondError(c, err)
			return
		}
		if !ok {
			appLogger.Warn("Wallet proof rejected", "blockchain", req.Blockchain, "wallet", req.WalletAddress)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "wallet verification failed"})
			return
		}
		identity := services.VerifiedIdentity{
			Provider:      services.ProviderWallet,
			WalletAddress: req.WalletAddress,
		}
		user, err := svcs.Identity.Resolve(c.Request.Context(), identity, currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		token, err := svcs.Identity.IssueToken(user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.StatusCode(err), gin.H{"success": false, "error": err.Error()})
}
