package handlers

import (
	"net/http"
	"strings"

	"nft-vault/server/database"
	"nft-vault/server/internal/models"
	"nft-vault/server/internal/services"
	"nft-vault/shared/apperrors"
	"nft-vault/shared/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type invoiceAssetRequest struct {
	Nft            string `json:"nft" binding:"required"`
	CollectionName string `json:"collectionName" binding:"required"`
	TxHash         string `json:"txHash" binding:"required"`
}

type generateInvoiceRequest struct {
	Blockchain string                `json:"blockchain" binding:"required,oneof=SOLANA ETHEREUM"`
	Fees       string                `json:"fees" binding:"required"`
	FeesTxHash string                `json:"feesTxHash" binding:"required"`
	Fund       string                `json:"fund"`
	FundTxHash string                `json:"fundTxHash"`
	Assets     []invoiceAssetRequest `json:"assets" binding:"required,dive"`
}

type addEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Key   string `json:"key" binding:"required"`
}

func registerUserRoutes(group *gin.RouterGroup, svcs *services.Services, db *gorm.DB, appLogger *logger.Logger) {
	user := group.Group("/user", RequireAuth(svcs.Identity, db, appLogger))
	{
		user.GET("/nfts", handleListNfts(svcs, appLogger))
		user.GET("/invoices", handleListInvoices(db, appLogger))
		user.POST("/invoices", handleGenerateInvoice(db, appLogger))
		user.POST("/invoices/add-email", handleAddEmail(db, appLogger))
	}
}

// handleListNfts returns the authenticated user's NFT holdings on the
// requested chain, grouped by collection. `key` is an optional
// case-insensitive name filter.
func handleListNfts(svcs *services.Services, appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user.WalletAddress == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no wallet linked to this account"})
			return
		}
		blockchain := services.Blockchain(strings.ToUpper(c.Query("blockchain")))
		nameFilter := c.Query("key")

		inventory, err := svcs.Nfts.ListNFTs(c.Request.Context(), blockchain, user.WalletAddress, nameFilter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": inventory})
	}
}

func handleListInvoices(db *gorm.DB, appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		invoices, err := database.ListInvoicesByUser(db.WithContext(c.Request.Context()), user.ID)
		if err != nil {
			appLogger.Error("Invoice listing failed", "userId", user.ID, "error", err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": invoices})
	}
}

func handleGenerateInvoice(db *gorm.DB, appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateInvoiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid invoice payload"})
			return
		}
		user := currentUser(c)

		assets := make([]models.InvoiceAsset, 0, len(req.Assets))
		for _, a := range req.Assets {
			assets = append(assets, models.InvoiceAsset{
				Nft:            a.Nft,
				CollectionName: a.CollectionName,
				TxHash:         a.TxHash,
			})
		}
		invoice := &models.Invoice{
			UserID:     user.ID,
			Blockchain: req.Blockchain,
			Fees:       req.Fees,
			FeesTxHash: req.FeesTxHash,
			Fund:       req.Fund,
			FundTxHash: req.FundTxHash,
			Key:        uuid.NewString(),
		}
		if err := invoice.SetAssets(assets); err != nil {
			appLogger.Error("Failed to encode invoice assets", "userId", user.ID, "error", err)
			respondError(c, err)
			return
		}
		if err := database.CreateInvoice(db.WithContext(c.Request.Context()), invoice); err != nil {
			appLogger.Error("Invoice creation failed", "userId", user.ID, "error", err)
			respondError(c, err)
			return
		}
		appLogger.Info("Invoice created", "userId", user.ID, "invoiceKey", invoice.Key)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"key": invoice.Key}})
	}
}

// handleAddEmail attaches an email address to the user behind an invoice key,
// so a wallet-only account can receive its invoice.
func handleAddEmail(db *gorm.DB, appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "email and key are required"})
			return
		}
		ctxDB := db.WithContext(c.Request.Context())

		invoice, err := database.FindInvoiceByKey(ctxDB, req.Key)
		if err != nil {
			respondError(c, err)
			return
		}
		if invoice == nil {
			respondError(c, apperrors.NotFoundf("no invoice for key %s", req.Key))
			return
		}
		user, err := database.FindUserByID(ctxDB, invoice.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		if user == nil {
			respondError(c, apperrors.NotFoundf("invoice owner no longer exists"))
			return
		}
		user.Email = req.Email
		if err := database.SaveUser(ctxDB, user); err != nil {
			appLogger.Error("Failed to save user email", "userId", user.ID, "error", err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
