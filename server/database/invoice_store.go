package database

import (
	"errors"

	"nft-vault/server/internal/models"

	"gorm.io/gorm"
)

func CreateInvoice(db *gorm.DB, invoice *models.Invoice) error {
	return db.Create(invoice).Error
}

func FindInvoiceByKey(db *gorm.DB, key string) (*models.Invoice, error) {
	if key == "" {
		return nil, nil
	}
	var invoice models.Invoice
	err := db.Where("key = ?", key).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func ListInvoicesByUser(db *gorm.DB, userID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
