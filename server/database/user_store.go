package database

import (
	"errors"

	"nft-vault/server/internal/models"

	"gorm.io/gorm"
)

// Lookup helpers return (nil, nil) when no row matches so callers can branch
// into find-or-create without chasing gorm sentinel errors.

func FindUserByID(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByEmail(db *gorm.DB, email string) (*models.User, error) {
	if email == "" {
		return nil, nil
	}
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByWalletAddress(db *gorm.DB, walletAddress string) (*models.User, error) {
	if walletAddress == "" {
		return nil, nil
	}
	var user models.User
	err := db.Where("wallet_address = ?", walletAddress).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByTwitterID(db *gorm.DB, twitterID string) (*models.User, error) {
	if twitterID == "" {
		return nil, nil
	}
	var user models.User
	err := db.Where("twitter_id = ?", twitterID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func SaveUser(db *gorm.DB, user *models.User) error {
	return db.Save(user).Error
}
