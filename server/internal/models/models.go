package models

import (
	"encoding/json"
	"time"
)

// User represents an authenticated user. A user may hold any combination of a
// password credential, social provider ids and a linked wallet address;
// uniqueness is by email, wallet address or provider-scoped id.
type User struct {
	ID            uint      `gorm:"primaryKey"`
	Name          string    `gorm:"default:null"`
	Email         string    `gorm:"index;default:null"`
	Password      string    `gorm:"default:null"` // bcrypt hash, never exposed
	WalletAddress string    `gorm:"index;default:null"`
	DiscordID     string    `gorm:"default:null"`
	GoogleID      string    `gorm:"default:null"`
	TwitterID     string    `gorm:"index;default:null"`
	FacebookID    string    `gorm:"default:null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// InvoiceAsset is one transferred NFT line item on an invoice.
type InvoiceAsset struct {
	Nft            string `json:"nft"`
	CollectionName string `json:"collectionName"`
	TxHash         string `json:"txHash"`
	Amount         string `json:"amount,omitempty"`
}

// Invoice records a completed transfer batch. Assets are stored as a JSONB
// document; rendering/delivery of the invoice happens outside this service.
type Invoice struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;index"`
	Blockchain string    `gorm:"not null"`
	Fees       string    `gorm:"default:null"`
	FeesTxHash string    `gorm:"default:null"`
	Fund       string    `gorm:"default:null"`
	FundTxHash string    `gorm:"default:null"`
	Key        string    `gorm:"uniqueIndex;not null"` // opaque lookup key shared with the buyer
	Assets     string    `gorm:"type:jsonb"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// SetAssets marshals line items into the JSONB column.
func (i *Invoice) SetAssets(assets []InvoiceAsset) error {
	raw, err := json.Marshal(assets)
	if err != nil {
		return err
	}
	i.Assets = string(raw)
	return nil
}

// GetAssets unmarshals the JSONB column back into line items.
func (i *Invoice) GetAssets() ([]InvoiceAsset, error) {
	if i.Assets == "" {
		return nil, nil
	}
	var assets []InvoiceAsset
	if err := json.Unmarshal([]byte(i.Assets), &assets); err != nil {
		return nil, err
	}
	return assets, nil
}
