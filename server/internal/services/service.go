package services

import (
	"fmt"

	"nft-vault/shared/logger"

	"gorm.io/gorm"
)

// Services bundles the long-lived service handles the handlers depend on.
// Everything here is constructed once at startup and safe for concurrent use.
type Services struct {
	Verifier *WalletVerifier
	Discord  *DiscordOAuth
	Google   *GoogleOAuth
	Twitter  *TwitterOAuth
	Facebook *FacebookOAuth
	Nfts     *NftAggregator
	Identity *IdentityResolver
}

func NewServices(db *gorm.DB, appLogger *logger.Logger) (*Services, error) {
	verifier, err := NewWalletVerifier(appLogger)
	if err != nil {
		return nil, fmt.Errorf("initialising wallet verifier: %w", err)
	}
	identity, err := NewIdentityResolver(db, appLogger)
	if err != nil {
		return nil, fmt.Errorf("initialising identity resolver: %w", err)
	}
	return &Services{
		Verifier: verifier,
		Discord:  NewDiscordOAuth(appLogger),
		Google:   NewGoogleOAuth(appLogger),
		Twitter:  NewTwitterOAuth(appLogger),
		Facebook: NewFacebookOAuth(appLogger),
		Nfts:     NewNftAggregator(appLogger),
		Identity: identity,
	}, nil
}
