package services

import (
	"context"
	"net/http"

	"nft-vault/shared/apperrors"
	"nft-vault/shared/env"
	"nft-vault/shared/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleOAuth exchanges one-time authorization codes obtained by the frontend
// popup flow. The "postmessage" redirect is the fixed value Google assigns to
// that flow.
type GoogleOAuth struct {
	config      oauth2.Config
	userinfoURL string
	httpClient  *http.Client
	appLogger   *logger.Logger
}

func NewGoogleOAuth(appLogger *logger.Logger) *GoogleOAuth {
	return &GoogleOAuth{
		config: oauth2.Config{
			ClientID:     env.GoogleClientID,
			ClientSecret: env.GoogleClientSecret,
			RedirectURL:  "postmessage",
			Endpoint:     google.Endpoint,
		},
		userinfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		httpClient:  newOAuthHTTPClient(),
		appLogger:   appLogger,
	}
}

// ClientID exposes the public client id for the frontend.
func (g *GoogleOAuth) ClientID() string {
	return g.config.ClientID
}

type googleUserResponse struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (g *GoogleOAuth) ExchangeCode(ctx context.Context, code string) (VerifiedIdentity, error) {
	if code == "" {
		return VerifiedIdentity{}, apperrors.InvalidInputf("authorization code is required")
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		g.appLogger.Error("Google token exchange failed", "error", err)
		if _, ok := err.(*oauth2.RetrieveError); ok {
			return VerifiedIdentity{}, apperrors.UpstreamRejected("google token endpoint", err.Error())
		}
		return VerifiedIdentity{}, apperrors.UpstreamUnavailable("google token endpoint", err)
	}

	var userData googleUserResponse
	headers := map[string]string{"Authorization": "Bearer " + token.AccessToken}
	if err := getJSON(ctx, g.httpClient, g.userinfoURL, headers, &userData); err != nil {
		g.appLogger.Error("Google userinfo call failed", "error", err)
		return VerifiedIdentity{}, err
	}

	g.appLogger.Info("Google identity verified", "googleId", userData.Sub)
	return VerifiedIdentity{
		Provider:   ProviderGoogle,
		ExternalID: userData.Sub,
		Email:      userData.Email,
		Name:       userData.Name,
	}, nil
}
