package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"nft-vault/shared/apperrors"
	"nft-vault/shared/env"
	"nft-vault/shared/logger"
)

type DiscordOAuth struct {
	clientID     string
	clientSecret string
	redirectURI  string
	apiBase      string
	httpClient   *http.Client
	appLogger    *logger.Logger
}

func NewDiscordOAuth(appLogger *logger.Logger) *DiscordOAuth {
	return &DiscordOAuth{
		clientID:     env.DiscordClientID,
		clientSecret: env.DiscordClientSecret,
		redirectURI:  env.DiscordRedirectURI,
		apiBase:      "https://discord.com/api",
		httpClient:   newOAuthHTTPClient(),
		appLogger:    appLogger,
	}
}

// AuthorizationURL builds the consent-screen URL the frontend redirects to.
func (d *DiscordOAuth) AuthorizationURL() string {
	u, _ := url.Parse(d.apiBase + "/oauth2/authorize")
	q := u.Query()
	q.Set("client_id", d.clientID)
	q.Set("redirect_uri", d.redirectURI)
	q.Set("scope", "identify email")
	q.Set("response_type", "code")
	u.RawQuery = q.Encode()
	return u.String()
}

type discordTokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
}

type discordUserResponse struct {
	ID         string `json:"id"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
}

// ExchangeCode trades the authorization code for an access token and fetches
// the user's profile.
func (d *DiscordOAuth) ExchangeCode(ctx context.Context, code string) (VerifiedIdentity, error) {
	if code == "" {
		return VerifiedIdentity{}, apperrors.InvalidInputf("authorization code is required")
	}

	form := url.Values{}
	form.Set("client_id", d.clientID)
	form.Set("client_secret", d.clientSecret)
	form.Set("redirect_uri", d.redirectURI)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)

	var tokenData discordTokenResponse
	if err := postForm(ctx, d.httpClient, d.apiBase+"/oauth2/token", form, nil, &tokenData); err != nil {
		d.appLogger.Error("Discord token exchange failed", "error", err)
		return VerifiedIdentity{}, err
	}

	var userData discordUserResponse
	headers := map[string]string{
		"Authorization": fmt.Sprintf("%s %s", tokenData.TokenType, tokenData.AccessToken),
	}
	if err := getJSON(ctx, d.httpClient, d.apiBase+"/users/@me", headers, &userData); err != nil {
		d.appLogger.Error("Discord userinfo call failed", "error", err)
		return VerifiedIdentity{}, err
	}

	d.appLogger.Info("Discord identity verified", "discordId", userData.ID)
	return VerifiedIdentity{
		Provider:   ProviderDiscord,
		ExternalID: userData.ID,
		Email:      userData.Email,
		Name:       userData.GlobalName,
	}, nil
}
