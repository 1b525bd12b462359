package services

import (
	"context"
	"net/http"
	"net/url"

	"nft-vault/shared/apperrors"
	"nft-vault/shared/env"
	"nft-vault/shared/logger"
)

type FacebookOAuth struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authBase     string
	graphBase    string
	httpClient   *http.Client
	appLogger    *logger.Logger
}

func NewFacebookOAuth(appLogger *logger.Logger) *FacebookOAuth {
	return &FacebookOAuth{
		clientID:     env.FacebookClientID,
		clientSecret: env.FacebookClientSecret,
		redirectURI:  env.FacebookRedirectURI,
		authBase:     "https://www.facebook.com/v18.0/dialog/oauth",
		graphBase:    "https://graph.facebook.com/v18.0",
		httpClient:   newOAuthHTTPClient(),
		appLogger:    appLogger,
	}
}

func (f *FacebookOAuth) AuthorizationURL() string {
	u, _ := url.Parse(f.authBase)
	q := u.Query()
	q.Set("client_id", f.clientID)
	q.Set("redirect_uri", f.redirectURI)
	q.Set("scope", "email,public_profile")
	q.Set("response_type", "code")
	u.RawQuery = q.Encode()
	return u.String()
}

type facebookTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type facebookUserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ExchangeCode trades the code for an access token. Facebook's token endpoint
// takes its parameters as a GET query string rather than a form body.
func (f *FacebookOAuth) ExchangeCode(ctx context.Context, code string) (VerifiedIdentity, error) {
	if code == "" {
		return VerifiedIdentity{}, apperrors.InvalidInputf("authorization code is required")
	}

	tokenURL, _ := url.Parse(f.graphBase + "/oauth/access_token")
	q := tokenURL.Query()
	q.Set("client_id", f.clientID)
	q.Set("client_secret", f.clientSecret)
	q.Set("redirect_uri", f.redirectURI)
	q.Set("code", code)
	tokenURL.RawQuery = q.Encode()

	var tokenData facebookTokenResponse
	if err := getJSON(ctx, f.httpClient, tokenURL.String(), nil, &tokenData); err != nil {
		f.appLogger.Error("Facebook token exchange failed", "error", err)
		return VerifiedIdentity{}, err
	}

	var userData facebookUserResponse
	if err := getJSON(ctx, f.httpClient, f.graphBase+"/me?fields=id,name,email", map[string]string{
		"Authorization": "Bearer " + tokenData.AccessToken,
	}, &userData); err != nil {
		f.appLogger.Error("Facebook userinfo call failed", "error", err)
		return VerifiedIdentity{}, err
	}

	f.appLogger.Info("Facebook identity verified", "facebookId", userData.ID)
	return VerifiedIdentity{
		Provider:   ProviderFacebook,
		ExternalID: userData.ID,
		Email:      userData.Email,
		Name:       userData.Name,
	}, nil
}
