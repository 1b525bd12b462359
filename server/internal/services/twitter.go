package services

import (
	"context"
	"net/http"
	"net/url"

	"nft-vault/shared/apperrors"
	"nft-vault/shared/env"
	"nft-vault/shared/logger"
	"nft-vault/shared/utils"
)

// Twitter's OAuth2 flow mandates PKCE. The challenge/verifier pair and the
// state value are fixed constants shared with the frontend rather than
// per-session random values; kept as-is for compatibility with the deployed
// frontend flow.
const (
	twitterPKCEChallenge = "challenge"
	twitterOAuthState    = "state"
)

type TwitterOAuth struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authBase     string
	apiBase      string
	httpClient   *http.Client
	appLogger    *logger.Logger
}

func NewTwitterOAuth(appLogger *logger.Logger) *TwitterOAuth {
	return &TwitterOAuth{
		clientID:     env.TwitterClientID,
		clientSecret: env.TwitterClientSecret,
		redirectURI:  env.TwitterRedirectURI,
		authBase:     "https://twitter.com/i/oauth2/authorize",
		apiBase:      "https://api.twitter.com/2",
		httpClient:   newOAuthHTTPClient(),
		appLogger:    appLogger,
	}
}

func (t *TwitterOAuth) AuthorizationURL() string {
	u, _ := url.Parse(t.authBase)
	q := u.Query()
	q.Set("client_id", t.clientID)
	q.Set("redirect_uri", t.redirectURI)
	q.Set("scope", "tweet.read users.read offline.access")
	q.Set("response_type", "code")
	q.Set("state", twitterOAuthState)
	q.Set("code_challenge", twitterPKCEChallenge)
	q.Set("code_challenge_method", "plain")
	u.RawQuery = q.Encode()
	return u.String()
}

type twitterTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type twitterUserResponse struct {
	Data struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

// ExchangeCode trades the code for a token using Basic client authentication,
// then fetches the user. Twitter's userinfo carries no email.
func (t *TwitterOAuth) ExchangeCode(ctx context.Context, code string) (VerifiedIdentity, error) {
	if code == "" {
		return VerifiedIdentity{}, apperrors.InvalidInputf("authorization code is required")
	}

	form := url.Values{}
	form.Set("client_id", t.clientID)
	form.Set("redirect_uri", t.redirectURI)
	form.Set("grant_type", "authorization_code")
	form.Set("code_verifier", twitterPKCEChallenge)
	form.Set("code", code)

	var tokenData twitterTokenResponse
	headers := map[string]string{
		"Authorization": "Basic " + utils.BasicAuthToken(t.clientID, t.clientSecret),
	}
	if err := postForm(ctx, t.httpClient, t.apiBase+"/oauth2/token", form, headers, &tokenData); err != nil {
		t.appLogger.Error("Twitter token exchange failed", "error", err)
		return VerifiedIdentity{}, err
	}

	var userData twitterUserResponse
	if err := getJSON(ctx, t.httpClient, t.apiBase+"/users/me", map[string]string{
		"Authorization": "Bearer " + tokenData.AccessToken,
	}, &userData); err != nil {
		t.appLogger.Error("Twitter userinfo call failed", "error", err)
		return VerifiedIdentity{}, err
	}

	t.appLogger.Info("Twitter identity verified", "twitterId", userData.Data.ID)
	return VerifiedIdentity{
		Provider:   ProviderTwitter,
		ExternalID: userData.Data.ID,
		Name:       userData.Data.Name,
	}, nil
}
