package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nft-vault/shared/apperrors"
)

// Shared plumbing for the provider adapters. Each adapter performs a two-step
// exchange: authorization code for an access token, then access token for a
// profile, normalized into VerifiedIdentity. A non-2xx answer from the
// provider is a rejection of the supplied code or token; a transport failure
// means the provider could not be reached at all, and the two are surfaced as
// distinct error kinds.

func newOAuthHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// postForm sends a form-encoded POST and decodes the JSON answer into out.
func postForm(ctx context.Context, client *http.Client, endpoint string, form url.Values, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return doJSON(client, req, out)
}

// getJSON sends a GET and decodes the JSON answer into out.
func getJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return doJSON(client, req, out)
}

func doJSON(client *http.Client, req *http.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return apperrors.UpstreamUnavailable(req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.UpstreamUnavailable(req.URL.Host, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.UpstreamRejected(req.URL.Host, fmt.Sprintf("status %d: %s", resp.StatusCode, truncateBody(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.UpstreamUnavailable(req.URL.Host, fmt.Errorf("unexpected response payload: %w", err))
	}
	return nil
}

func truncateBody(body []byte) string {
	const max = 256
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
