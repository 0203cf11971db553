package mailauth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the external email-provider authentication collaborator.
// The platform never implements OAuth itself; it exchanges codes, refreshes
// and revokes tokens through this service and stores the returned credentials.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// TokenResult is the collaborator's response envelope
type TokenResult struct {
	Success      bool   `json:"success"`
	Provider     string `json:"provider,omitempty"`
	Email        string `json:"email,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NewClient creates a mail auth client instance
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// ExchangeCode swaps an OAuth authorization code for provider tokens
func (c *Client) ExchangeCode(provider, code string) (*TokenResult, error) {
	return c.call("/connect", map[string]string{
		"provider": provider,
		"code":     code,
	})
}

// RefreshToken obtains a fresh access token for a connected provider
func (c *Client) RefreshToken(provider, refreshToken string) (*TokenResult, error) {
	return c.call("/refresh", map[string]string{
		"provider":      provider,
		"refresh_token": refreshToken,
	})
}

// Revoke invalidates the provider tokens on disconnect
func (c *Client) Revoke(provider, accessToken string) (*TokenResult, error) {
	return c.call("/revoke", map[string]string{
		"provider":     provider,
		"access_token": accessToken,
	})
}

func (c *Client) call(path string, payload map[string]string) (*TokenResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result TokenResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unexpected response from mail auth service: %d %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode >= 400 && result.Error == "" {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	return &result, nil
}
