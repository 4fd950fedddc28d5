// internal/common/links/client.go
package links

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	commonhttp "docflow-workers/internal/common/http"
)

// Client talks to the link-provisioning service that issues authorized form
// access tokens and shortened URLs. Only first-contact sends hit this service;
// the resulting link is persisted on the submission and reused afterwards.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *commonhttp.Client
}

type provisionRequest struct {
	Phone    string `json:"phone"`
	FormType string `json:"formType"`
}

type provisionResponse struct {
	ShortURL string `json:"shortUrl"`
	Token    string `json:"token,omitempty"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: commonhttp.NewClient(timeout),
	}
}

// CreateAuthorizedShortLink provisions an access-token-bearing form link for
// the given phone/form-type pair and returns the shortened URL.
func (c *Client) CreateAuthorizedShortLink(ctx context.Context, phone, formType string) (string, error) {
	url := fmt.Sprintf("%s/v1/links", c.baseURL)

	jsonData, err := json.Marshal(provisionRequest{Phone: phone, FormType: formType})
	if err != nil {
		return "", fmt.Errorf("failed to marshal link request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to provision link (status %d): %s", resp.StatusCode, string(body))
	}

	var linkResp provisionResponse
	if err := json.Unmarshal(body, &linkResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if linkResp.ShortURL == "" {
		return "", fmt.Errorf("link provisioning returned no url: %s", linkResp.Message)
	}

	return linkResp.ShortURL, nil
}
