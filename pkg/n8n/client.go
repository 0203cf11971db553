package n8n

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the externally configured n8n automation service.
// Calls are best effort: the platform records the attempt and moves on.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// WebhookResult captures the outcome of one webhook call
type WebhookResult struct {
	Success      bool
	StatusCode   int
	ResponseBody string
	ExecutionID  string
	Duration     time.Duration
	Error        string
}

// executeResponse is the envelope n8n returns for workflow executions
type executeResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewClient creates an n8n client instance
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// WebhookURL returns the full URL for a named webhook endpoint
func (c *Client) WebhookURL(webhookPath string) string {
	return fmt.Sprintf("%s/webhook/%s", c.BaseURL, webhookPath)
}

// TriggerWebhook posts the payload to a named n8n webhook endpoint.
// All failures are folded into the result rather than returned as errors so
// callers can log the attempt without branching on transport problems.
func (c *Client) TriggerWebhook(webhookPath string, payload map[string]interface{}) *WebhookResult {
	return c.post(c.WebhookURL(webhookPath), payload)
}

// ExecuteWorkflow triggers an n8n workflow by its ID through the REST API
func (c *Client) ExecuteWorkflow(workflowID string, data map[string]interface{}) *WebhookResult {
	payload := map[string]interface{}{
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	return c.post(fmt.Sprintf("%s/api/v1/workflows/%s/execute", c.BaseURL, workflowID), payload)
}

func (c *Client) post(url string, payload map[string]interface{}) *WebhookResult {
	start := time.Now()
	result := &WebhookResult{}

	body, err := json.Marshal(payload)
	if err != nil {
		result.Error = fmt.Sprintf("failed to encode payload: %v", err)
		result.Duration = time.Since(start)
		return result
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		result.Error = fmt.Sprintf("failed to build request: %v", err)
		result.Duration = time.Since(start)
		return result
	}

	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	result.Duration = time.Since(start)
	result.StatusCode = resp.StatusCode
	if err != nil {
		result.Error = fmt.Sprintf("failed to read response: %v", err)
		return result
	}
	result.ResponseBody = string(respBody)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody))
		return result
	}

	var exec executeResponse
	if err := json.Unmarshal(respBody, &exec); err == nil {
		result.ExecutionID = exec.Data.ID
	}

	result.Success = true
	return result
}
