package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTP scores tasks through a chat-completions style JSON endpoint, such as
// a local model server or a hosted API.
type HTTP struct {
	endpoint  string
	model     string
	apiKey    string
	baseValue float64
	client    *http.Client
}

// NewHTTP returns an HTTP scorer. Deadlines come from the context passed to
// Score.
func NewHTTP(endpoint, model, apiKey string, baseValue float64) *HTTP {
	return &HTTP{
		endpoint:  endpoint,
		model:     model,
		apiKey:    apiKey,
		baseValue: baseValue,
		client:    &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatResponse represents the subset of the reply we read.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Score asks the endpoint for a point value.
func (h *HTTP) Score(ctx context.Context, taskText string, tags []string) (int, error) {
	body, err := json.Marshal(chatRequest{
		Model:    h.model,
		Messages: []chatMessage{{Role: "user", Content: Prompt(taskText, tags, h.baseValue)}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", h.apiKey))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call scorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("scorer returned status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return 0, fmt.Errorf("%w: empty choices", ErrNoScore)
	}
	return ParseScore(chatResp.Choices[0].Message.Content)
}
