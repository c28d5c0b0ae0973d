package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

const blackboxBaseURL = "https://api.blackbox.ai"

// blackboxClassifier scores text through the Blackbox.ai OpenAI-compatible
// chat completions endpoint.
type blackboxClassifier struct {
	apiKey     string
	baseURL    string
	model      string
	prompts    PromptSource
	httpClient *http.Client
	logger     *zap.Logger
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func newBlackboxClassifier(p models.Provider, prompts PromptSource, logger *zap.Logger) *blackboxClassifier {
	model := p.Model
	if model == "" {
		model = "blackboxai"
	}
	return &blackboxClassifier{
		apiKey:     p.APIKey,
		baseURL:    blackboxBaseURL,
		model:      model,
		prompts:    prompts,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (c *blackboxClassifier) ClassifyText(ctx context.Context, text string) (float64, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(ctx, c.prompts, text)},
		},
		MaxTokens: 10,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("blackbox API error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Body text feeds the error classifier; quota and rate-limit
		// phrasing must survive into the error message.
		return 0, fmt.Errorf("blackbox API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return 0, fmt.Errorf("empty response from blackbox")
	}

	return parseScore(chatResp.Choices[0].Message.Content)
}
