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

const huggingFaceBaseURL = "https://api-inference.huggingface.co/models/"

// abusiveLabel is the zero-shot candidate whose score is the abuse
// probability.
const abusiveLabel = "رسالة مسيئة أو شتم أو تحرش"
const normalLabel = "رسالة عادية"

const maxZeroShotText = 1000

// huggingFaceClassifier scores text with a zero-shot classification model on
// the HuggingFace Inference API.
type huggingFaceClassifier struct {
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

type zeroShotRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		CandidateLabels []string `json:"candidate_labels"`
	} `json:"parameters"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func newHuggingFaceClassifier(p models.Provider, logger *zap.Logger) *huggingFaceClassifier {
	return &huggingFaceClassifier{
		apiKey:     p.APIKey,
		model:      p.Model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (c *huggingFaceClassifier) ClassifyText(ctx context.Context, text string) (float64, error) {
	runes := []rune(text)
	if len(runes) > maxZeroShotText {
		text = string(runes[:maxZeroShotText])
	}

	var reqBody zeroShotRequest
	reqBody.Inputs = text
	reqBody.Parameters.CandidateLabels = []string{normalLabel, abusiveLabel}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, huggingFaceBaseURL+c.model, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("huggingface API error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("huggingface API returned status %d: %s", resp.StatusCode, string(body))
	}

	var zsResp zeroShotResponse
	if err := json.Unmarshal(body, &zsResp); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	for i, label := range zsResp.Labels {
		if label == abusiveLabel && i < len(zsResp.Scores) {
			return clamp(zsResp.Scores[i]), nil
		}
	}
	return 0.0, nil
}
