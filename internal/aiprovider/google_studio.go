package aiprovider

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/twuijri/Vex/internal/models"
)

// googleStudioClassifier scores text with a Gemini model via Google AI Studio.
type googleStudioClassifier struct {
	apiKey  string
	model   string
	prompts PromptSource
	logger  *zap.Logger
}

func newGoogleStudioClassifier(p models.Provider, prompts PromptSource, logger *zap.Logger) *googleStudioClassifier {
	model := p.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &googleStudioClassifier{
		apiKey:  p.APIKey,
		model:   model,
		prompts: prompts,
		logger:  logger,
	}
}

func (c *googleStudioClassifier) ClassifyText(ctx context.Context, text string) (float64, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return 0, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.model)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.0),
		MaxOutputTokens: genai.Ptr[int32](10),
	}

	prompt := buildPrompt(ctx, c.prompts, text)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return 0, fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return 0, fmt.Errorf("empty response from gemini")
	}

	part, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return 0, fmt.Errorf("unexpected response type from gemini")
	}

	return parseScore(string(part))
}
