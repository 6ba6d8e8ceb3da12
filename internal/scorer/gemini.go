package scorer

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini scores tasks with Google's Gemini API.
type Gemini struct {
	client    *genai.Client
	model     string
	baseValue float64
}

// NewGemini creates a Gemini scorer.
func NewGemini(ctx context.Context, apiKey, model string, baseValue float64) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model, baseValue: baseValue}, nil
}

// Score asks the model for a point value.
func (g *Gemini) Score(ctx context.Context, taskText string, tags []string) (int, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(Prompt(taskText, tags, g.baseValue)),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0),
		},
	)
	if err != nil {
		return 0, fmt.Errorf("GenAI generate failed: %w", err)
	}
	return ParseScore(result.Text())
}
