package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash-exp"

// Oracle produces a free-form text completion for a scoring prompt. The
// matcher depends on this interface so tests can substitute a fake.
type Oracle interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Gemini is the production Oracle backed by the Google GenAI API.
type Gemini struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

// NewGemini creates a Gemini oracle for the given API key. Model defaults to
// gemini-2.0-flash-exp when empty.
func NewGemini(ctx context.Context, apiKey, model string, temperature float32) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Gemini{client: client, modelName: model, temperature: temperature}, nil
}

// GenerateContent sends the prompt and concatenates the textual parts of all
// candidates into a single string.
func (g *Gemini) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini oracle is not initialized")
	}

	temp := g.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: 2048,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return out, nil
}

// Model reports the configured model name.
func (g *Gemini) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
