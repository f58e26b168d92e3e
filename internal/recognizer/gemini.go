// Package recognizer provides the model backends that turn screenshots
// and free text into raw field JSON. Two backends exist: Gemini via
// the Google GenAI SDK and any OpenAI-compatible endpoint, which is
// how DashScope's Qwen models are reached.
package recognizer

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/chatledger/chatledger/internal/config"
	"github.com/chatledger/chatledger/internal/extract"
)

// Gemini recognizes content through the Google GenAI API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed recognizer. An empty apiKey falls
// back to the SDK's own environment lookup.
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// RecognizeImage implements extract.Recognizer.
func (g *Gemini) RecognizeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: imagePrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		},
	}
	return g.generate(ctx, contents)
}

// RecognizeText implements extract.Recognizer.
func (g *Gemini) RecognizeText(ctx context.Context, text string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: textPrompt(text)}},
		},
	}
	return g.generate(ctx, contents)
}

func (g *Gemini) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate: generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return "", fmt.Errorf("generate: empty response from model %s", g.model)
	}
	return raw, nil
}

// New builds the recognizer named by the config. Unknown providers are
// a configuration error, not a silent default.
func New(ctx context.Context, cfg config.RecognizerConfig) (extract.Recognizer, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.Model, cfg.APIKey)
	case "openai":
		return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("New: unknown recognizer provider %q", cfg.Provider)
	}
}
