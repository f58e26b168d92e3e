package recognizer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI recognizes content through any OpenAI-compatible chat
// completion endpoint. DashScope exposes the Qwen models this way.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-compatible recognizer. baseURL, if set,
// points at the provider root; the "/v1" suffix is appended when
// missing because the SDK expects the full prefix.
func NewOpenAI(model, apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		baseURL = strings.TrimSuffix(baseURL, "/")
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL += "/v1"
		}
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

// RecognizeImage implements extract.Recognizer. The image travels
// inline as a base64 data URL.
func (o *OpenAI) RecognizeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: imagePrompt,
					},
				},
			},
		},
	}
	return o.complete(ctx, req)
}

// RecognizeText implements extract.Recognizer.
func (o *OpenAI) RecognizeText(ctx context.Context, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: textPrompt(text),
			},
		},
	}
	return o.complete(ctx, req)
}

func (o *OpenAI) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("complete: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("complete: empty choices from model %s", o.model)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("complete: empty response from model %s", o.model)
	}
	return content, nil
}
