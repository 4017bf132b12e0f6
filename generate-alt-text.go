package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	altTextSystemPrompt = "You are an expert at writing descriptive, concise alt text for images. " +
		"Provide only the alt text, without any additional explanation or context. " +
		"If the image is decorative, return 'Decorative image ' with a brief description of the image. " +
		"Be concise. You don't need to write complete sentences. The output should be a single line of text."
	altTextUserPrompt = "Please write appropriate alt text for this image:"
	altTextMaxTokens  = 100
)

// AltTextGenerator produces a short description for the image at imageURL
type AltTextGenerator interface {
	GenerateAltText(ctx context.Context, imageURL string) (string, error)
}

// OpenAIGenerator generates alt text with an OpenAI (or compatible) vision chat model
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator from cfg. A non-empty cfg.APIBaseURL points it at a compatible server.
func NewOpenAIGenerator(cfg *Config, httpClient *http.Client) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

// GenerateAltText sends one chat completion request with the image attached
func (g *OpenAIGenerator) GenerateAltText(ctx context.Context, imageURL string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: altTextMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: altTextSystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: altTextUserPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned in response", ErrGeneration)
	}

	altText := cleanAltText(resp.Choices[0].Message.Content)
	if altText == "" {
		return "", fmt.Errorf("%w: model returned empty alt text (finish reason %q)", ErrGeneration, resp.Choices[0].FinishReason)
	}
	return altText, nil
}

// cleanAltText collapses the model output to a single trimmed line without wrapping quotes
func cleanAltText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimPrefix(s, "Alt text:")
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, "'", "`"} {
		if len(s) >= 2 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
