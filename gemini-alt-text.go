package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// 20MB is the inline request limit for Gemini
const maxInlineImageBytes = 20 << 20

// GeminiGenerator generates alt text with a Gemini vision model. The image is downloaded and sent inline.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	http   *http.Client
}

// NewGeminiGenerator creates the Gemini client. cfg.APIBaseURL, when set, replaces the
// generativelanguage.googleapis.com endpoint. httpClient is used for image downloads only.
// Call Close when the run is done.
func NewGeminiGenerator(ctx context.Context, cfg *Config, httpClient *http.Client) (*GeminiGenerator, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.APIBaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.APIBaseURL, "/")))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetMaxOutputTokens(altTextMaxTokens)
	model.SetTemperature(0.2)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(altTextSystemPrompt)},
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiGenerator{client: client, model: model, http: httpClient}, nil
}

// Close releases the underlying Gemini client
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// GenerateAltText downloads the image and asks the model to describe it
func (g *GeminiGenerator) GenerateAltText(ctx context.Context, imageURL string) (string, error) {
	data, format, err := fetchImage(ctx, g.http, imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(altTextUserPrompt), genai.ImageData(format, data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates returned in response, possible safety filter", ErrGeneration)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	altText := cleanAltText(sb.String())
	if altText == "" {
		return "", fmt.Errorf("%w: model returned empty alt text", ErrGeneration)
	}
	return altText, nil
}

// fetchImage downloads an image and returns its bytes with the image format ("jpeg", "png", ...)
func fetchImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("error creating image request: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInlineImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %v", err)
	}
	if len(data) > maxInlineImageBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", maxInlineImageBytes)
	}

	format := imageFormat(resp.Header.Get("Content-Type"), imageURL, data)
	if format == "" {
		return nil, "", fmt.Errorf("unsupported image type at %s", imageURL)
	}
	return data, format, nil
}

// imageFormat resolves the subtype used by genai.ImageData from the content type,
// falling back to the URL extension and then content sniffing
func imageFormat(contentType, imageURL string, data []byte) string {
	candidates := []string{contentType}
	if ext := path.Ext(strings.SplitN(imageURL, "?", 2)[0]); ext != "" {
		candidates = append(candidates, mime.TypeByExtension(strings.ToLower(ext)))
	}
	candidates = append(candidates, http.DetectContentType(data))

	for _, c := range candidates {
		mediaType, _, err := mime.ParseMediaType(c)
		if err != nil {
			continue
		}
		if sub, ok := strings.CutPrefix(mediaType, "image/"); ok && sub != "" {
			return sub
		}
	}
	return ""
}
