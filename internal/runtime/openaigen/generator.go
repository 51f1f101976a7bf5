// Package openaigen generates images through the OpenAI Images API.
package openaigen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	rt "inferd/internal/runtime"
)

const defaultModel = "gpt-image-1"

// Generator is a remote text-to-image backend backed by the OpenAI client.
type Generator struct {
	client openai.Client
	model  string
}

// New builds a generator for the given remote model name. The API key must be
// resolved by the caller (config decides which env var holds it).
func New(apiKey, model string, opts ...option.RequestOption) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai backend requires an API key")
	}
	if model == "" {
		model = defaultModel
	}
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Generator{client: openai.NewClient(all...), model: model}, nil
}

// Generate requests a single image and returns its decoded PNG payload.
func (g *Generator) Generate(ctx context.Context, params rt.GenerateParams) (*rt.ImageResult, error) {
	req := openai.ImageGenerateParams{
		Prompt: params.Prompt,
		Model:  openai.ImageModel(g.model),
		N:      openai.Int(1),
		Size:   sizeParam(params.Width, params.Height),
	}
	if strings.HasPrefix(g.model, "dall-e") {
		// gpt-image models always return base64; dall-e needs to be asked.
		req.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}
	resp, err := g.client.Images.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai images: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai images: empty response")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("inspect generated image: %w", err)
	}
	return &rt.ImageResult{PNG: raw, Width: cfg.Width, Height: cfg.Height}, nil
}

// Close is a no-op; the client holds no long-lived resources.
func (g *Generator) Close() error { return nil }

// sizeParam maps requested dimensions onto the sizes the API accepts.
func sizeParam(w, h int) openai.ImageGenerateParamsSize {
	if w == h {
		switch {
		case w > 0 && w <= 256:
			return openai.ImageGenerateParamsSize256x256
		case w > 0 && w <= 512:
			return openai.ImageGenerateParamsSize512x512
		case w > 0 && w <= 1024:
			return openai.ImageGenerateParamsSize1024x1024
		}
	}
	if w > h && h > 0 {
		return openai.ImageGenerateParamsSize1536x1024
	}
	if h > w && w > 0 {
		return openai.ImageGenerateParamsSize1024x1536
	}
	return openai.ImageGenerateParamsSize1024x1024
}
