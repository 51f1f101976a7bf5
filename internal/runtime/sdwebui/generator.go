// Package sdwebui generates images through an AUTOMATIC1111-compatible
// Stable Diffusion WebUI endpoint (POST /sdapi/v1/txt2img).
package sdwebui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	rt "inferd/internal/runtime"
)

const (
	txt2imgPath    = "/sdapi/v1/txt2img"
	defaultTimeout = 5 * time.Minute
)

// Generator is a remote text-to-image backend for a self-hosted diffusion server.
type Generator struct {
	baseURL string
	client  *http.Client
}

// New builds a generator for the given base URL. A zero timeout uses the
// package default; diffusion runs are slow, so the default is generous.
func New(baseURL string, timeout time.Duration) (*Generator, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("sdwebui backend requires a base URL")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Generator{baseURL: baseURL, client: &http.Client{Timeout: timeout}}, nil
}

type txt2imgRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Steps          int    `json:"steps,omitempty"`
	Seed           int64  `json:"seed,omitempty"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
	// Info is a JSON-encoded string carrying the effective parameters.
	Info string `json:"info"`
}

// Generate posts the prompt to the txt2img endpoint and decodes the first image.
func (g *Generator) Generate(ctx context.Context, params rt.GenerateParams) (*rt.ImageResult, error) {
	body, err := json.Marshal(txt2imgRequest{
		Prompt:         params.Prompt,
		NegativePrompt: params.NegativePrompt,
		Width:          params.Width,
		Height:         params.Height,
		Steps:          params.Steps,
		Seed:           params.Seed,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+txt2imgPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sdwebui request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sdwebui status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out txt2imgResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("sdwebui response: %w", err)
	}
	if len(out.Images) == 0 {
		return nil, fmt.Errorf("sdwebui returned no images")
	}
	raw, err := base64.StdEncoding.DecodeString(out.Images[0])
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("inspect generated image: %w", err)
	}
	res := &rt.ImageResult{PNG: raw, Width: cfg.Width, Height: cfg.Height}
	res.Seed = seedFromInfo(out.Info)
	return res, nil
}

// Close is a no-op; connections are pooled by the shared transport.
func (g *Generator) Close() error { return nil }

// seedFromInfo extracts the effective seed from the info payload, if present.
func seedFromInfo(info string) int64 {
	if info == "" {
		return 0
	}
	var meta struct {
		Seed int64 `json:"seed"`
	}
	if err := json.Unmarshal([]byte(info), &meta); err != nil {
		return 0
	}
	return meta.Seed
}
