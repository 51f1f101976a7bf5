// Package runtime defines the interfaces between the model manager and the
// concrete inference backends (ONNX Runtime, OpenAI Images, SD-WebUI).
package runtime

import (
	"context"
	"image"

	"inferd/pkg/types"
)

// Instance is a loaded model runtime. Close releases all resources; an
// instance must not be used after Close returns.
type Instance interface {
	Close() error
}

// GenerateParams captures generation parameters passed to a generator backend.
type GenerateParams struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
	Seed           int64
}

// ImageResult is a generated image returned by a generator backend.
type ImageResult struct {
	// PNG-encoded image bytes.
	PNG    []byte
	Width  int
	Height int
	// Seed actually used, when the backend reports it. 0 means unknown.
	Seed int64
}

// Generator produces images from text prompts.
type Generator interface {
	Instance
	Generate(ctx context.Context, params GenerateParams) (*ImageResult, error)
}

// Classifier assigns ranked labels to a decoded image.
type Classifier interface {
	Instance
	Classify(ctx context.Context, img image.Image, topK int) ([]types.Prediction, error)
}

// Factory opens a runtime instance for a registry model. The manager owns the
// returned instance and closes it when the model is unloaded or swapped out.
type Factory interface {
	Open(ctx context.Context, mdl types.Model) (Instance, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, mdl types.Model) (Instance, error)

// Open implements Factory.
func (f FactoryFunc) Open(ctx context.Context, mdl types.Model) (Instance, error) {
	return f(ctx, mdl)
}
