// Package factory wires registry models to their concrete runtime backends.
package factory

import (
	"context"
	"fmt"
	"time"

	rt "inferd/internal/runtime"
	"inferd/internal/runtime/onnx"
	"inferd/internal/runtime/openaigen"
	"inferd/internal/runtime/sdwebui"
	"inferd/pkg/types"
)

// Options carries backend construction settings resolved from config.
type Options struct {
	// ONNX Runtime shared library path; empty uses the platform default.
	ONNXLibraryPath string
	// Intra-op thread count for ONNX sessions.
	ONNXThreads int
	// Resolved OpenAI API key; empty disables the openai backend.
	OpenAIAPIKey string
	// Per-request timeout for sdwebui calls. Zero uses the backend default.
	SDWebUITimeout time.Duration
}

// New returns a Factory that opens the right runtime for each model's backend.
func New(opts Options) rt.Factory {
	return rt.FactoryFunc(func(ctx context.Context, mdl types.Model) (rt.Instance, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch mdl.Backend {
		case types.BackendONNX:
			return onnx.NewClassifier(mdl, onnx.Config{
				LibraryPath: opts.ONNXLibraryPath,
				Threads:     opts.ONNXThreads,
			})
		case types.BackendOpenAI:
			return openaigen.New(opts.OpenAIAPIKey, mdl.RemoteModel)
		case types.BackendSDWebUI:
			return sdwebui.New(mdl.BaseURL, opts.SDWebUITimeout)
		default:
			return nil, fmt.Errorf("unsupported backend %q for model %s", mdl.Backend, mdl.ID)
		}
	})
}
