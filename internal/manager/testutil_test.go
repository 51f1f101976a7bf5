package manager

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	rt "inferd/internal/runtime"
	"inferd/pkg/types"
)

// createModelFile creates a file of approximately sizeMB megabytes and returns its path.
func createModelFile(t *testing.T, dir, name string, sizeMB int) string {
	t.Helper()
	if sizeMB <= 0 {
		sizeMB = 1
	}
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()
	// write sizeMB megabytes (use 1MiB blocks)
	block := make([]byte, 1024*1024)
	for i := 0; i < sizeMB; i++ {
		if _, err := f.Write(block); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := f.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	return p
}

// createTestPNG writes a small valid PNG and returns its path.
func createTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode image: %v", err)
	}
	return p
}

// fakeGenerator is an in-memory generator runtime used for tests. When block
// is set, Generate signals started and then stalls until block is closed,
// which lets tests hold the in-flight slot open.
type fakeGenerator struct {
	mu         sync.Mutex
	closed     bool
	genErr     error
	lastParams rt.GenerateParams
	block      chan struct{}
	started    chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, params rt.GenerateParams) (*rt.ImageResult, error) {
	f.mu.Lock()
	f.lastParams = params
	block, started := f.block, f.started
	f.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.genErr != nil {
		return nil, f.genErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &rt.ImageResult{PNG: []byte("png-bytes"), Width: 64, Height: 64, Seed: 7}, nil
}

func (f *fakeGenerator) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeGenerator) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeClassifier is an in-memory classifier runtime used for tests.
type fakeClassifier struct {
	mu     sync.Mutex
	closed bool
	clsErr error
	preds  []types.Prediction
}

func (f *fakeClassifier) Classify(ctx context.Context, img image.Image, topK int) ([]types.Prediction, error) {
	if f.clsErr != nil {
		return nil, f.clsErr
	}
	preds := f.preds
	if len(preds) > topK {
		preds = preds[:topK]
	}
	return append([]types.Prediction(nil), preds...), nil
}

func (f *fakeClassifier) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeClassifier) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeFactory hands out fake runtimes keyed by model capability and records
// every opened instance.
type fakeFactory struct {
	mu      sync.Mutex
	openErr error
	opened  []string
	byID    map[string]rt.Instance
	preds   []types.Prediction
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		byID:  map[string]rt.Instance{},
		preds: []types.Prediction{{Label: "tabby", Score: 0.9}, {Label: "tiger", Score: 0.05}},
	}
}

func (f *fakeFactory) Open(ctx context.Context, mdl types.Model) (rt.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = append(f.opened, mdl.ID)
	var inst rt.Instance
	if mdl.Capability == types.CapabilityTextToImage {
		inst = &fakeGenerator{}
	} else {
		inst = &fakeClassifier{preds: f.preds}
	}
	f.byID[mdl.ID] = inst
	return inst, nil
}

func (f *fakeFactory) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opened)
}

func (f *fakeFactory) instance(id string) rt.Instance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}
