// Package onnx runs image classifiers locally through ONNX Runtime.
package onnx

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"inferd/pkg/types"
)

const defaultInputSize = 224

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initRuntime initializes the shared ONNX Runtime environment once per
// process. The environment stays alive across model swaps; only sessions are
// created and destroyed per model.
func initRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Classifier is a loaded ONNX image-classification session.
type Classifier struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	width      int
	height     int
	classes    int
	labels     []string
	closed     bool
}

// Config carries classifier construction parameters.
type Config struct {
	// Path to the onnxruntime shared library; empty uses the platform default.
	LibraryPath string
	// Intra-op thread count for the session.
	Threads int
}

// NewClassifier loads the model weights from mdl.Path and prepares a session.
// Input/output names and the expected input resolution are read from the
// model's own metadata.
func NewClassifier(mdl types.Model, cfg Config) (*Classifier, error) {
	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}
	inputs, outputs, err := ort.GetInputOutputInfo(mdl.Path)
	if err != nil {
		return nil, fmt.Errorf("read model metadata: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s declares no inputs or outputs", mdl.ID)
	}
	c := &Classifier{
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		width:      defaultInputSize,
		height:     defaultInputSize,
	}
	// NCHW input: [batch, channels, height, width]. Dynamic dims stay at the
	// 224 default.
	if dims := inputs[0].Dimensions; len(dims) == 4 {
		if dims[2] > 0 {
			c.height = int(dims[2])
		}
		if dims[3] > 0 {
			c.width = int(dims[3])
		}
	}
	if dims := outputs[0].Dimensions; len(dims) >= 2 && dims[len(dims)-1] > 0 {
		c.classes = int(dims[len(dims)-1])
	}
	if mdl.Labels != "" {
		labels, err := loadLabels(mdl.Labels)
		if err != nil {
			return nil, err
		}
		c.labels = labels
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer opts.Destroy()
	if cfg.Threads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.Threads); err != nil {
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}
	sess, err := ort.NewDynamicAdvancedSession(mdl.Path,
		[]string{c.inputName}, []string{c.outputName}, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.session = sess
	return c, nil
}

// Classify runs the image through the session and returns the topK ranked
// labels. The session allows a single in-flight run; the manager serializes
// requests above this layer, the mutex here is a safety net.
func (c *Classifier) Classify(ctx context.Context, img image.Image, topKN int) ([]types.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("classifier is closed")
	}

	data := toTensor(img, c.width, c.height)
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(c.height), int64(c.width)), data)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer out.Destroy()

	logits := out.GetData()
	if c.classes > 0 && len(logits) > c.classes {
		// batch dim included; take the first row
		logits = logits[:c.classes]
	}
	return topK(softmax(logits), c.labels, topKN), nil
}

// Labels returns the label vocabulary loaded for this model.
func (c *Classifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// InputSize returns the expected input resolution (width, height).
func (c *Classifier) InputSize() (int, int) { return c.width, c.height }

// Close destroys the session. The shared runtime environment is left
// initialized for the next model.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.session != nil {
		return c.session.Destroy()
	}
	return nil
}
