package types

// Capability identifies what kind of input a model accepts and what it produces.
type Capability string

const (
	// CapabilityTextToImage models turn a natural-language prompt into an image.
	CapabilityTextToImage Capability = "text-to-image"
	// CapabilityImageClassification models assign ranked labels to an image.
	CapabilityImageClassification Capability = "image-classification"
)

// Valid reports whether c is one of the known capabilities.
func (c Capability) Valid() bool {
	return c == CapabilityTextToImage || c == CapabilityImageClassification
}

// Backend identifiers for model runtimes.
const (
	BackendONNX    = "onnx"
	BackendOpenAI  = "openai"
	BackendSDWebUI = "sdwebui"
)

// Model represents a selectable model in the registry.
type Model struct {
	// Stable identifier for the model.
	// example: vit-base-patch16-224
	ID string `json:"id" example:"vit-base-patch16-224"`
	// Human-friendly name.
	// example: ViT Base (224px)
	Name string `json:"name" example:"ViT Base (224px)"`
	// Capability of the model: text-to-image or image-classification.
	// example: image-classification
	Capability Capability `json:"capability" example:"image-classification"`
	// Runtime backend serving the model: onnx, openai or sdwebui.
	// example: onnx
	Backend string `json:"backend" example:"onnx"`
	// Absolute path to the weights file on disk (onnx backend only).
	Path string `json:"path,omitempty"`
	// Path to the label file for classifiers (one label per line).
	Labels string `json:"labels,omitempty"`
	// Remote model name for hosted backends (e.g. the OpenAI image model id).
	RemoteModel string `json:"remote_model,omitempty"`
	// Base URL of the remote backend (sdwebui backend only).
	BaseURL string `json:"base_url,omitempty"`
	// Optional free-form description shown with model metadata.
	Description string `json:"description,omitempty"`
}

// Remote reports whether inference for this model runs against a remote backend.
func (m Model) Remote() bool {
	return m.Backend == BackendOpenAI || m.Backend == BackendSDWebUI
}
