package types

// GenerateRequest asks a text-to-image model to produce an image.
type GenerateRequest struct {
	// Optional model identifier. If empty, the resident model (or the server
	// default) is used.
	// example: sd-webui
	Model string `json:"model,omitempty" example:"sd-webui"`
	// Required prompt text describing the desired image.
	// example: A watercolor lighthouse at dawn.
	Prompt string `json:"prompt" example:"A watercolor lighthouse at dawn."`
	// Optional negative prompt for backends that support it.
	NegativePrompt string `json:"negative_prompt,omitempty"`
	// Output width in pixels. 0 uses the backend default.
	// example: 512
	Width int `json:"width,omitempty" example:"512"`
	// Output height in pixels. 0 uses the backend default.
	// example: 512
	Height int `json:"height,omitempty" example:"512"`
	// Diffusion steps for backends that support it.
	// example: 20
	Steps int `json:"steps,omitempty" example:"20"`
	// Random seed for reproducibility; 0 or omitted lets the backend choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
}

// ClassifyRequest asks an image-classification model to label an image.
// Exactly one of ImagePath and ImageBase64 must be set.
type ClassifyRequest struct {
	// Optional model identifier. If empty, the resident model (or the server
	// default) is used.
	// example: vit-base-patch16-224
	Model string `json:"model,omitempty" example:"vit-base-patch16-224"`
	// Path to an image file readable by the server.
	ImagePath string `json:"image_path,omitempty"`
	// Base64-encoded PNG or JPEG payload, as an alternative to a path.
	ImageBase64 string `json:"image_base64,omitempty"`
	// Number of ranked labels to return. 0 uses the server default.
	// example: 5
	TopK int `json:"top_k,omitempty" example:"5"`
}

// LoadRequest selects a model to make resident, replacing any previous one.
type LoadRequest struct {
	// Model identifier to load. If empty, the server default is used.
	// example: vit-base-patch16-224
	Model string `json:"model" example:"vit-base-patch16-224"`
	// When true, the load runs in the background and an operation id is
	// returned immediately.
	// example: false
	Async bool `json:"async,omitempty" example:"false"`
}

// LoadResponse is returned by POST /load.
type LoadResponse struct {
	// Operation id for background loads.
	Op string `json:"op,omitempty"`
	// Model id being loaded.
	Model string `json:"model"`
	// Manager state after the call (ready for synchronous loads).
	State string `json:"state"`
}

// Prediction is one ranked classification label.
type Prediction struct {
	// example: tabby cat
	Label string `json:"label" example:"tabby cat"`
	// Softmax probability in [0,1].
	// example: 0.87
	Score float64 `json:"score" example:"0.87"`
}

// ImageArtifact describes a generated image.
type ImageArtifact struct {
	// example: 512
	Width int `json:"width" example:"512"`
	// example: 512
	Height int `json:"height" example:"512"`
	// example: png
	Format string `json:"format" example:"png"`
	// Size of the encoded image in bytes.
	SizeBytes int `json:"size_bytes"`
	// Raw encoded image; served by GET /result/image, never inlined in JSON.
	Data []byte `json:"-"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	Model string `json:"model"`
	// Seed actually used by the backend, when reported.
	Seed int64 `json:"seed,omitempty"`
	// Base64-encoded image payload.
	ImageBase64 string        `json:"image_base64"`
	Image       ImageArtifact `json:"image"`
	ElapsedMS   int64         `json:"elapsed_ms"`
}

// ClassifyResponse is returned by POST /classify.
type ClassifyResponse struct {
	Model       string       `json:"model"`
	Predictions []Prediction `json:"predictions"`
	ElapsedMS   int64        `json:"elapsed_ms"`
}

// InferenceResult is the retained outcome of the most recent successful run.
type InferenceResult struct {
	// Kind of result: "image" or "classifications".
	Kind       string     `json:"kind"`
	Model      string     `json:"model"`
	Capability Capability `json:"capability"`
	// Prompt that produced an image result.
	Prompt string `json:"prompt,omitempty"`
	// Ranked labels for classification results.
	Predictions []Prediction `json:"predictions,omitempty"`
	// Generated image for text-to-image results.
	Image          *ImageArtifact `json:"image,omitempty"`
	ElapsedMS      int64          `json:"elapsed_ms"`
	CompletedUnix  int64          `json:"completed_unix"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not found: vit
	Error string `json:"error" example:"model not found: vit"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// DeviceInfo summarizes host compute characteristics for /status.
type DeviceInfo struct {
	// example: linux
	OS string `json:"os" example:"linux"`
	// example: amd64
	Arch string `json:"arch" example:"amd64"`
	// example: 16
	LogicalCPUs int `json:"logical_cpus" example:"16"`
	// example: 32768
	TotalMemMB int `json:"total_mem_mb" example:"32768"`
	// example: 20480
	AvailableMemMB int `json:"available_mem_mb" example:"20480"`
	// Preferred accelerator: cuda or cpu.
	// example: cpu
	Accelerator string `json:"accelerator" example:"cpu"`
}

// ResidentStatus summarizes the resident model instance for /status.
type ResidentStatus struct {
	// example: vit-base-patch16-224
	ModelID string `json:"model_id" example:"vit-base-patch16-224"`
	// example: image-classification
	Capability Capability `json:"capability" example:"image-classification"`
	// Lifecycle state of the instance (loading, ready, draining, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Last time this instance served a request (unix seconds).
	LastUsed int64 `json:"last_used_unix"`
	// Estimated memory usage in MB.
	EstMemMB int `json:"est_mem_mb"`
	// Current queue length for incoming requests.
	QueueLen int `json:"queue_len"`
	// In-flight requests currently being processed (0 or 1).
	Inflight int `json:"inflight"`
	// Maximum queued requests allowed before backpressure triggers.
	MaxQueueDepth int `json:"max_queue_depth"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Resident model instance, if any.
	Resident *ResidentStatus `json:"resident,omitempty"`
	// Overall manager state (unloaded, loading, ready, draining, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Current top-level error message, if the manager is in error state.
	Error string `json:"error,omitempty"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Memory budget in MB for the resident model (0 = unlimited).
	BudgetMB int `json:"budget_mb"`
	// Estimated used memory in MB.
	UsedMB int `json:"used_est_mb"`
	// Total number of model loads.
	LoadsTotal uint64 `json:"loads_total"`
	// Total number of model unloads (including swaps).
	UnloadsTotal uint64 `json:"unloads_total"`
	// Whether a retained result is available from GET /result.
	HasResult bool `json:"has_result"`
	// Host compute characteristics.
	Device DeviceInfo `json:"device"`
	// Uptime of the server in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
}
