package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// GeneratorConfig declares a text-to-image model served by a remote backend.
type GeneratorConfig struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Backend     string `json:"backend" yaml:"backend" toml:"backend"`
	RemoteModel string `json:"remote_model" yaml:"remote_model" toml:"remote_model"`
	BaseURL     string `json:"base_url" yaml:"base_url" toml:"base_url"`
	Description string `json:"description" yaml:"description" toml:"description"`
}

// ONNXConfig holds ONNX Runtime settings for local classifiers.
type ONNXConfig struct {
	// Path to the onnxruntime shared library. Empty uses the platform default.
	LibraryPath string `json:"library_path" yaml:"library_path" toml:"library_path"`
	// Intra-op thread count. 0 sizes from the host CPU count.
	Threads int `json:"threads" yaml:"threads" toml:"threads"`
}

// CORSConfig controls cross-origin access to the HTTP API.
type CORSConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr            string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir       string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	DefaultModel    string `json:"default_model" yaml:"default_model" toml:"default_model"`
	MemoryBudgetMB  int    `json:"memory_budget_mb" yaml:"memory_budget_mb" toml:"memory_budget_mb"`
	MaxQueueDepth   int    `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSec      int    `json:"max_wait_sec" yaml:"max_wait_sec" toml:"max_wait_sec"`
	DrainTimeoutSec int    `json:"drain_timeout_sec" yaml:"drain_timeout_sec" toml:"drain_timeout_sec"`
	LogLevel        string `json:"log_level" yaml:"log_level" toml:"log_level"`
	// Environment variable holding the OpenAI API key. Defaults to OPENAI_API_KEY.
	OpenAIKeyEnv string `json:"openai_key_env" yaml:"openai_key_env" toml:"openai_key_env"`

	ONNX       ONNXConfig        `json:"onnx" yaml:"onnx" toml:"onnx"`
	CORS       CORSConfig        `json:"cors" yaml:"cors" toml:"cors"`
	Generators []GeneratorConfig `json:"generators" yaml:"generators" toml:"generators"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
