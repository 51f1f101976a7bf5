package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"inferd/internal/common/fsutil"
	"inferd/internal/config"
	"inferd/pkg/types"
)

// ONNXScanner discovers classifier models by scanning a directory for *.onnx
// files. A label file named <model>.labels.txt next to the weights is picked
// up automatically.
type ONNXScanner struct{}

// NewONNXScanner returns a scanner for ONNX classifier bundles.
func NewONNXScanner() *ONNXScanner { return &ONNXScanner{} }

// Scan walks dir (with '~' expansion) and builds models from filenames.
// The ID is the filename without the .onnx extension; Path is absolute.
func (s *ONNXScanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".onnx") {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		p := filepath.Join(abs, name)
		m := types.Model{
			ID:         id,
			Name:       id,
			Capability: types.CapabilityImageClassification,
			Backend:    types.BackendONNX,
			Path:       p,
		}
		if lp := filepath.Join(abs, id+".labels.txt"); fsutil.PathExists(lp) {
			m.Labels = lp
		}
		models = append(models, m)
	}
	return models, nil
}

// LoadDir scans a directory for ONNX classifier models.
func LoadDir(dir string) ([]types.Model, error) {
	return NewONNXScanner().Scan(dir)
}

// FromGenerators converts config-declared generator entries into registry models.
// Unknown backends are rejected so misconfiguration fails at startup, not at
// inference time.
func FromGenerators(gens []config.GeneratorConfig) ([]types.Model, error) {
	var models []types.Model
	for _, g := range gens {
		if strings.TrimSpace(g.ID) == "" {
			return nil, fmt.Errorf("generator with empty id")
		}
		switch g.Backend {
		case types.BackendOpenAI:
		case types.BackendSDWebUI:
			if strings.TrimSpace(g.BaseURL) == "" {
				return nil, fmt.Errorf("generator %q: sdwebui backend requires base_url", g.ID)
			}
		default:
			return nil, fmt.Errorf("generator %q: unsupported backend %q", g.ID, g.Backend)
		}
		name := g.Name
		if name == "" {
			name = g.ID
		}
		models = append(models, types.Model{
			ID:          g.ID,
			Name:        name,
			Capability:  types.CapabilityTextToImage,
			Backend:     g.Backend,
			RemoteModel: g.RemoteModel,
			BaseURL:     g.BaseURL,
			Description: g.Description,
		})
	}
	return models, nil
}

// Build assembles the full registry: scanned classifiers plus declared
// generators. Duplicate IDs are rejected.
func Build(modelsDir string, gens []config.GeneratorConfig) ([]types.Model, error) {
	var models []types.Model
	if modelsDir != "" {
		scanned, err := LoadDir(modelsDir)
		if err != nil {
			return nil, err
		}
		models = append(models, scanned...)
	}
	declared, err := FromGenerators(gens)
	if err != nil {
		return nil, err
	}
	models = append(models, declared...)
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if seen[m.ID] {
			return nil, fmt.Errorf("duplicate model id: %s", m.ID)
		}
		seen[m.ID] = true
	}
	return models, nil
}
