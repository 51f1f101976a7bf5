package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/common/fsutil"
	rt "inferd/internal/runtime"
	"inferd/pkg/types"
)

// Manager owns the single resident model instance and serializes loads,
// swaps and inference admission.
type Manager struct {
	mu           sync.RWMutex
	state        State
	err          string
	lastErr      string
	registry     []types.Model
	defaultModel string
	budgetMB     int
	resident     *Instance
	lastResult   *types.InferenceResult

	loadsTotal   uint64
	unloadsTotal uint64

	// loadMu serializes load/swap/unload so a drain can never race a load.
	loadMu sync.Mutex

	maxQueueDepth int
	maxWait       time.Duration
	drainTimeout  time.Duration

	factory   rt.Factory
	publisher EventPublisher
	device    types.DeviceInfo
	startTime time.Time
	log       zerolog.Logger
}

// New constructs a Manager with defaults for queue depth and timeouts.
func New(reg []types.Model, defaultModel string, budgetMB int, factory rt.Factory) *Manager {
	return NewWithConfig(ManagerConfig{
		Registry:     reg,
		DefaultModel: defaultModel,
		BudgetMB:     budgetMB,
		Factory:      factory,
	})
}

// Ready reports whether the resident instance can serve requests.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resident != nil && m.resident.State == StateReady
}

// ListModels returns a copy of the registry.
func (m *Manager) ListModels() []types.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Model, len(m.registry))
	copy(out, m.registry)
	return out
}

// ResidentModel returns the currently resident model, if any.
func (m *Manager) ResidentModel() (types.Model, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.resident == nil {
		return types.Model{}, false
	}
	return m.resident.Model, true
}

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{State: m.state, Err: m.err}
	if m.resident != nil {
		mdl := m.resident.Model
		s.ResidentModel = &mdl
	}
	return s
}

// Close drains and releases the resident instance. Used on shutdown.
func (m *Manager) Close() error {
	m.mu.RLock()
	var id string
	if m.resident != nil {
		id = m.resident.Model.ID
	}
	m.mu.RUnlock()
	if id == "" {
		return nil
	}
	return m.Unload(id)
}

// getModelByID finds a model in the registry by id.
func (m *Manager) getModelByID(id string) (types.Model, bool) {
	for _, mdl := range m.registry {
		if mdl.ID == id {
			return mdl, true
		}
	}
	return types.Model{}, false
}

// estimateMemMB estimates the resident footprint of a model. Local models use
// the weights file size; remote models cost a nominal 1MB for bookkeeping.
func (m *Manager) estimateMemMB(mdl types.Model) int {
	if mdl.Remote() {
		return 1
	}
	mb := fsutil.FileSizeMB(mdl.Path)
	if mb <= 0 {
		// Unknown size still counts against the budget check.
		mb = 1
	}
	return mb
}
