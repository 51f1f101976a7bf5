package manager

import (
	"time"

	"github.com/rs/zerolog"

	rt "inferd/internal/runtime"
	"inferd/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultDrainTimeout  = 10 * time.Second
	defaultTopK          = 5
	maxPromptLen         = 4000
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Registry      []types.Model
	DefaultModel  string
	BudgetMB      int
	MaxQueueDepth int
	MaxWait       time.Duration
	DrainTimeout  time.Duration
	// Factory opens runtime instances; required for real inference. Nil leaves
	// the manager constructible for wiring tests, with loads failing fast.
	Factory rt.Factory
	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher
	// Device is the host probe result surfaced in /status.
	Device types.DeviceInfo
	Logger zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:        StateUnloaded,
		registry:     cfg.Registry,
		defaultModel: cfg.DefaultModel,
		budgetMB:     cfg.BudgetMB,
		factory:      cfg.Factory,
		publisher:    cfg.Publisher,
		device:       cfg.Device,
		log:          cfg.Logger,
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	if cfg.DrainTimeout <= 0 {
		m.drainTimeout = defaultDrainTimeout
	} else {
		m.drainTimeout = cfg.DrainTimeout
	}
	m.startTime = time.Now()
	return m
}
