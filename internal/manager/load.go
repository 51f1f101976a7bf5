package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Load makes the given model resident, replacing any previously loaded one.
// Loading the already-resident model is a no-op. The previous instance is
// drained and fully released before the new runtime is opened, so at most one
// model occupies memory at any point.
func (m *Manager) Load(ctx context.Context, modelID string) error {
	if modelID == "" {
		modelID = m.defaultModel
		if modelID == "" {
			return ErrModelNotFound("(unspecified)")
		}
	}

	// Fast path: resident and ready.
	m.mu.Lock()
	if m.resident != nil && m.resident.Model.ID == modelID && m.resident.State == StateReady {
		m.resident.LastUsed = time.Now()
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	mdl, ok := m.getModelByID(modelID)
	if !ok {
		m.publisher.Publish(Event{Name: "load_model_not_found", ModelID: modelID, Fields: map[string]any{}})
		return ErrModelNotFound(modelID)
	}

	// Serialize loads/swaps; admission channels keep inference itself flowing.
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	// Re-check under the load lock: another caller may have won the race.
	m.mu.Lock()
	if m.resident != nil && m.resident.Model.ID == modelID && m.resident.State == StateReady {
		m.resident.LastUsed = time.Now()
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	m.log.Info().Str("model", modelID).Msg("load start")
	m.publisher.Publish(Event{Name: "load_start", ModelID: modelID, Fields: map[string]any{}})

	// Preflight: the swap releases the predecessor, so only the incoming
	// model's footprint counts.
	reqMB := m.estimateMemMB(mdl)
	if m.budgetMB > 0 && reqMB > m.budgetMB {
		err := ErrInvalidInput(fmt.Sprintf("model %s needs ~%dMB, budget is %dMB", modelID, reqMB, m.budgetMB))
		m.publisher.Publish(Event{Name: "load_budget_exceeded", ModelID: modelID, Fields: map[string]any{"required_mb": reqMB}})
		return err
	}

	// Swap out the previous model, if any.
	if err := m.drainAndRelease(); err != nil {
		return err
	}

	if m.factory == nil {
		m.setError("no runtime factory configured")
		return ErrBackendUnavailable("no runtime factory configured")
	}

	inst := &Instance{
		Model:    mdl,
		State:    StateLoading,
		LastUsed: time.Now(),
		EstMemMB: reqMB,
		genCh:    make(chan struct{}, 1),
		queueCh:  make(chan struct{}, m.maxQueueDepth),
	}
	m.mu.Lock()
	m.state = StateLoading
	m.err = ""
	m.resident = inst
	m.mu.Unlock()

	runtime, err := m.factory.Open(ctx, mdl)
	if err != nil {
		m.mu.Lock()
		m.resident = nil
		m.mu.Unlock()
		m.setError(err.Error())
		m.log.Error().Str("model", modelID).Err(err).Msg("load failed")
		m.publisher.Publish(Event{Name: "load_error", ModelID: modelID, Fields: map[string]any{"error": err.Error()}})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBackendUnavailable(fmt.Sprintf("load %s: %v", modelID, err))
	}

	m.mu.Lock()
	inst.rt = runtime
	inst.State = StateReady
	inst.LastUsed = time.Now()
	m.state = StateReady
	m.err = ""
	m.loadsTotal++
	m.mu.Unlock()

	loadsTotalMetric.Inc()
	m.log.Info().Str("model", modelID).Int("est_mem_mb", reqMB).Msg("load ready")
	m.publisher.Publish(Event{Name: "load_ready", ModelID: modelID, Fields: map[string]any{"est_mem_mb": reqMB}})
	return nil
}

// LoadAsync kicks off a background load and returns an operation ID.
// Callers poll Status() to observe state transitions.
func (m *Manager) LoadAsync(modelID string) (string, error) {
	if modelID == "" && m.defaultModel == "" {
		return "", ErrModelNotFound("(unspecified)")
	}
	if modelID != "" {
		if _, ok := m.getModelByID(modelID); !ok {
			return "", ErrModelNotFound(modelID)
		}
	}
	op := uuid.NewString()
	go func() {
		// Detached context: a background load outlives the HTTP request that
		// started it.
		if err := m.Load(context.Background(), modelID); err != nil {
			m.log.Error().Str("model", modelID).Str("op", op).Err(err).Msg("background load failed")
		}
	}()
	return op, nil
}

// ensureResident loads modelID unless it is already resident and ready.
// Inference paths call this so "run before load" works without a crash.
func (m *Manager) ensureResident(ctx context.Context, modelID string) error {
	m.mu.RLock()
	ready := m.resident != nil && m.resident.Model.ID == modelID && m.resident.State == StateReady
	m.mu.RUnlock()
	if ready {
		return nil
	}
	return m.Load(ctx, modelID)
}

// setError records an error state with no resident model.
func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.state = StateError
	m.err = msg
	m.lastErr = msg
	m.mu.Unlock()
}
