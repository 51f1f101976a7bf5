package manager

import "inferd/pkg/types"

// setLastResult retains the most recent successful run. Failed runs never
// touch the retained result.
func (m *Manager) setLastResult(res types.InferenceResult) {
	m.mu.Lock()
	m.lastResult = &res
	m.mu.Unlock()
}

// LastResult returns the retained result of the most recent successful run.
func (m *Manager) LastResult() (types.InferenceResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastResult == nil {
		return types.InferenceResult{}, false
	}
	return *m.lastResult, true
}

// LastResultImage returns the encoded image of the retained result, when the
// most recent run produced one.
func (m *Manager) LastResultImage() ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastResult == nil || m.lastResult.Image == nil || len(m.lastResult.Image.Data) == 0 {
		return nil, "", false
	}
	return m.lastResult.Image.Data, m.lastResult.Image.Format, true
}
