package classifier

import (
	"sync/atomic"

	"NewsClassifier/internal/domain"
)

// Handle owns the live model. Readers always see one complete snapshot; writers
// replace it with a single pointer swap.
type Handle struct {
	current atomic.Pointer[Model]
}

// NewHandle returns a handle, optionally pre-loaded with m.
func NewHandle(m *Model) *Handle {
	h := &Handle{}
	if m != nil {
		h.current.Store(m)
	}
	return h
}

// Load returns the current snapshot or nil while unfitted.
func (h *Handle) Load() *Model {
	return h.current.Load()
}

// Swap installs m and returns the snapshot it replaced.
func (h *Handle) Swap(m *Model) *Model {
	return h.current.Swap(m)
}

// Fitted reports whether a snapshot is installed.
func (h *Handle) Fitted() bool {
	return h.current.Load() != nil
}

// Predict classifies text against the current snapshot.
func (h *Handle) Predict(text string) (Prediction, error) {
	m := h.current.Load()
	if m == nil {
		return Prediction{}, domain.ErrNotFitted
	}
	return m.Predict(text)
}
