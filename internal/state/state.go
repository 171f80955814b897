package state

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/domain"
)

// Holder owns the process-wide system state. One instance is created by the
// composition root and shared by the parser, the summary builder and the
// reset coordinator.
//
// Every move into WRITE_EXECUTED bumps the write generation, so a reader can
// tell whether a write landed while it was working.
type Holder struct {
	mu         sync.RWMutex
	current    domain.SystemState
	generation uint64
	logger     zerolog.Logger
}

func NewHolder(logger zerolog.Logger) *Holder {
	return &Holder{
		current: domain.StateStarting,
		logger:  logger,
	}
}

func (h *Holder) Current() domain.SystemState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Generation returns the number of writes recorded so far.
func (h *Holder) Generation() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.generation
}

func (h *Holder) Transition(next domain.SystemState) {
	h.transition(next, func(domain.SystemState, uint64) bool { return true })
}

// TransitionFrom moves to next only when the current state is one of from.
// It reports whether the transition happened.
func (h *Holder) TransitionFrom(next domain.SystemState, from ...domain.SystemState) bool {
	return h.transition(next, func(current domain.SystemState, _ uint64) bool {
		return slices.Contains(from, current)
	})
}

// TransitionFromGeneration is TransitionFrom that also fails when a write has
// been recorded since generation was read.
func (h *Holder) TransitionFromGeneration(generation uint64, next domain.SystemState, from ...domain.SystemState) bool {
	return h.transition(next, func(current domain.SystemState, gen uint64) bool {
		return gen == generation && slices.Contains(from, current)
	})
}

func (h *Holder) transition(next domain.SystemState, allowed func(domain.SystemState, uint64) bool) bool {
	h.mu.Lock()
	previous := h.current
	if !allowed(previous, h.generation) {
		h.mu.Unlock()
		return false
	}
	h.current = next
	if next == domain.StateWriteExecuted {
		h.generation++
	}
	h.mu.Unlock()

	if previous != next {
		h.logger.Info().
			Str("from", string(previous)).
			Str("to", string(next)).
			Msg("system state changed")
	}
	return true
}
