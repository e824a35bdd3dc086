package engine

import (
	"errors"
	"fmt"
	"sync"
)

// State is the load lifecycle: Uninitialized -> Loading -> Loaded | Failed.
// Loaded and Failed are terminal.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	ErrNotLoaded         = errors.New("definitions not loaded")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)

// Lifecycle guards the one-shot load and publishes the result to readers.
// Definitions only becomes visible after a successful Complete.
type Lifecycle struct {
	mu    sync.RWMutex
	state State
	defs  *Definitions
	err   error
}

func NewLifecycle() *Lifecycle { return &Lifecycle{} }

// Begin moves Uninitialized -> Loading.
func (l *Lifecycle) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateUninitialized {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, l.state)
	}
	l.state = StateLoading
	return nil
}

// Complete moves Loading -> Loaded.
func (l *Lifecycle) Complete(defs *Definitions) error {
	if defs == nil {
		return fmt.Errorf("%w: complete with nil definitions", ErrInvalidTransition)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLoading {
		return fmt.Errorf("%w: complete from %s", ErrInvalidTransition, l.state)
	}
	l.state = StateLoaded
	l.defs = defs
	return nil
}

// Fail moves Loading -> Failed and records cause.
func (l *Lifecycle) Fail(cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLoading {
		return fmt.Errorf("%w: fail from %s", ErrInvalidTransition, l.state)
	}
	l.state = StateFailed
	l.err = cause
	return nil
}

func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Err returns the load failure, if any.
func (l *Lifecycle) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Definitions returns the loaded structure, or ErrNotLoaded (wrapping the load
// failure when there was one).
func (l *Lifecycle) Definitions() (*Definitions, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	switch l.state {
	case StateLoaded:
		return l.defs, nil
	case StateFailed:
		return nil, fmt.Errorf("%w: %w", ErrNotLoaded, l.err)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, l.state)
	}
}
