package app

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Registry owns the per-session states of the process.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu     sync.Mutex
	states map[string]*State
	closed bool
}

func NewRegistry(deps Deps) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Registry{deps: deps, now: time.Now, states: map[string]*State{}}, nil
}

// Get returns the state of sessionID, creating it on first use.
func (r *Registry) Get(ctx context.Context, sessionID string) (*State, error) {
	if !session.ValidID(sessionID) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shutting down")
	}
	if state, ok := r.states[sessionID]; ok {
		state.touch(r.now())
		return state, nil
	}
	state, err := newState(ctx, r.deps, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session state")
	}
	state.touch(r.now())
	r.states[sessionID] = state
	r.deps.Metrics.SetActiveSessions(len(r.states))
	return state, nil
}

// Lookup returns the state of sessionID without creating one.
func (r *Registry) Lookup(sessionID string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[sessionID]
	return state, ok
}

// Drop ends a session: its polls stop and its persisted state is cleared.
func (r *Registry) Drop(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	state, ok := r.states[sessionID]
	delete(r.states, sessionID)
	r.deps.Metrics.SetActiveSessions(len(r.states))
	r.mu.Unlock()

	if ok {
		state.close()
	}
	if err := r.deps.Sessions.Clear(ctx, sessionID); err != nil {
		return err
	}
	r.deps.Logger.Info(r.deps.Logger.WithSessionID(ctx, sessionID), "session dropped")
	return nil
}

// EvictIdle releases the states that have not been used for idleFor. Their
// persisted state is kept and is picked up again by the next Get.
func (r *Registry) EvictIdle(ctx context.Context, idleFor time.Duration) int {
	cutoff := r.now().Add(-idleFor)
	r.mu.Lock()
	var idle []*State
	for id, state := range r.states {
		if state.lastSeen().Before(cutoff) {
			idle = append(idle, state)
			delete(r.states, id)
		}
	}
	r.deps.Metrics.SetActiveSessions(len(r.states))
	r.mu.Unlock()

	for _, state := range idle {
		state.close()
		r.deps.Logger.Debug(r.deps.Logger.WithSessionID(ctx, state.SessionID), "idle session released")
	}
	return len(idle)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Close stops every poll of every session. Persisted session state is kept so
// clients can resume after a restart.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	states := r.states
	r.states = map[string]*State{}
	r.deps.Metrics.SetActiveSessions(0)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, state := range states {
		wg.Add(1)
		go func(s *State) {
			defer wg.Done()
			s.close()
		}(state)
	}
	wg.Wait()
}
