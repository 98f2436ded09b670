// Package room hosts the client-side playback sync core: the replicated
// player-state store, presence and chat views, the reconciler that keeps a
// local playback engine aligned with the shared state, and the controller
// facade that binds them to a transport channel.
package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tiger020517/youtube-watch/internal/client/transport"
	"github.com/tiger020517/youtube-watch/internal/domain"
)

type StateHandler func(domain.PlayerState)

// Store is a participant's replica of the room's player state. Patches merge
// last-writer-wins on LastUpdate; stale patches are dropped silently, so
// replicas applying the same patch set in any order converge.
type Store struct {
	channel transport.Channel
	now     func() int64

	mu       sync.Mutex
	state    domain.PlayerState
	onChange []StateHandler
}

func NewStore(channel transport.Channel, initial domain.PlayerState) *Store {
	return &Store{
		channel: channel,
		now:     func() int64 { return time.Now().UnixMilli() },
		state:   initial,
	}
}

// State returns a copy of the current replica state.
func (s *Store) State() domain.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers a handler invoked after every accepted patch, outside
// the store lock.
func (s *Store) OnChange(h StateHandler) {
	s.mu.Lock()
	s.onChange = append(s.onChange, h)
	s.mu.Unlock()
}

// Apply merges a remote patch into the replica. It reports whether the patch
// was accepted; a patch stamped at or before the stored LastUpdate loses.
func (s *Store) Apply(patch domain.PlayerPatch) bool {
	s.mu.Lock()
	if !patch.NewerThan(s.state.LastUpdate) {
		s.mu.Unlock()
		return false
	}

	patch.ApplyTo(&s.state)
	state := s.state
	handlers := s.onChange
	s.mu.Unlock()

	for _, h := range handlers {
		h(state)
	}

	return true
}

// Propose stamps a locally initiated patch with the current time, applies it
// optimistically, and publishes it to the channel. The local apply means the
// publisher's own replica never waits on the echo.
func (s *Store) Propose(ctx context.Context, patch domain.PlayerPatch) error {
	patch.LastUpdate = s.now()

	s.mu.Lock()
	// a concurrent remote patch can carry a later stamp; the remote write
	// wins and the proposal is not published
	if !patch.NewerThan(s.state.LastUpdate) {
		s.mu.Unlock()
		return nil
	}

	patch.ApplyTo(&s.state)
	state := s.state
	handlers := s.onChange
	s.mu.Unlock()

	for _, h := range handlers {
		h(state)
	}

	if err := s.channel.PublishPatch(ctx, patch); err != nil {
		return fmt.Errorf("failed to publish patch: %w", err)
	}

	return nil
}
