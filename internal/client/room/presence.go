package room

import (
	"slices"
	"sync"

	"github.com/tiger020517/youtube-watch/internal/domain"
)

type PresenceHandler func([]domain.Participant)

// Presence is a participant's view of who is in the room. The transport
// delivers full snapshots, not diffs; each snapshot replaces the previous
// view entirely, so a missed event never leaves a ghost participant behind.
type Presence struct {
	mu           sync.Mutex
	participants []domain.Participant
	onChange     []PresenceHandler
}

func NewPresence() *Presence {
	return &Presence{}
}

func (p *Presence) OnChange(h PresenceHandler) {
	p.mu.Lock()
	p.onChange = append(p.onChange, h)
	p.mu.Unlock()
}

// Participants returns the current view in the order the snapshot carried.
func (p *Presence) Participants() []domain.Participant {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.participants)
}

// Sync replaces the view with a full snapshot. Entries without an id are
// discarded.
func (p *Presence) Sync(snapshot []domain.Participant) {
	next := make([]domain.Participant, 0, len(snapshot))
	for _, participant := range snapshot {
		if participant.Id == "" {
			continue
		}
		next = append(next, participant)
	}

	p.mu.Lock()
	p.participants = next
	handlers := p.onChange
	view := slices.Clone(next)
	p.mu.Unlock()

	for _, h := range handlers {
		h(view)
	}
}
