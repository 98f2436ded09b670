package domain

type ParticipantStatus string

const (
	StatusOnline   ParticipantStatus = "online"
	StatusWatching ParticipantStatus = "watching"
)

// Participant is presence-scoped: it exists only while its owner is joined
// to the room's realtime topic. At most one live entry per id; a re-join
// replaces the previous entry.
type Participant struct {
	Id          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	Status      ParticipantStatus `json:"status"`
}
