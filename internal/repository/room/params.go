package room

type SetPlayerParams struct {
	VideoId      string
	IsPlaying    bool
	CurrentTime  float64
	PlaybackRate float64
	LastUpdate   int64
	RoomId       string
}

// UpdatePlayerParams carries a partial update. Nil fields are not written.
// LastUpdate drives the last-writer-wins check.
type UpdatePlayerParams struct {
	VideoId      *string
	IsPlaying    *bool
	CurrentTime  *float64
	PlaybackRate *float64
	LastUpdate   int64
	RoomId       string
}

type SetParticipantParams struct {
	ParticipantId string
	DisplayName   string
	Status        string
	RoomId        string
}

type RemoveParticipantParams struct {
	ParticipantId string
	RoomId        string
}

type AddMessageParams struct {
	Message Message
	RoomId  string
}
