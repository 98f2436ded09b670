package domain

// DefaultVideoId is loaded into freshly created rooms.
const DefaultVideoId = "dQw4w9WgXcQ"

const DefaultPlaybackRate = 1.0

// PlayerState is the canonical playback record of a room. Exactly one
// canonical state exists per room; replicas converge toward it by
// last-writer-wins on LastUpdate.
type PlayerState struct {
	VideoId      string  `json:"video_id"`
	IsPlaying    bool    `json:"is_playing"`
	CurrentTime  float64 `json:"current_time"`
	PlaybackRate float64 `json:"playback_rate"`
	// LastUpdate is the unix-millisecond timestamp of the last accepted patch.
	LastUpdate int64 `json:"last_update"`
}

func NewPlayerState(videoId string, now int64) PlayerState {
	return PlayerState{
		VideoId:      videoId,
		IsPlaying:    false,
		CurrentTime:  0,
		PlaybackRate: DefaultPlaybackRate,
		LastUpdate:   now,
	}
}

// AsPatch returns a full-state patch, used to replay the durable row to
// late joiners.
func (s PlayerState) AsPatch() PlayerPatch {
	return PlayerPatch{
		VideoId:      &s.VideoId,
		IsPlaying:    &s.IsPlaying,
		CurrentTime:  &s.CurrentTime,
		PlaybackRate: &s.PlaybackRate,
		LastUpdate:   s.LastUpdate,
	}
}

// PlayerPatch is a partial update to the canonical state. Nil fields are
// left untouched on merge. A patch whose LastUpdate is not newer than the
// stored state is stale and must be dropped.
type PlayerPatch struct {
	VideoId      *string  `json:"video_id,omitempty"`
	IsPlaying    *bool    `json:"is_playing,omitempty"`
	CurrentTime  *float64 `json:"current_time,omitempty"`
	PlaybackRate *float64 `json:"playback_rate,omitempty"`
	LastUpdate   int64    `json:"last_update"`
}

// NewerThan reports whether the patch wins over a state stamped at lastUpdate.
func (p PlayerPatch) NewerThan(lastUpdate int64) bool {
	return p.LastUpdate > lastUpdate
}

// ApplyTo merges the set fields of the patch into s. The caller is
// responsible for the last-writer-wins check.
func (p PlayerPatch) ApplyTo(s *PlayerState) {
	if p.VideoId != nil {
		s.VideoId = *p.VideoId
	}
	if p.IsPlaying != nil {
		s.IsPlaying = *p.IsPlaying
	}
	if p.CurrentTime != nil {
		s.CurrentTime = *p.CurrentTime
	}
	if p.PlaybackRate != nil {
		s.PlaybackRate = *p.PlaybackRate
	}
	s.LastUpdate = p.LastUpdate
}
