package room

type Player struct {
	VideoId      string  `redis:"video_id"`
	IsPlaying    bool    `redis:"is_playing"`
	CurrentTime  float64 `redis:"current_time"`
	PlaybackRate float64 `redis:"playback_rate"`
	LastUpdate   int64   `redis:"last_update"`
}

type Participant struct {
	DisplayName string `redis:"display_name"`
	Status      string `redis:"status"`
}

type Message struct {
	Id        string `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}
