package domain

// ChatMessage is immutable once created. Id and CreatedAt are stamped by the
// store of record, not by the sender.
type ChatMessage struct {
	Id        string `json:"id"`
	RoomId    string `json:"room_id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}
