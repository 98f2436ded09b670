package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tiger020517/youtube-watch/internal/service/room"
	"github.com/tiger020517/youtube-watch/pkg/rest"
)

// getRoomState serves the initial snapshot late joiners fetch before they
// open the realtime channel.
func (c *controller) getRoomState(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	state, err := c.roomService.GetRoomState(r.Context(), roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": err.Error()})
			return
		}

		c.logger.InfoContext(r.Context(), "failed to get room state", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"room_id":      roomId,
		"player":       state.Player,
		"participants": state.Participants,
		"messages":     state.Messages,
	}})
}
