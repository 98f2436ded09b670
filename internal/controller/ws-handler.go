package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/service/room"
	"github.com/tiger020517/youtube-watch/pkg/ctxlogger"
	"github.com/tiger020517/youtube-watch/pkg/rest"
	"github.com/tiger020517/youtube-watch/pkg/ytvideoid"
)

type createRoomQuery struct {
	DisplayName string `json:"display_name" validate:"required,max=32"`
	VideoUrl    string `json:"video_url"`
}

func (c *controller) createRoom(w http.ResponseWriter, r *http.Request) {
	query := createRoomQuery{
		DisplayName: r.URL.Query().Get("display-name"),
		VideoUrl:    r.URL.Query().Get("video-url"),
	}

	if validationErrors, ok := c.validate.Validate(query); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	videoId := ""
	if query.VideoUrl != "" {
		extracted, err := ytvideoid.Extract(query.VideoUrl)
		if err != nil {
			rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
			return
		}
		videoId = extracted
	}

	createResp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		DisplayName:    query.DisplayName,
		InitialVideoId: videoId,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	c.serveParticipant(w, r, createResp.RoomId, createResp.ParticipantId, nil)
}

type joinRoomQuery struct {
	DisplayName string `json:"display_name" validate:"required,max=32"`
}

func (c *controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	query := joinRoomQuery{
		DisplayName: r.URL.Query().Get("display-name"),
	}

	if validationErrors, ok := c.validate.Validate(query); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	joinResp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomId:        roomId,
		DisplayName:   query.DisplayName,
		ParticipantId: r.URL.Query().Get("participant-id"),
	})
	if err != nil {
		switch err {
		case room.ErrRoomNotFound:
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": err.Error()})
		case room.ErrParticipantsLimitReached:
			rest.WriteJSON(w, http.StatusConflict, rest.Envelope{"error": err.Error()})
		default:
			c.logger.InfoContext(r.Context(), "failed to join room", "error", err)
			rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		}
		return
	}

	c.serveParticipant(w, r, roomId, joinResp.JoinedParticipant.Id, joinResp.Conns)
}

// serveParticipant upgrades the request, pushes the initial room snapshot,
// fans the new presence out to the peers already connected, and blocks on the
// message loop until the connection drops.
func (c *controller) serveParticipant(w http.ResponseWriter, r *http.Request, roomId, participantId string, peerConns []*websocket.Conn) {
	ctx := r.Context()

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(ctx, "failed to upgrade connection", "error", err)
		return
	}

	if err := c.roomService.ConnectParticipant(ctx, &room.ConnectParticipantParams{
		Conn:          conn,
		ParticipantId: participantId,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to connect participant", "error", err)
		conn.Close()
		return
	}

	state, err := c.roomService.GetRoomState(ctx, roomId)
	if err != nil {
		c.logger.InfoContext(ctx, "failed to get room state", "error", err)
		conn.Close()
		return
	}

	c.writeToConn(ctx, conn, &Output{
		Type: "ROOM_STATE",
		Payload: map[string]any{
			"room_id":      roomId,
			"player":       state.Player,
			"participants": state.Participants,
			"messages":     state.Messages,
		},
	})

	if len(peerConns) > 0 {
		c.broadcast(ctx, peerConns, &Output{
			Type: "PRESENCE_CHANGED",
			Payload: map[string]any{
				"participants": state.Participants,
			},
		})
	}

	ctx = context.WithValue(ctx, roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, participantIdCtxKey, participantId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("participant_id", participantId))

	if err := c.wsRouter.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}

	c.connMu.Delete(conn)
	conn.Close()

	disconnectResp, err := c.roomService.DisconnectParticipant(ctx, &room.DisconnectParticipantParams{
		ParticipantId: participantId,
		RoomId:        roomId,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to disconnect participant", "error", err)
		return
	}

	if !disconnectResp.IsRoomDeleted {
		c.broadcast(ctx, disconnectResp.Conns, &Output{
			Type: "PRESENCE_CHANGED",
			Payload: map[string]any{
				"participants": disconnectResp.Participants,
			},
		})
	}
}
