package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/service/room"
	"github.com/tiger020517/youtube-watch/pkg/validator"
	"github.com/tiger020517/youtube-watch/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	GetRoomState(context.Context, string) (room.RoomStateResponse, error)
	ConnectParticipant(context.Context, *room.ConnectParticipantParams) error
	DisconnectParticipant(context.Context, *room.DisconnectParticipantParams) (room.DisconnectParticipantResponse, error)
	UpdatePlayer(context.Context, *room.UpdatePlayerParams) (room.UpdatePlayerResponse, error)
	SendMessage(context.Context, *room.SendMessageParams) (room.SendMessageResponse, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsRouter    *wsrouter.WSRouter
	logger      *slog.Logger
	// gorilla conns allow one concurrent writer; broadcasts come from other
	// participants' read goroutines
	connMu sync.Map
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsRouter = c.getWSRouter()

	return &c
}
