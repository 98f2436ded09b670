package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/repository/room"
	"github.com/tiger020517/youtube-watch/pkg/randstr"
)

var (
	ErrRoomNotFound             = errors.New("room not found")
	ErrParticipantNotFound      = errors.New("participant not found")
	ErrParticipantsLimitReached = errors.New("participants limit reached")
	ErrEmptyMessage             = errors.New("message text is empty")
)

const roomIdLength = 8

type iRoomRepo interface {
	// player
	SetPlayer(context.Context, *room.SetPlayerParams) error
	GetPlayer(context.Context, string) (room.Player, error)
	UpdatePlayer(context.Context, *room.UpdatePlayerParams) (bool, error)
	RemovePlayer(context.Context, string) error
	IsPlayerExists(context.Context, string) (bool, error)
	// participant
	SetParticipant(context.Context, *room.SetParticipantParams) error
	GetParticipant(context.Context, string) (room.Participant, error)
	GetParticipantIds(context.Context, string) ([]string, error)
	RemoveParticipant(context.Context, *room.RemoveParticipantParams) error
	// message
	AddMessage(context.Context, *room.AddMessageParams) error
	GetMessages(context.Context, string) ([]room.Message, error)
	RemoveMessages(context.Context, string) error
}

type iConnRepo interface {
	Add(*websocket.Conn, string) error
	RemoveByParticipantId(string) error
	RemoveByConn(*websocket.Conn) error
	GetConn(string) (*websocket.Conn, error)
	GetParticipantId(*websocket.Conn) (string, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type service struct {
	roomRepo          iRoomRepo
	connRepo          iConnRepo
	generator         iGenerator
	participantsLimit int
	logger            *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, participantsLimit int, logger *slog.Logger) *service {
	s := service{
		roomRepo:          roomRepo,
		connRepo:          connRepo,
		participantsLimit: participantsLimit,
		logger:            logger,
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}
