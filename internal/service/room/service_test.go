package room

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiger020517/youtube-watch/internal/domain"
	"github.com/tiger020517/youtube-watch/internal/repository/connection/inmemory"
	roomRedis "github.com/tiger020517/youtube-watch/internal/repository/room/redis"
)

func newTestService(t *testing.T, participantsLimit int) *service {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	logger := slog.Default()
	roomRepo := roomRedis.NewRepo(rc, logger, time.Hour)
	connRepo := inmemory.NewRepo(logger)

	return NewService(roomRepo, connRepo, participantsLimit, logger)
}

func TestCreateAndJoinRoom(t *testing.T) {
	service := newTestService(t, 9)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{
		DisplayName:    "alice",
		InitialVideoId: "jNQXAC9IVRw",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, createResp.RoomId, "room id is empty")
	assert.NotEmpty(t, createResp.ParticipantId, "participant id is empty")
	assert.Equal(t, "jNQXAC9IVRw", createResp.Player.VideoId)
	assert.False(t, createResp.Player.IsPlaying, "new room must start paused")
	assert.Equal(t, float64(0), createResp.Player.CurrentTime)

	err = service.ConnectParticipant(ctx, &ConnectParticipantParams{
		Conn:          &websocket.Conn{},
		ParticipantId: createResp.ParticipantId,
	})
	require.NoError(t, err)

	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:      createResp.RoomId,
		DisplayName: "bob",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, joinResp.JoinedParticipant.Id)
	assert.Equal(t, "bob", joinResp.JoinedParticipant.DisplayName)
	assert.Equal(t, 2, len(joinResp.Participants), "participant list must contain 2 entries")
	assert.Equal(t, createResp.Player.VideoId, joinResp.Player.VideoId, "join must replay the room player")
	assert.Equal(t, 1, len(joinResp.Conns), "one peer conn expected")
}

func TestJoinRoomDefaultsVideo(t *testing.T) {
	service := newTestService(t, 9)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{DisplayName: "alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultVideoId, createResp.Player.VideoId)
}

func TestJoinRoomNotFound(t *testing.T) {
	service := newTestService(t, 9)

	_, err := service.JoinRoom(context.Background(), &JoinRoomParams{
		RoomId:      "missing",
		DisplayName: "bob",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinRoomParticipantsLimit(t *testing.T) {
	service := newTestService(t, 2)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{DisplayName: "alice"})
	require.NoError(t, err)

	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:      createResp.RoomId,
		DisplayName: "bob",
	})
	require.NoError(t, err)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:      createResp.RoomId,
		DisplayName: "carol",
	})
	assert.ErrorIs(t, err, ErrParticipantsLimitReached)

	// a rejoin under a known id replaces the entry instead of counting
	// against the limit
	rejoinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:        createResp.RoomId,
		DisplayName:   "bob2",
		ParticipantId: joinResp.JoinedParticipant.Id,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, len(rejoinResp.Participants))
}

func TestUpdatePlayerLastWriterWins(t *testing.T) {
	service := newTestService(t, 9)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{DisplayName: "alice"})
	require.NoError(t, err)

	base := createResp.Player.LastUpdate

	isPlaying := true
	currentTime := 42.5
	updateResp, err := service.UpdatePlayer(ctx, &UpdatePlayerParams{
		Patch: domain.PlayerPatch{
			IsPlaying:   &isPlaying,
			CurrentTime: &currentTime,
			LastUpdate:  base + 100,
		},
		SenderId: createResp.ParticipantId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.True(t, updateResp.Accepted)
	assert.True(t, updateResp.Player.IsPlaying)
	assert.Equal(t, 42.5, updateResp.Player.CurrentTime)
	assert.Equal(t, createResp.Player.VideoId, updateResp.Player.VideoId, "unset fields must survive the merge")
	assert.Equal(t, base+100, updateResp.Player.LastUpdate)

	// an older stamp loses and leaves the state untouched
	stalePlaying := false
	staleResp, err := service.UpdatePlayer(ctx, &UpdatePlayerParams{
		Patch: domain.PlayerPatch{
			IsPlaying:  &stalePlaying,
			LastUpdate: base + 50,
		},
		SenderId: createResp.ParticipantId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.False(t, staleResp.Accepted, "older patch must be dropped")

	// a tie is stale too
	tieResp, err := service.UpdatePlayer(ctx, &UpdatePlayerParams{
		Patch: domain.PlayerPatch{
			IsPlaying:  &stalePlaying,
			LastUpdate: base + 100,
		},
		SenderId: createResp.ParticipantId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.False(t, tieResp.Accepted, "equal stamp must be dropped")

	state, err := service.GetRoomState(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.True(t, state.Player.IsPlaying, "stale patches must not change state")
}

func TestUpdatePlayerRoomNotFound(t *testing.T) {
	service := newTestService(t, 9)

	isPlaying := true
	_, err := service.UpdatePlayer(context.Background(), &UpdatePlayerParams{
		Patch:  domain.PlayerPatch{IsPlaying: &isPlaying, LastUpdate: 1},
		RoomId: "missing",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSendMessage(t *testing.T) {
	service := newTestService(t, 9)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{DisplayName: "alice"})
	require.NoError(t, err)

	_, err = service.SendMessage(ctx, &SendMessageParams{
		Text:     "   ",
		SenderId: createResp.ParticipantId,
		RoomId:   createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	sendResp, err := service.SendMessage(ctx, &SendMessageParams{
		Text:     "  hello  ",
		SenderId: createResp.ParticipantId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sendResp.Message.Id, "message id is empty")
	assert.Equal(t, "hello", sendResp.Message.Text, "text must be trimmed")
	assert.Equal(t, "alice", sendResp.Message.Author)
	assert.NotZero(t, sendResp.Message.CreatedAt)

	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:      createResp.RoomId,
		DisplayName: "bob",
	})
	require.NoError(t, err)
	require.Equal(t, 1, len(joinResp.Messages), "join must replay chat history")
	assert.Equal(t, sendResp.Message.Id, joinResp.Messages[0].Id)
}

func TestDisconnectLastParticipantDeletesRoom(t *testing.T) {
	service := newTestService(t, 9)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{DisplayName: "alice"})
	require.NoError(t, err)

	err = service.ConnectParticipant(ctx, &ConnectParticipantParams{
		Conn:          &websocket.Conn{},
		ParticipantId: createResp.ParticipantId,
	})
	require.NoError(t, err)

	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:      createResp.RoomId,
		DisplayName: "bob",
	})
	require.NoError(t, err)

	err = service.ConnectParticipant(ctx, &ConnectParticipantParams{
		Conn:          &websocket.Conn{},
		ParticipantId: joinResp.JoinedParticipant.Id,
	})
	require.NoError(t, err)

	disconnectResp, err := service.DisconnectParticipant(ctx, &DisconnectParticipantParams{
		ParticipantId: joinResp.JoinedParticipant.Id,
		RoomId:        createResp.RoomId,
	})
	require.NoError(t, err)
	assert.False(t, disconnectResp.IsRoomDeleted)
	assert.Equal(t, 1, len(disconnectResp.Participants))

	disconnectResp, err = service.DisconnectParticipant(ctx, &DisconnectParticipantParams{
		ParticipantId: createResp.ParticipantId,
		RoomId:        createResp.RoomId,
	})
	require.NoError(t, err)
	assert.True(t, disconnectResp.IsRoomDeleted, "room must be torn down with its last participant")

	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:      createResp.RoomId,
		DisplayName: "carol",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
