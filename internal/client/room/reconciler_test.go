package room

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiger020517/youtube-watch/internal/client/player"
	"github.com/tiger020517/youtube-watch/internal/domain"
)

func newTestReconciler(t *testing.T, engine *fakeEngine, state domain.PlayerState) (*Reconciler, *Store, *fakeChannel) {
	t.Helper()

	channel := newFakeChannel()
	store := NewStore(channel, state)
	r := NewReconciler(engine, store, ReconcilerConfig{}, slog.Default())
	r.loadedVideoId = state.VideoId
	r.now = func() int64 { return state.LastUpdate }

	return r, store, channel
}

func TestReconcileDriftThresholds(t *testing.T) {
	tests := []struct {
		name       string
		isPlaying  bool
		engineTime float64
		wantSeek   bool
	}{
		{"playing within threshold", true, 101.9, false},
		{"playing beyond threshold", true, 102.1, true},
		{"paused within threshold", false, 100.4, false},
		{"paused beyond threshold", false, 100.6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newFakeEngine()
			engineState := player.StatePaused
			if tt.isPlaying {
				engineState = player.StatePlaying
			}
			engine.set(engineState, tt.engineTime)

			r, _, _ := newTestReconciler(t, engine, domain.PlayerState{
				VideoId:      "abc12345678",
				IsPlaying:    tt.isPlaying,
				CurrentTime:  100,
				PlaybackRate: 1,
				LastUpdate:   4000,
			})

			r.Reconcile(context.Background())

			_, plays, pauses, seeks := engine.commands()
			assert.Equal(t, 0, plays)
			assert.Equal(t, 0, pauses)
			if tt.wantSeek {
				require.Equal(t, 1, len(seeks), "drift beyond threshold must correct")
				assert.Equal(t, 100.0, seeks[0])
			} else {
				assert.Empty(t, seeks, "drift within threshold must be tolerated")
			}
		})
	}
}

func TestReconcileExtrapolatesPlayingPosition(t *testing.T) {
	engine := newFakeEngine()
	engine.set(player.StatePlaying, 100)

	r, _, _ := newTestReconciler(t, engine, domain.PlayerState{
		VideoId:      "abc12345678",
		IsPlaying:    true,
		CurrentTime:  100,
		PlaybackRate: 1,
		LastUpdate:   4000,
	})
	// 3 seconds have passed since the state was stamped
	r.now = func() int64 { return 7000 }

	r.Reconcile(context.Background())

	_, _, _, seeks := engine.commands()
	require.Equal(t, 1, len(seeks))
	assert.Equal(t, 103.0, seeks[0], "playhead must chase the extrapolated position")
}

func TestReconcileMatchesPlayPause(t *testing.T) {
	engine := newFakeEngine()
	engine.set(player.StatePaused, 100)

	r, store, _ := newTestReconciler(t, engine, domain.PlayerState{
		VideoId:      "abc12345678",
		IsPlaying:    true,
		CurrentTime:  100,
		PlaybackRate: 1,
		LastUpdate:   4000,
	})

	r.Reconcile(context.Background())
	_, plays, pauses, _ := engine.commands()
	assert.Equal(t, 1, plays, "paused engine must start when the room plays")
	assert.Equal(t, 0, pauses)

	// the engine now matches; a second pass issues nothing
	r.Reconcile(context.Background())
	_, plays, pauses, seeks := engine.commands()
	assert.Equal(t, 1, plays, "converged engine must not be commanded again")
	assert.Equal(t, 0, pauses)
	assert.Empty(t, seeks)

	// the room pauses
	isPlaying := false
	pausedAt := 100.0
	store.Apply(domain.PlayerPatch{IsPlaying: &isPlaying, CurrentTime: &pausedAt, LastUpdate: 5000})
	r.now = func() int64 { return 5000 }
	r.Reconcile(context.Background())
	_, _, pauses, _ = engine.commands()
	assert.Equal(t, 1, pauses, "playing engine must stop when the room pauses")
}

func TestReconcileLoadsChangedVideo(t *testing.T) {
	engine := newFakeEngine()
	engine.set(player.StatePlaying, 50)

	r, store, _ := newTestReconciler(t, engine, domain.PlayerState{
		VideoId:      "abc12345678",
		IsPlaying:    true,
		CurrentTime:  50,
		PlaybackRate: 1,
		LastUpdate:   4000,
	})

	videoId := "xyz98765432"
	isPlaying := false
	zero := 0.0
	// the apply triggers a reconcile pass through the store subscription
	store.Apply(domain.PlayerPatch{
		VideoId:     &videoId,
		IsPlaying:   &isPlaying,
		CurrentTime: &zero,
		LastUpdate:  5000,
	})

	loads, _, _, _ := engine.commands()
	require.Equal(t, 1, len(loads))
	assert.Equal(t, "xyz98765432", loads[0])

	// until the engine reports cued, no further commands are issued
	r.Reconcile(context.Background())
	_, plays, pauses, seeks := engine.commands()
	assert.Equal(t, 0, plays)
	assert.Equal(t, 0, pauses)
	assert.Empty(t, seeks)

	r.now = func() int64 { return 5000 }
	r.HandleEngineStateChange(context.Background(), player.StateCued)
	_, plays, _, _ = engine.commands()
	assert.Equal(t, 0, plays, "paused room must stay paused after a load")
}

func TestHandleEngineStateChangeProposals(t *testing.T) {
	engine := newFakeEngine()
	engine.set(player.StatePlaying, 120)

	r, store, channel := newTestReconciler(t, engine, domain.PlayerState{
		VideoId:      "abc12345678",
		IsPlaying:    true,
		CurrentTime:  120,
		PlaybackRate: 1,
		LastUpdate:   4000,
	})
	store.now = func() int64 { return 5000 }
	r.now = func() int64 { return 5000 }

	// a transition that already matches the room proposes nothing
	r.HandleEngineStateChange(context.Background(), player.StatePlaying)
	assert.Empty(t, channel.publishedPatches(), "matching transition must not echo")

	// a local pause at the player becomes a room pause
	engine.set(player.StatePaused, 120)
	r.HandleEngineStateChange(context.Background(), player.StatePaused)
	published := channel.publishedPatches()
	require.Equal(t, 1, len(published))
	require.NotNil(t, published[0].IsPlaying)
	assert.False(t, *published[0].IsPlaying)
	require.NotNil(t, published[0].CurrentTime)
	assert.Equal(t, 120.0, *published[0].CurrentTime)

	// now that the room is paused, the transition is matched and quiet
	r.HandleEngineStateChange(context.Background(), player.StatePaused)
	assert.Equal(t, 1, len(channel.publishedPatches()))
}

func TestHandleEngineEndedPausesAtEnd(t *testing.T) {
	engine := newFakeEngine()
	engine.set(player.StateEnded, 300)

	r, store, channel := newTestReconciler(t, engine, domain.PlayerState{
		VideoId:      "abc12345678",
		IsPlaying:    true,
		CurrentTime:  295,
		PlaybackRate: 1,
		LastUpdate:   4000,
	})
	store.now = func() int64 { return 5000 }
	r.now = func() int64 { return 5000 }

	r.HandleEngineStateChange(context.Background(), player.StateEnded)

	state := store.State()
	assert.False(t, state.IsPlaying, "running out must pause the room")
	assert.Equal(t, 300.0, state.CurrentTime, "room must rest at the video end")
	require.Equal(t, 1, len(channel.publishedPatches()))

	// redelivered ended transitions are matched and quiet
	r.HandleEngineStateChange(context.Background(), player.StateEnded)
	assert.Equal(t, 1, len(channel.publishedPatches()))
}

func TestSkipClampsAtStart(t *testing.T) {
	engine := newFakeEngine()
	engine.set(player.StatePaused, 3)

	r, store, channel := newTestReconciler(t, engine, domain.PlayerState{
		VideoId:      "abc12345678",
		IsPlaying:    false,
		CurrentTime:  3,
		PlaybackRate: 1,
		LastUpdate:   4000,
	})
	clock := int64(4000)
	store.now = func() int64 { clock += 1000; return clock }
	r.now = func() int64 { return clock }

	r.Skip(context.Background(), -10)

	assert.Equal(t, 0.0, store.State().CurrentTime, "skip back must clamp at the start")
	published := channel.publishedPatches()
	require.Equal(t, 1, len(published))
	require.NotNil(t, published[0].CurrentTime)
	assert.Equal(t, 0.0, *published[0].CurrentTime)

	r.Skip(context.Background(), 10)
	assert.Equal(t, 10.0, store.State().CurrentTime)
}

func TestSeekSuppressionWhileScrubbing(t *testing.T) {
	engine := newFakeEngine()
	engine.set(player.StatePaused, 500)

	r, store, channel := newTestReconciler(t, engine, domain.PlayerState{
		VideoId:      "abc12345678",
		IsPlaying:    false,
		CurrentTime:  100,
		PlaybackRate: 1,
		LastUpdate:   4000,
	})
	store.now = func() int64 { return 5000 }

	r.BeginSeek()
	r.Reconcile(context.Background())
	_, _, _, seeks := engine.commands()
	assert.Empty(t, seeks, "scrubbing must not be fought by drift correction")

	r.CommitSeek(context.Background(), 500)

	published := channel.publishedPatches()
	require.Equal(t, 1, len(published))
	require.NotNil(t, published[0].CurrentTime)
	assert.Equal(t, 500.0, *published[0].CurrentTime)
	assert.Equal(t, 500.0, store.State().CurrentTime)
}

func TestBroadcastPositionOnlyWhilePlaying(t *testing.T) {
	engine := newFakeEngine()
	engine.set(player.StatePaused, 100)

	r, store, channel := newTestReconciler(t, engine, domain.PlayerState{
		VideoId:      "abc12345678",
		IsPlaying:    false,
		CurrentTime:  100,
		PlaybackRate: 1,
		LastUpdate:   4000,
	})
	store.now = func() int64 { return 5000 }

	r.broadcastPosition(context.Background())
	assert.Empty(t, channel.publishedPatches(), "paused replica must not broadcast")

	isPlaying := true
	store.Apply(domain.PlayerPatch{IsPlaying: &isPlaying, LastUpdate: 4500})
	engine.set(player.StatePlaying, 104)

	r.broadcastPosition(context.Background())
	published := channel.publishedPatches()
	require.Equal(t, 1, len(published))
	require.NotNil(t, published[0].CurrentTime)
	assert.Equal(t, 104.0, *published[0].CurrentTime, "broadcast must carry the engine playhead")
}
