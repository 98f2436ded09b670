package room

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tiger020517/youtube-watch/internal/client/player"
	"github.com/tiger020517/youtube-watch/internal/domain"
)

type ReconcilerConfig struct {
	// PausedDriftThreshold is the playhead divergence, in seconds, tolerated
	// while the room is paused before a corrective seek is issued.
	PausedDriftThreshold float64
	// PlayingDriftThreshold is the divergence tolerated while playing. It is
	// wider because buffering and clock skew move the playhead constantly.
	PlayingDriftThreshold float64
	// BroadcastInterval is how often a playing replica republishes its
	// position so late joiners and drifted peers can converge.
	BroadcastInterval time.Duration
	// SkipStep is the number of seconds a skip command jumps.
	SkipStep float64
}

func (c ReconcilerConfig) withDefaults() ReconcilerConfig {
	if c.PausedDriftThreshold <= 0 {
		c.PausedDriftThreshold = 0.5
	}
	if c.PlayingDriftThreshold <= 0 {
		c.PlayingDriftThreshold = 2
	}
	if c.BroadcastInterval <= 0 {
		c.BroadcastInterval = 5 * time.Second
	}
	if c.SkipStep <= 0 {
		c.SkipStep = 10
	}
	return c
}

// Reconciler keeps a local playback engine converged on the shared player
// state. Corrections are declarative: every pass compares the engine against
// the current store state and issues at most the commands needed to close
// the gap, so a correction the engine already made is never repeated.
type Reconciler struct {
	engine player.Engine
	store  *Store
	config ReconcilerConfig
	logger *slog.Logger
	now    func() int64

	mu            sync.Mutex
	loadedVideoId string
	pendingLoad   bool
	seeking       bool

	stopOnce sync.Once
	stop     chan struct{}
}

func NewReconciler(engine player.Engine, store *Store, config ReconcilerConfig, logger *slog.Logger) *Reconciler {
	r := &Reconciler{
		engine: engine,
		store:  store,
		config: config.withDefaults(),
		logger: logger,
		now:    func() int64 { return time.Now().UnixMilli() },
		stop:   make(chan struct{}),
	}

	store.OnChange(func(domain.PlayerState) {
		r.Reconcile(context.Background())
	})

	return r
}

// Start runs the periodic position broadcast until Stop or ctx cancellation.
func (r *Reconciler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.config.BroadcastInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				r.broadcastPosition(ctx)
			}
		}
	}()
}

func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Reconcile drives the engine toward the current store state: load the right
// video, correct drift beyond the configured threshold, and match the
// play/pause flag.
func (r *Reconciler) Reconcile(ctx context.Context) {
	state := r.store.State()

	r.mu.Lock()
	if state.VideoId != r.loadedVideoId {
		r.loadedVideoId = state.VideoId
		r.pendingLoad = true
		r.mu.Unlock()

		if err := r.engine.Load(state.VideoId); err != nil {
			r.logger.Info("failed to load video", "videoId", state.VideoId, "error", err)
		}
		// convergence resumes on the cued notification
		return
	}
	if r.pendingLoad || r.seeking {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	current, err := r.engine.CurrentTime()
	if err != nil {
		if !errors.Is(err, player.ErrNotReady) {
			r.logger.Info("failed to read playhead", "error", err)
		}
		return
	}

	expected := r.expectedTime(state)
	threshold := r.config.PausedDriftThreshold
	if state.IsPlaying {
		threshold = r.config.PlayingDriftThreshold
	}

	if math.Abs(current-expected) > threshold {
		r.logger.Debug("correcting drift", "current", current, "expected", expected)
		if err := r.engine.Seek(expected, true); err != nil {
			r.logger.Info("failed to seek", "error", err)
		}
	}

	engineState := r.engine.State()
	switch {
	case state.IsPlaying && canPlay(engineState):
		if err := r.engine.Play(); err != nil {
			r.logger.Info("failed to play", "error", err)
		}
	case !state.IsPlaying && canPause(engineState):
		if err := r.engine.Pause(); err != nil {
			r.logger.Info("failed to pause", "error", err)
		}
	}
}

// HandleEngineStateChange folds an engine transition back into the shared
// state. Transitions the reconciler itself caused match the store already
// and propose nothing, which keeps corrections from echoing between
// replicas.
func (r *Reconciler) HandleEngineStateChange(ctx context.Context, engineState player.PlayState) {
	switch engineState {
	case player.StateCued:
		r.mu.Lock()
		r.pendingLoad = false
		r.mu.Unlock()
		r.Reconcile(ctx)
	case player.StatePlaying:
		if r.store.State().IsPlaying {
			return
		}
		r.propose(ctx, domain.PlayerPatch{IsPlaying: boolPtr(true)})
	case player.StatePaused:
		state := r.store.State()
		if !state.IsPlaying {
			return
		}
		current, err := r.engine.CurrentTime()
		if err != nil {
			return
		}
		r.propose(ctx, domain.PlayerPatch{
			IsPlaying:   boolPtr(false),
			CurrentTime: &current,
		})
	case player.StateEnded:
		// the video running out pauses the room at its end so late
		// corrections do not restart it
		if !r.store.State().IsPlaying {
			return
		}
		end, err := r.engine.Duration()
		if err != nil {
			return
		}
		r.propose(ctx, domain.PlayerPatch{
			IsPlaying:   boolPtr(false),
			CurrentTime: &end,
		})
	}
}

// BeginSeek suspends drift correction while the local user is scrubbing.
func (r *Reconciler) BeginSeek() {
	r.mu.Lock()
	r.seeking = true
	r.mu.Unlock()
}

// CommitSeek ends a scrub and publishes the landing position.
func (r *Reconciler) CommitSeek(ctx context.Context, seconds float64) {
	r.mu.Lock()
	r.seeking = false
	r.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	r.propose(ctx, domain.PlayerPatch{CurrentTime: &seconds})
}

// Skip jumps the shared playhead by delta seconds, clamped at the start of
// the video.
func (r *Reconciler) Skip(ctx context.Context, delta float64) {
	target := r.expectedTime(r.store.State()) + delta
	if target < 0 {
		target = 0
	}
	r.propose(ctx, domain.PlayerPatch{CurrentTime: &target})
}

// broadcastPosition republishes the position of a playing replica so peers
// that missed a patch converge within one interval.
func (r *Reconciler) broadcastPosition(ctx context.Context) {
	if !r.store.State().IsPlaying {
		return
	}

	r.mu.Lock()
	busy := r.pendingLoad || r.seeking
	r.mu.Unlock()
	if busy || r.engine.State() != player.StatePlaying {
		return
	}

	current, err := r.engine.CurrentTime()
	if err != nil {
		return
	}
	r.propose(ctx, domain.PlayerPatch{CurrentTime: &current})
}

// expectedTime extrapolates where the shared playhead is now: a playing
// state advances from its stamp at the playback rate, a paused one stands
// still.
func (r *Reconciler) expectedTime(state domain.PlayerState) float64 {
	if !state.IsPlaying {
		return state.CurrentTime
	}

	elapsed := float64(r.now()-state.LastUpdate) / 1000
	if elapsed < 0 {
		elapsed = 0
	}
	rate := state.PlaybackRate
	if rate <= 0 {
		rate = domain.DefaultPlaybackRate
	}
	return state.CurrentTime + elapsed*rate
}

func (r *Reconciler) propose(ctx context.Context, patch domain.PlayerPatch) {
	if err := r.store.Propose(ctx, patch); err != nil {
		r.logger.Info("failed to propose patch", "error", err)
	}
}

func canPlay(s player.PlayState) bool {
	return s == player.StatePaused || s == player.StateCued || s == player.StateUnstarted
}

func canPause(s player.PlayState) bool {
	return s == player.StatePlaying || s == player.StateBuffering
}

func boolPtr(b bool) *bool { return &b }
