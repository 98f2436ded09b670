package room

import (
	"context"
	"sync"

	"github.com/tiger020517/youtube-watch/internal/client/player"
	"github.com/tiger020517/youtube-watch/internal/client/transport"
	"github.com/tiger020517/youtube-watch/internal/domain"
)

// fakeEngine records the commands the reconciler issues and plays back a
// scripted playhead.
type fakeEngine struct {
	mu          sync.Mutex
	state       player.PlayState
	currentTime float64
	duration    float64

	loads  []string
	plays  int
	pauses int
	seeks  []float64
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{state: player.StateUnstarted, duration: 300}
}

func (e *fakeEngine) Load(videoId string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads = append(e.loads, videoId)
	e.state = player.StateCued
	e.currentTime = 0
	return nil
}

func (e *fakeEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plays++
	e.state = player.StatePlaying
	return nil
}

func (e *fakeEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauses++
	e.state = player.StatePaused
	return nil
}

func (e *fakeEngine) Seek(seconds float64, exact bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, seconds)
	e.currentTime = seconds
	return nil
}

func (e *fakeEngine) CurrentTime() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTime, nil
}

func (e *fakeEngine) Duration() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration, nil
}

func (e *fakeEngine) State() player.PlayState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *fakeEngine) set(state player.PlayState, currentTime float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
	e.currentTime = currentTime
}

func (e *fakeEngine) commands() (loads []string, plays, pauses int, seeks []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.loads...), e.plays, e.pauses, append([]float64(nil), e.seeks...)
}

// fakeChannel records publishes without fanning anything out.
type fakeChannel struct {
	mu        sync.Mutex
	published []domain.PlayerPatch
	inserted  []domain.ChatMessage

	onPatch transport.PatchHandler
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{}
}

func (c *fakeChannel) PublishPatch(ctx context.Context, patch domain.PlayerPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, patch)
	return nil
}

func (c *fakeChannel) InsertMessage(ctx context.Context, msg domain.ChatMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inserted = append(c.inserted, msg)
	return nil
}

func (c *fakeChannel) JoinPresence(ctx context.Context, self domain.Participant) error {
	return nil
}

func (c *fakeChannel) LeavePresence(ctx context.Context) error {
	return nil
}

func (c *fakeChannel) OnPatch(h transport.PatchHandler) {
	c.mu.Lock()
	c.onPatch = h
	c.mu.Unlock()
}

func (c *fakeChannel) OnMessageInserted(transport.MessageHandler) {}

func (c *fakeChannel) OnPresenceChanged(transport.PresenceHandler) {}

func (c *fakeChannel) OnStatusChanged(transport.StatusHandler) {}

func (c *fakeChannel) Close() error {
	return nil
}

func (c *fakeChannel) publishedPatches() []domain.PlayerPatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.PlayerPatch(nil), c.published...)
}
