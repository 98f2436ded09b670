// Package player defines the boundary to the local media engine. The engine
// itself lives outside this module (a YouTube iframe, an mpv process); the
// sync core only issues commands and observes state transitions through this
// interface.
package player

import "errors"

// ErrNotReady is returned by engine methods while the engine has not
// finished loading a video. Callers treat it as "try again on the next
// state notification", not as a failure.
var ErrNotReady = errors.New("player is not ready")

type PlayState int

const (
	StateUnstarted PlayState = iota
	StatePlaying
	StatePaused
	StateBuffering
	StateEnded
	StateCued
)

func (s PlayState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateEnded:
		return "ended"
	case StateCued:
		return "cued"
	default:
		return "unknown"
	}
}

type Engine interface {
	// Load replaces the current video. Completion is reported through a
	// state change to StateCued once the engine is ready again.
	Load(videoId string) error
	Play() error
	Pause() error
	// Seek moves the playhead. exact requests a non-keyframe-aligned seek.
	Seek(seconds float64, exact bool) error
	CurrentTime() (float64, error)
	Duration() (float64, error)
	State() PlayState
}
