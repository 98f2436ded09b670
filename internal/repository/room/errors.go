package room

import "errors"

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrParticipantNotFound = errors.New("participant not found")
)
