package chat

import "errors"

var (
	// ErrNotInChannel is returned when an operation requires the session to
	// be joined to a channel and it is not.
	ErrNotInChannel = errors.New("not in a channel")

	// ErrAlreadyInChannel is returned when a session tries to join a second
	// channel without leaving its current one first.
	ErrAlreadyInChannel = errors.New("already in a channel")

	// ErrInvalidMessageKind is returned for message kinds other than text
	// and image.
	ErrInvalidMessageKind = errors.New("invalid message kind")

	// ErrUnknownMessage is returned when a reaction targets a message id
	// that does not exist in the caller's current channel.
	ErrUnknownMessage = errors.New("unknown message")

	// ErrSessionClosed is returned when a join arrives for a session that
	// has already been disconnected.
	ErrSessionClosed = errors.New("session closed")
)
