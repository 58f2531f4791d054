package story

import "errors"

// Errors returned by the store, the navigator and the adventure engine.
// They are always wrapped with context; compare with errors.Is.
var (
	// ErrNotFound: story folder or node key absent
	ErrNotFound = errors.New("not found")
	// ErrMalformedStory: definition unreadable or the edge graph is broken
	ErrMalformedStory = errors.New("malformed story")
	// ErrInvalidEdge: the chosen label does not leave the current node
	ErrInvalidEdge = errors.New("invalid edge")
	// ErrSessionClosed: input received after a terminal node was reached
	ErrSessionClosed = errors.New("session closed")
)
