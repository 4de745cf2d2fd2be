package chat

import "errors"

var (
	// ErrConnect reports a failed client-side connection attempt; no session is created.
	ErrConnect = errors.New("chat: connect failed")

	// ErrRead reports a read failure other than a clean end of stream.
	ErrRead = errors.New("chat: read failed")

	// ErrWrite reports a failed delivery to one recipient.
	ErrWrite = errors.New("chat: write failed")

	// ErrSessionClosed is returned by Send once the session has been torn down.
	ErrSessionClosed = errors.New("chat: session closed")
)
