package client

import "errors"

var (
	// ErrSessionClosed is returned by requests made after the session loop exited.
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownLayer is returned when switching to a layer id not in the catalog.
	ErrUnknownLayer = errors.New("unknown map layer")
	// ErrPositionUnavailable means a position source has no usable fix.
	ErrPositionUnavailable = errors.New("position unavailable")
	// ErrNoClipboard is reported when copying without a clipboard configured.
	ErrNoClipboard = errors.New("clipboard not available")
)
