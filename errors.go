package frameseq

import "errors"

// Common errors for playback operations.
var (
	// ErrInvalidBitmap is returned when a BitmapProvider hands back a
	// bitmap that does not meet the source's minimum dimensions. No
	// partially constructed Player is ever returned alongside it.
	ErrInvalidBitmap = errors.New("frameseq: provider returned an invalid bitmap")

	// ErrDestroyed is returned when an operation other than Stop or a
	// repeated Destroy is attempted on a destroyed Player. This is a
	// programming error in the caller, never silently ignored.
	ErrDestroyed = errors.New("frameseq: player is destroyed")

	// ErrDecode wraps a Source failure to produce a frame. A decode
	// error is fatal to the owning Player: it stops safely and keeps
	// showing the last fully decoded frame.
	ErrDecode = errors.New("frameseq: frame decode failed")
)
