// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameseq

import "time"

// Source describes an animated frame sequence to a Player.
//
// A Source is the decoding collaborator: it reports the sequence's
// geometry and loop metadata, and mints DecoderState cursors that produce
// pixels. frameseq ships two implementations (gifseq, webpseq); hosts
// with their own codecs implement Source directly.
//
// All metadata methods must be safe for concurrent use; they are called
// from both the render path and the decode worker.
type Source interface {
	// FrameCount returns the number of frames in the sequence, >= 1.
	FrameCount() int

	// Width returns the intrinsic width of the sequence in pixels.
	Width() int

	// Height returns the intrinsic height of the sequence in pixels.
	Height() int

	// Opaque reports whether every frame is fully opaque. Opaque
	// sources are blitted without alpha compositing.
	Opaque() bool

	// DefaultLoopCount returns the loop count declared in the source
	// data, used by the LoopDefault policy.
	DefaultLoopCount() int

	// NewDecoderState creates a decoder cursor for one Player. Each
	// Player owns exactly one cursor for its whole life; the cursor is
	// destroyed from the Player's own teardown, independent of bitmap
	// lifetime (a decode in flight may outlive Destroy).
	NewDecoderState() (DecoderState, error)
}

// DecoderState is a per-Player decoder cursor.
//
// DecodeFrame is only ever invoked from the shared decode worker (or
// synchronously from NewPlayer for frame 0), so implementations need not
// be safe for concurrent DecodeFrame calls. Destroy may race a pending
// DecodeFrame on a different goroutine and must be idempotent.
type DecoderState interface {
	// DecodeFrame decodes frame index into dst and returns the frame's
	// intrinsic display duration. previous is a hint naming the frame
	// whose pixels the caller last decoded into dst, for decoders that
	// can apply inter-frame deltas; -1 means no valid previous frame.
	// The hint is advisory: implementations are free to ignore it and
	// decode from scratch.
	//
	// An error is fatal to the owning Player; frames are never retried.
	DecodeFrame(index int, dst *Bitmap, previous int) (time.Duration, error)

	// Destroy releases the cursor. Idempotent.
	Destroy()
}
