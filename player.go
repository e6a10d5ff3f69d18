// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameseq

import (
	"fmt"
	"image"
	"sync"
	"time"

	"golang.org/x/image/draw"
)

// Frame delays below minFrameDelay are replaced by defaultFrameDelay.
// These constants imitate common browser behavior for WebP/GIF, where a
// 0 delay is undefined; without the floor a zero-delay source would turn
// the swap cycle into a busy loop.
const (
	minFrameDelay     = 100 * time.Millisecond
	defaultFrameDelay = 100 * time.Millisecond
)

// LoopBehavior selects how a Player loops its sequence.
type LoopBehavior int

const (
	// LoopOnce plays the sequence a single time.
	LoopOnce LoopBehavior = 1 + iota

	// LoopInfinite loops continuously. OnFinished is never called.
	LoopInfinite

	// LoopDefault follows the loop count declared by the Source (or
	// the Player's SetLoopCount override).
	LoopDefault
)

// playState tracks where the pipeline is between two swaps. The terminal
// destroyed condition is a separate flag so every state can observe it.
type playState int

const (
	stateIdle playState = iota
	stateScheduled
	stateDecoding
	stateWaitingToSwap
	stateReadyToSwap
)

// Player animates a frame sequence using two bitmaps: front is what Draw
// blits, back is what the shared decode worker fills. Buffer identities
// swap inside Draw once the pending frame's display time has arrived;
// ownership is never shared between the renderer and the worker.
//
// All exported methods are safe for concurrent use. Draw itself is meant
// to be called from a single render goroutine, as with any surface.
type Player struct {
	source    Source
	decoder   DecoderState
	provider  BitmapProvider
	scheduler Scheduler

	mu    sync.Mutex
	front *Bitmap
	back  *Bitmap
	state playState

	// decodeInFlight is true from the moment the worker claims the back
	// buffer until its completion checkpoint runs. It is deliberately
	// separate from state: Stop resets state to idle even mid-decode,
	// but the back buffer must not be released out from under the
	// worker, so Destroy consults this flag, not state.
	decodeInFlight bool

	destroyed    bool
	nextFrame    int // next frame index to decode; -1 = not running
	lastSwap     time.Time
	nextSwap     time.Time
	loopBehavior LoopBehavior
	loopCount    int // LoopDefault override; 0 = use source default
	currentLoop  int // completed loops this run
	listener     Listener
	invalidate   func()
	decodeErr    error

	// Seams for deterministic tests.
	now    func() time.Time
	submit func(*Player)
}

// NewPlayer creates a Player for src, acquiring both of its bitmaps from
// provider and synchronously decoding frame 0 into the front buffer.
//
// Construction fails with ErrInvalidBitmap if the provider returns a
// bitmap smaller than the source's intrinsic size, and with a wrapped
// ErrDecode if frame 0 cannot be decoded. On failure every acquired
// bitmap is released and no partial Player exists.
func NewPlayer(src Source, provider BitmapProvider, opts ...Option) (*Player, error) {
	if src == nil {
		return nil, fmt.Errorf("frameseq: source must not be nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("frameseq: provider must not be nil")
	}

	o := defaultPlayerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = DefaultScheduler()
	}

	width, height := src.Width(), src.Height()

	front, err := acquireValidated(provider, width, height)
	if err != nil {
		return nil, err
	}
	back, err := acquireValidated(provider, width, height)
	if err != nil {
		provider.Release(front)
		return nil, err
	}

	decoder, err := src.NewDecoderState()
	if err != nil {
		provider.Release(front)
		provider.Release(back)
		return nil, fmt.Errorf("frameseq: create decoder state: %w", err)
	}

	if _, err := decoder.DecodeFrame(0, front, -1); err != nil {
		decoder.Destroy()
		provider.Release(front)
		provider.Release(back)
		return nil, fmt.Errorf("%w: frame 0: %w", ErrDecode, err)
	}

	return &Player{
		source:       src,
		decoder:      decoder,
		provider:     provider,
		scheduler:    o.scheduler,
		front:        front,
		back:         back,
		state:        stateIdle,
		nextFrame:    -1,
		loopBehavior: o.loopBehavior,
		loopCount:    o.loopCount,
		listener:     o.listener,
		invalidate:   o.invalidate,
		now:          time.Now,
		submit:       submitDecode,
	}, nil
}

// acquireValidated acquires a bitmap and checks it against the minimum
// dimensions, releasing it again if it fails validation.
func acquireValidated(provider BitmapProvider, minWidth, minHeight int) (*Bitmap, error) {
	b := provider.Acquire(minWidth, minHeight)
	if b == nil {
		return nil, fmt.Errorf("%w: got nil, need %dx%d", ErrInvalidBitmap, minWidth, minHeight)
	}
	if b.Width() < minWidth || b.Height() < minHeight {
		provider.Release(b)
		return nil, fmt.Errorf("%w: got %dx%d, need %dx%d",
			ErrInvalidBitmap, b.Width(), b.Height(), minWidth, minHeight)
	}
	return b, nil
}

// Start begins (or restarts) playback. It is a no-op on a player that is
// already animating; restarting a player that finished its loops resets
// the sequence to the beginning. The OnStart notification is delivered
// through the scheduler, not inline, so it cannot overtake the render
// loop. Returns ErrDestroyed after Destroy.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrDestroyed
	}
	if p.state != stateIdle {
		// Already scheduled, decoding, or waiting on a swap.
		return nil
	}
	if p.nextFrame >= 0 {
		// Finished terminal position: restart from the top.
		p.nextFrame = -1
	}
	p.currentLoop = 0
	p.decodeErr = nil
	// Frame 0 is already on screen; its display interval starts now.
	p.lastSwap = p.now()

	p.scheduler.Schedule(p, p.now(), p.notifyStart)
	p.scheduleDecodeLocked()
	Logger().Debug("frameseq: playback started", "frames", p.source.FrameCount())
	return nil
}

// Stop halts playback and cancels any scheduled callbacks. The front
// buffer keeps showing the last committed frame. Idempotent, and allowed
// after Destroy.
func (p *Player) Stop() {
	p.mu.Lock()
	p.nextFrame = -1
	p.state = stateIdle
	p.mu.Unlock()

	p.scheduler.Cancel(p)
}

// IsRunning reports whether playback is active.
func (p *Player) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextFrame >= 0 && !p.destroyed
}

// SetVisible is a convenience for hosts mirroring view visibility into
// playback: hiding stops the player, showing with restart stops and
// restarts it. The returned error is Start's, if a restart happened.
func (p *Player) SetVisible(visible, restart bool) error {
	if !visible {
		p.Stop()
		return nil
	}
	if restart {
		p.Stop()
		return p.Start()
	}
	return nil
}

// SetListener registers the playback listener, replacing any previous
// one. Safe to call at any time before Destroy.
func (p *Player) SetListener(l Listener) {
	p.mu.Lock()
	p.listener = l
	p.mu.Unlock()
}

// SetLoopBehavior changes the loop policy. Takes effect at the next
// loop-boundary decision.
func (p *Player) SetLoopBehavior(b LoopBehavior) {
	p.mu.Lock()
	p.loopBehavior = b
	p.mu.Unlock()
}

// SetLoopCount overrides the source's declared loop count for the
// LoopDefault policy. Values <= 0 restore the source default.
func (p *Player) SetLoopCount(n int) {
	p.mu.Lock()
	p.loopCount = n
	p.mu.Unlock()
}

// Width returns the intrinsic width of the sequence.
func (p *Player) Width() int { return p.source.Width() }

// Height returns the intrinsic height of the sequence.
func (p *Player) Height() int { return p.source.Height() }

// Opaque reports whether the sequence is fully opaque.
func (p *Player) Opaque() bool { return p.source.Opaque() }

// Err returns the fatal decode error that stopped playback, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.decodeErr
}

// Destroy permanently tears the player down: the decoder state is
// destroyed, the front bitmap is released, and the back bitmap is
// released now unless a decode is in flight, in which case the worker's
// completion path routes it back to the provider. Repeated calls are
// no-ops; every other operation afterward fails with ErrDestroyed.
func (p *Player) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	releaseFront := p.front
	p.front = nil
	var releaseBack *Bitmap
	if !p.decodeInFlight {
		releaseBack = p.back
		p.back = nil
	}
	p.destroyed = true
	p.mu.Unlock()

	p.decoder.Destroy()
	p.provider.Release(releaseFront)
	if releaseBack != nil {
		p.provider.Release(releaseBack)
	}
	p.scheduler.Cancel(p)
	Logger().Debug("frameseq: player destroyed", "backDeferred", releaseBack == nil)
}

// Draw runs the swap protocol and blits the front buffer into dest on
// dst, scaling if dest differs from the intrinsic size. Opaque sources
// are copied without alpha compositing. Draw always blits, whether or
// not a swap happened this call. Returns ErrDestroyed after Destroy.
func (p *Player) Draw(dst draw.Image, dest image.Rectangle) error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return ErrDestroyed
	}

	now := p.now()
	if p.state == stateWaitingToSwap && !now.Before(p.nextSwap) {
		// The scheduled wake may have been missed or not delivered
		// yet; the clock says the swap is due, so self-heal.
		p.state = stateReadyToSwap
	}

	if p.nextFrame >= 0 && p.state == stateReadyToSwap {
		// The surface consumed the previous front during the last
		// draw, so nothing references it anymore and it is safe to
		// retarget as the next decode destination.
		p.front, p.back = p.back, p.front
		p.lastSwap = now

		continueLooping := true
		if p.nextFrame >= p.source.FrameCount()-1 {
			if p.loopBehavior != LoopInfinite &&
				(p.loopBehavior == LoopOnce || p.currentLoop >= p.targetLoopsLocked()) {
				continueLooping = false
			}
		}

		if continueLooping {
			p.scheduleDecodeLocked()
		} else {
			// nextFrame stays put so IsRunning reflects the last
			// committed state until Stop or Start.
			p.state = stateIdle
			p.scheduler.Schedule(p, now, p.notifyFinished)
		}
	}

	front := p.front
	opaque := p.source.Opaque()
	p.mu.Unlock()

	// Blit outside the lock; front is only ever retargeted by Draw
	// itself, and Draw runs on a single render goroutine.
	op := draw.Over
	if opaque {
		op = draw.Src
	}
	src := front.RGBA()
	srcBounds := image.Rect(0, 0, p.source.Width(), p.source.Height())
	if dest.Dx() == srcBounds.Dx() && dest.Dy() == srcBounds.Dy() {
		draw.Copy(dst, dest.Min, src, srcBounds, op, nil)
	} else {
		draw.ApproxBiLinear.Scale(dst, dest, src, srcBounds, op, nil)
	}
	return nil
}

// targetLoopsLocked returns the loop count the LoopDefault policy
// compares against. Caller holds p.mu.
func (p *Player) targetLoopsLocked() int {
	if p.loopCount > 0 {
		return p.loopCount
	}
	return p.source.DefaultLoopCount()
}

// scheduleDecodeLocked advances the frame cursor and hands the player to
// the decode worker. Caller holds p.mu.
//
// The cursor advances by 2 because the pipeline interleaves two buffer
// generations: each buffer receives every other frame index while swaps
// happen on the alternate draws. The decoder's previous-frame hint is
// derived from the same stride (see runDecode).
func (p *Player) scheduleDecodeLocked() {
	p.state = stateScheduled
	p.nextFrame += 2

	if p.nextFrame > p.source.FrameCount()-1 {
		// Passing the end completes a traversal, whether the cursor
		// wraps or clamps; counting both keeps the finished decision
		// aligned with the final displayed frame.
		p.currentLoop++
		if p.loopBehavior != LoopInfinite &&
			(p.loopBehavior == LoopOnce || p.currentLoop >= p.targetLoopsLocked()) {
			// No further loops: hold at the last frame.
			p.nextFrame = p.source.FrameCount() - 1
		} else {
			p.nextFrame = 0
		}
	}

	p.submit(p)
}

// runDecode executes one decode job on the worker goroutine. Pixel
// decoding happens outside the lock; only the state transitions at the
// start and completion checkpoints happen inside it.
func (p *Player) runDecode() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	nextFrame := p.nextFrame
	if nextFrame < 0 {
		// Stopped after scheduling; nothing to do.
		p.mu.Unlock()
		return
	}
	bitmap := p.back
	p.state = stateDecoding
	p.decodeInFlight = true
	p.mu.Unlock()

	previous := nextFrame - 2
	if previous < 0 {
		previous = -1
	}
	delay, err := p.decoder.DecodeFrame(nextFrame, bitmap, previous)
	if err != nil {
		p.failDecode(nextFrame, err)
		return
	}
	if delay < minFrameDelay {
		delay = defaultFrameDelay
	}

	var (
		wakeAt  time.Time
		wake    bool
		release *Bitmap
	)
	p.mu.Lock()
	p.decodeInFlight = false
	if p.destroyed {
		// Destroyed while the decode was in flight. The render side
		// already released front; the orphaned back buffer cannot
		// reach the render goroutine safely, so route it to the
		// provider from here.
		release = p.back
		p.back = nil
	} else if p.nextFrame >= 0 && p.state == stateDecoding {
		p.nextSwap = p.lastSwap.Add(delay)
		p.state = stateWaitingToSwap
		wakeAt = p.nextSwap
		wake = true
	}
	// Otherwise Stop raced the decode; drop the result on the floor.
	p.mu.Unlock()

	if wake {
		p.scheduler.Schedule(p, wakeAt, p.tick)
	}
	if release != nil {
		p.provider.Release(release)
	}
}

// failDecode records a fatal decode error and leaves the player safely
// stopped. The back bitmap stays owned by the player for release at
// Destroy, unless destruction already happened, in which case it is
// routed to the provider here.
func (p *Player) failDecode(frame int, err error) {
	var release *Bitmap
	p.mu.Lock()
	p.decodeInFlight = false
	if p.destroyed {
		release = p.back
		p.back = nil
	} else {
		p.decodeErr = fmt.Errorf("%w: frame %d: %w", ErrDecode, frame, err)
		p.nextFrame = -1
		p.state = stateIdle
	}
	p.mu.Unlock()

	if release != nil {
		p.provider.Release(release)
	}
	Logger().Warn("frameseq: frame decode failed; player stopped",
		"frame", frame, "err", err)
}

// tick is the scheduled wake that promotes a decoded frame to
// ready-to-swap once its display time arrives, then asks the host to
// redraw.
func (p *Player) tick() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	promoted := false
	if p.nextFrame >= 0 && p.state == stateWaitingToSwap {
		p.state = stateReadyToSwap
		promoted = true
	}
	invalidate := p.invalidate
	p.mu.Unlock()

	if promoted && invalidate != nil {
		invalidate()
	}
}

// notifyStart delivers OnStart. Runs via the scheduler.
func (p *Player) notifyStart() {
	p.mu.Lock()
	l := p.listener
	p.mu.Unlock()

	if l != nil {
		l.OnStart(p)
	}
}

// notifyFinished delivers OnFinished and resets the loop counter so a
// later Start begins a fresh run. Runs via the scheduler.
func (p *Player) notifyFinished() {
	p.mu.Lock()
	l := p.listener
	p.currentLoop = 0
	p.mu.Unlock()

	if l != nil {
		l.OnFinished(p)
	}
}
