// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gifseq adapts animated GIFs to the frameseq Source contract.
//
// GIF frames are stored as partial paletted patches layered over a shared
// canvas with per-frame disposal rules, so producing frame i generally
// means compositing frames 0..i. The decoder state keeps its own canvas
// and last-composited index, which makes the common sequential access
// pattern incremental: asking for a later frame only applies the patches
// in between, and only a backward seek recomposes from the start.
package gifseq

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/image/draw"

	"github.com/gogpu/frameseq"
)

// Source is an animated-GIF frame sequence.
type Source struct {
	g      *gif.GIF
	width  int
	height int
	opaque bool
	loops  int
}

// Decode reads a complete GIF stream and wraps it as a Source.
func Decode(r io.Reader) (*Source, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("gifseq: decode: %w", err)
	}
	return New(g)
}

// New wraps an already decoded GIF as a Source. The GIF must have at
// least one frame and must not be mutated while the Source is in use.
func New(g *gif.GIF) (*Source, error) {
	if g == nil || len(g.Image) == 0 {
		return nil, errors.New("gifseq: no frames")
	}

	width, height := g.Config.Width, g.Config.Height
	if width <= 0 || height <= 0 {
		b := g.Image[0].Bounds()
		width, height = b.Max.X, b.Max.Y
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New("gifseq: empty canvas")
	}

	// GIF uses 0 for "loop forever" and -1 for "play once"; the Source
	// contract wants a completed-traversal count, so both collapse to 1
	// here. Hosts that want forever select LoopInfinite on the player.
	loops := g.LoopCount
	if loops <= 0 {
		loops = 1
	}

	return &Source{
		g:      g,
		width:  width,
		height: height,
		opaque: computeOpaque(g, width, height),
		loops:  loops,
	}, nil
}

// FrameCount implements frameseq.Source.
func (s *Source) FrameCount() int { return len(s.g.Image) }

// Width implements frameseq.Source.
func (s *Source) Width() int { return s.width }

// Height implements frameseq.Source.
func (s *Source) Height() int { return s.height }

// Opaque implements frameseq.Source.
func (s *Source) Opaque() bool { return s.opaque }

// DefaultLoopCount implements frameseq.Source.
func (s *Source) DefaultLoopCount() int { return s.loops }

// NewDecoderState implements frameseq.Source.
func (s *Source) NewDecoderState() (frameseq.DecoderState, error) {
	return &decoderState{
		src:    s,
		canvas: image.NewRGBA(image.Rect(0, 0, s.width, s.height)),
		last:   -1,
	}, nil
}

// computeOpaque reports whether every composited frame is fully opaque:
// the first frame must cover the whole canvas, no palette may contain a
// non-opaque entry, and no frame may dispose to (transparent) background.
func computeOpaque(g *gif.GIF, width, height int) bool {
	if g.Image[0].Bounds() != image.Rect(0, 0, width, height) {
		return false
	}
	for i, frame := range g.Image {
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			return false
		}
		pal, ok := frame.ColorModel().(color.Palette)
		if !ok {
			return false
		}
		for _, c := range pal {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// decoderState is the per-player compositing cursor.
type decoderState struct {
	src       *Source
	canvas    *image.RGBA
	saved     *image.RGBA // snapshot for DisposalPrevious frames
	last      int         // last composited frame index; -1 = pristine
	destroyed atomic.Bool
}

// DecodeFrame implements frameseq.DecoderState. The pipeline's
// previous-frame hint is not needed: the cursor's own canvas tracking
// subsumes it and stays correct across the pipeline's stride.
func (d *decoderState) DecodeFrame(index int, dst *frameseq.Bitmap, previous int) (time.Duration, error) {
	g := d.src.g
	if index < 0 || index >= len(g.Image) {
		return 0, fmt.Errorf("gifseq: frame %d out of range [0, %d)", index, len(g.Image))
	}
	if d.destroyed.Load() {
		return 0, errors.New("gifseq: decoder state destroyed")
	}

	start := 0
	if d.last >= 0 && d.last < index {
		start = d.last + 1
	} else if d.last != index {
		d.reset()
	}
	if d.last != index {
		for i := start; i <= index; i++ {
			d.compose(i)
		}
		d.last = index
	}

	bounds := image.Rect(0, 0, d.src.width, d.src.height)
	draw.Draw(dst.RGBA(), bounds, d.canvas, image.Point{}, draw.Src)

	var delay int
	if index < len(g.Delay) {
		delay = g.Delay[index]
	}
	// GIF delays are in hundredths of a second.
	return time.Duration(delay) * 10 * time.Millisecond, nil
}

// Destroy implements frameseq.DecoderState. It only marks the cursor;
// buffers stay reachable so a decode racing Destroy finishes safely.
func (d *decoderState) Destroy() {
	d.destroyed.Store(true)
}

// reset returns the canvas to its pristine pre-frame-0 state.
func (d *decoderState) reset() {
	clear(d.canvas.Pix)
	d.saved = nil
	d.last = -1
}

// compose layers frame i onto the canvas, applying the preceding frame's
// disposal first.
func (d *decoderState) compose(i int) {
	g := d.src.g
	bounds := d.canvas.Bounds()

	if i > 0 {
		prevRect := g.Image[i-1].Bounds().Intersect(bounds)
		switch d.disposal(i - 1) {
		case gif.DisposalBackground:
			draw.Draw(d.canvas, prevRect, image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			if d.saved != nil {
				copy(d.canvas.Pix, d.saved.Pix)
			}
		}
	}

	if d.disposal(i) == gif.DisposalPrevious {
		if d.saved == nil {
			d.saved = image.NewRGBA(bounds)
		}
		copy(d.saved.Pix, d.canvas.Pix)
	}

	frame := g.Image[i]
	rect := frame.Bounds().Intersect(bounds)
	draw.Draw(d.canvas, rect, frame, rect.Min, draw.Over)
}

func (d *decoderState) disposal(i int) byte {
	if i < len(d.src.g.Disposal) {
		return d.src.g.Disposal[i]
	}
	return gif.DisposalNone
}
