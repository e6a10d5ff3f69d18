// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package webpseq adapts WebP images to the frameseq Source contract.
//
// The decoder behind it handles still images only, so a webpseq Source
// always reports a single frame. It still plays through the full
// pipeline: the player decodes the frame once, fires OnStart and
// OnFinished, and settles on it.
package webpseq

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/gogpu/frameseq"
)

// Source is a single-frame image sequence.
type Source struct {
	img    *image.RGBA
	opaque bool
}

// Decode reads a WebP stream and wraps it as a Source.
func Decode(r io.Reader) (*Source, error) {
	img, err := webp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("webpseq: decode: %w", err)
	}
	return FromImage(img)
}

// FromImage wraps any image as a single-frame Source. The pixels are
// copied, so the input may be reused afterwards.
func FromImage(img image.Image) (*Source, error) {
	if img == nil {
		return nil, errors.New("webpseq: nil image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("webpseq: empty image")
	}

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	return &Source{img: rgba, opaque: rgba.Opaque()}, nil
}

// FrameCount implements frameseq.Source.
func (s *Source) FrameCount() int { return 1 }

// Width implements frameseq.Source.
func (s *Source) Width() int { return s.img.Bounds().Dx() }

// Height implements frameseq.Source.
func (s *Source) Height() int { return s.img.Bounds().Dy() }

// Opaque implements frameseq.Source.
func (s *Source) Opaque() bool { return s.opaque }

// DefaultLoopCount implements frameseq.Source.
func (s *Source) DefaultLoopCount() int { return 1 }

// NewDecoderState implements frameseq.Source. The state is a plain
// pixel copy and may be created any number of times.
func (s *Source) NewDecoderState() (frameseq.DecoderState, error) {
	return &decoderState{src: s}, nil
}

type decoderState struct {
	src *Source
}

// DecodeFrame implements frameseq.DecoderState. The zero delay is
// floored by the player's swap schedule.
func (d *decoderState) DecodeFrame(index int, dst *frameseq.Bitmap, previous int) (time.Duration, error) {
	if index != 0 {
		return 0, fmt.Errorf("webpseq: frame %d out of range [0, 1)", index)
	}
	draw.Draw(dst.RGBA(), d.src.img.Bounds(), d.src.img, image.Point{}, draw.Src)
	return 0, nil
}

// Destroy implements frameseq.DecoderState.
func (d *decoderState) Destroy() {}
