// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gifseq

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/frameseq"
)

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	green = color.RGBA{G: 0xff, A: 0xff}
	blue  = color.RGBA{B: 0xff, A: 0xff}
	clr   = color.RGBA{} // transparent
)

// solidFrame builds a paletted frame filling r with c.
func solidFrame(r image.Rectangle, c color.RGBA) *image.Paletted {
	p := image.NewPaletted(r, color.Palette{clr, c})
	for i := range p.Pix {
		p.Pix[i] = 1
	}
	return p
}

// testGIF is a 4x4 canvas with three full-frame solid colors.
func testGIF() *gif.GIF {
	full := image.Rect(0, 0, 4, 4)
	return &gif.GIF{
		Image:    []*image.Paletted{solidFrame(full, red), solidFrame(full, green), solidFrame(full, blue)},
		Delay:    []int{7, 10, 0},
		Disposal: []byte{gif.DisposalNone, gif.DisposalNone, gif.DisposalNone},
		Config:   image.Config{Width: 4, Height: 4},
	}
}

func decodeInto(t *testing.T, d frameseq.DecoderState, index int) (*frameseq.Bitmap, time.Duration) {
	t.Helper()
	dst := frameseq.NewBitmap(4, 4)
	delay, err := d.DecodeFrame(index, dst, -1)
	if err != nil {
		t.Fatalf("DecodeFrame(%d) failed: %v", index, err)
	}
	return dst, delay
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) succeeded, want error")
	}
	if _, err := New(&gif.GIF{}); err == nil {
		t.Error("New on zero-frame GIF succeeded, want error")
	}
}

func TestLoopCountMapping(t *testing.T) {
	tests := []struct {
		gifLoops int
		want     int
	}{
		{gifLoops: -1, want: 1}, // show once
		{gifLoops: 0, want: 1},  // GIF "forever" maps to one traversal
		{gifLoops: 3, want: 3},
	}
	for _, tt := range tests {
		g := testGIF()
		g.LoopCount = tt.gifLoops
		src, err := New(g)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if got := src.DefaultLoopCount(); got != tt.want {
			t.Errorf("LoopCount %d: DefaultLoopCount() = %d, want %d", tt.gifLoops, got, tt.want)
		}
	}
}

func TestSourceGeometry(t *testing.T) {
	src, err := New(testGIF())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if src.FrameCount() != 3 || src.Width() != 4 || src.Height() != 4 {
		t.Errorf("geometry = (%d frames, %dx%d), want (3 frames, 4x4)",
			src.FrameCount(), src.Width(), src.Height())
	}
	if !src.Opaque() {
		t.Error("Opaque() = false for full-coverage opaque frames, want true")
	}
}

func TestOpaqueDetection(t *testing.T) {
	partial := testGIF()
	partial.Image[0] = solidFrame(image.Rect(1, 1, 3, 3), red)
	background := testGIF()
	background.Disposal[0] = gif.DisposalBackground

	for name, g := range map[string]*gif.GIF{"partial first frame": partial, "background disposal": background} {
		src, err := New(g)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if src.Opaque() {
			t.Errorf("%s: Opaque() = true, want false", name)
		}
	}
}

func TestSequentialDecode(t *testing.T) {
	src, err := New(testGIF())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d, err := src.NewDecoderState()
	if err != nil {
		t.Fatalf("NewDecoderState failed: %v", err)
	}
	defer d.Destroy()

	for i, want := range []color.RGBA{red, green, blue} {
		dst, _ := decodeInto(t, d, i)
		if got := dst.RGBA().RGBAAt(2, 2); got != want {
			t.Errorf("frame %d pixel = %v, want %v", i, got, want)
		}
	}
}

func TestDelayConversion(t *testing.T) {
	src, err := New(testGIF())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d, err := src.NewDecoderState()
	if err != nil {
		t.Fatalf("NewDecoderState failed: %v", err)
	}
	defer d.Destroy()

	tests := []struct {
		index int
		want  time.Duration
	}{
		{index: 0, want: 70 * time.Millisecond},
		{index: 1, want: 100 * time.Millisecond},
		{index: 2, want: 0},
	}
	for _, tt := range tests {
		if _, delay := decodeInto(t, d, tt.index); delay != tt.want {
			t.Errorf("frame %d delay = %v, want %v", tt.index, delay, tt.want)
		}
	}
}

// A backward seek must recompose from scratch and land on the same
// pixels a fresh cursor produces.
func TestBackwardSeekMatchesFreshDecode(t *testing.T) {
	g := testGIF()
	g.Image[1] = solidFrame(image.Rect(1, 1, 3, 3), green)
	g.Image[2] = solidFrame(image.Rect(0, 0, 2, 2), blue)
	g.Disposal = []byte{gif.DisposalNone, gif.DisposalBackground, gif.DisposalPrevious}

	src, err := New(g)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	seeker, err := src.NewDecoderState()
	if err != nil {
		t.Fatalf("NewDecoderState failed: %v", err)
	}
	decodeInto(t, seeker, 2)
	wound, _ := decodeInto(t, seeker, 1)

	fresh, err := src.NewDecoderState()
	if err != nil {
		t.Fatalf("NewDecoderState failed: %v", err)
	}
	direct, _ := decodeInto(t, fresh, 1)

	if diff := cmp.Diff(direct.Pix(), wound.Pix()); diff != "" {
		t.Errorf("backward seek diverged from fresh decode (-fresh +seek):\n%s", diff)
	}
}

func TestDisposalBackgroundClears(t *testing.T) {
	g := testGIF()
	g.Disposal[0] = gif.DisposalBackground
	g.Image[1] = solidFrame(image.Rect(0, 0, 2, 4), green)

	src, err := New(g)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d, err := src.NewDecoderState()
	if err != nil {
		t.Fatalf("NewDecoderState failed: %v", err)
	}

	dst, _ := decodeInto(t, d, 1)
	view := dst.RGBA()
	if got := view.RGBAAt(1, 1); got != green {
		t.Errorf("covered pixel = %v, want %v", got, green)
	}
	if got := view.RGBAAt(3, 3); got != clr {
		t.Errorf("disposed pixel = %v, want transparent", got)
	}
}

func TestDisposalPreviousRestores(t *testing.T) {
	g := testGIF()
	g.Disposal[1] = gif.DisposalPrevious
	g.Image[1] = solidFrame(image.Rect(0, 0, 4, 4), green)
	g.Image[2] = solidFrame(image.Rect(0, 0, 1, 1), blue)

	src, err := New(g)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d, err := src.NewDecoderState()
	if err != nil {
		t.Fatalf("NewDecoderState failed: %v", err)
	}

	dst, _ := decodeInto(t, d, 2)
	view := dst.RGBA()
	if got := view.RGBAAt(0, 0); got != blue {
		t.Errorf("frame 2 pixel = %v, want %v", got, blue)
	}
	// Frame 1 disposed to previous, so frame 0's red shows through.
	if got := view.RGBAAt(3, 3); got != red {
		t.Errorf("restored pixel = %v, want %v", got, red)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, testGIF()); err != nil {
		t.Fatalf("EncodeAll failed: %v", err)
	}

	src, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if src.FrameCount() != 3 {
		t.Errorf("FrameCount() = %d, want 3", src.FrameCount())
	}

	if _, err := Decode(bytes.NewReader([]byte("not a gif"))); err == nil {
		t.Error("Decode on garbage succeeded, want error")
	}
}

func TestFrameIndexOutOfRange(t *testing.T) {
	src, err := New(testGIF())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d, err := src.NewDecoderState()
	if err != nil {
		t.Fatalf("NewDecoderState failed: %v", err)
	}
	dst := frameseq.NewBitmap(4, 4)
	for _, index := range []int{-1, 3} {
		if _, err := d.DecodeFrame(index, dst, -1); err == nil {
			t.Errorf("DecodeFrame(%d) succeeded, want error", index)
		}
	}
}
