// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webpseq

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/frameseq"
)

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), A: 0xff})
		}
	}
	return img
}

func TestFromImage(t *testing.T) {
	src, err := FromImage(gradientImage(8, 4))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if src.FrameCount() != 1 || src.Width() != 8 || src.Height() != 4 {
		t.Errorf("geometry = (%d frames, %dx%d), want (1 frame, 8x4)",
			src.FrameCount(), src.Width(), src.Height())
	}
	if !src.Opaque() {
		t.Error("Opaque() = false for fully opaque input, want true")
	}
	if src.DefaultLoopCount() != 1 {
		t.Errorf("DefaultLoopCount() = %d, want 1", src.DefaultLoopCount())
	}
}

func TestFromImageRejectsInvalid(t *testing.T) {
	if _, err := FromImage(nil); err == nil {
		t.Error("FromImage(nil) succeeded, want error")
	}
	if _, err := FromImage(image.NewRGBA(image.Rectangle{})); err == nil {
		t.Error("FromImage on empty image succeeded, want error")
	}
}

func TestDecodeFrameCopiesPixels(t *testing.T) {
	src, err := FromImage(gradientImage(8, 4))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	d, err := src.NewDecoderState()
	if err != nil {
		t.Fatalf("NewDecoderState failed: %v", err)
	}
	defer d.Destroy()

	dst := frameseq.NewBitmap(8, 4)
	delay, err := d.DecodeFrame(0, dst, -1)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if delay != 0 {
		t.Errorf("delay = %v, want 0", delay)
	}
	want := color.RGBA{R: 3 * 16, G: 2 * 16, A: 0xff}
	if got := dst.RGBA().RGBAAt(3, 2); got != want {
		t.Errorf("pixel (3,2) = %v, want %v", got, want)
	}

	if _, err := d.DecodeFrame(1, dst, 0); err == nil {
		t.Error("DecodeFrame(1) succeeded, want error")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not a webp"))); err == nil {
		t.Error("Decode on garbage succeeded, want error")
	}
}
