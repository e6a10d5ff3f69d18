// Package frameseq plays animated multi-frame images (GIF/WebP-like frame
// sequences) with frame decoding kept off the rendering path.
//
// # Overview
//
// frameseq is the playback companion to the gogpu drawing libraries. A
// [Player] owns two pixel buffers: the front buffer is what [Player.Draw]
// blits to the host surface, while a shared background worker decodes the
// next frame into the back buffer. When the current frame's display
// duration has elapsed the buffers swap identities inside the next Draw
// call, so the renderer never waits on a decoder and a frame is never
// shown half-decoded.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/frameseq"
//	    "github.com/gogpu/frameseq/gifseq"
//	)
//
//	src, _ := gifseq.Decode(f)
//	player, err := frameseq.NewPlayer(src, frameseq.NewPool(4))
//	if err != nil {
//	    // ...
//	}
//	defer player.Destroy()
//
//	player.Start()
//	// In the host's render loop:
//	player.Draw(surface, image.Rect(0, 0, 256, 256))
//
// # Architecture
//
// The library is organized into:
//   - Public API: Player, Source, DecoderState, BitmapProvider, Scheduler
//   - Sources: gifseq (animated GIF), webpseq (still WebP and images)
//   - Buffers: Bitmap plus the pooled and allocating providers
//
// Decoding for all players in the process is serialized on one lazily
// started worker goroutine. Timed wake-ups and listener notifications are
// delivered through a [Scheduler]; hosts with a dedicated render thread
// supply their own implementation, everyone else uses the timer-backed
// default.
//
// # Logging
//
// frameseq produces no log output by default. Call [SetLogger] to enable
// logging, matching the convention used by gogpu/gg.
package frameseq
