// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameseq

import "sync"

// The decode worker is one goroutine shared by every Player in the
// process, lazily started on the first decode submission and kept alive
// afterward. Serializing all decodes on one goroutine bounds decode
// concurrency the same way a background-priority decoding thread does:
// at most one frame is being produced at a time, and a given Player never
// has two decodes racing each other.
//
// Jobs carry no payload beyond the Player; the Player re-reads its own
// state under its lock when the job runs, so a job submitted before a
// Stop or Destroy simply observes the new state and drops out. If the
// queue is full the job is dropped outright: a Player whose decode never
// ran keeps showing its front buffer, and destruction does not depend on
// the job running.

const decodeQueueSize = 64

var (
	decodeOnce sync.Once
	decodeJobs chan *Player
)

// submitDecode hands a Player to the shared worker. Never blocks.
func submitDecode(p *Player) {
	decodeOnce.Do(func() {
		decodeJobs = make(chan *Player, decodeQueueSize)
		go decodeLoop(decodeJobs)
	})

	select {
	case decodeJobs <- p:
	default:
		Logger().Warn("frameseq: decode queue full, dropping job")
	}
}

func decodeLoop(jobs <-chan *Player) {
	for p := range jobs {
		p.runDecode()
	}
}
