// Command frameplay plays an animated image through the frameseq
// pipeline and writes each presented frame as a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/frameseq"
	"github.com/gogpu/frameseq/gifseq"
	"github.com/gogpu/frameseq/webpseq"
)

type config struct {
	Input     string `toml:"input"`
	OutDir    string `toml:"out_dir"`
	MaxFrames int    `toml:"max_frames"`
	Loops     int    `toml:"loops"`
	Infinite  bool   `toml:"infinite"`
}

func main() {
	var (
		configPath = flag.String("config", "", "optional TOML config file")
		input      = flag.String("input", "", "input animation (.gif or .webp)")
		outDir     = flag.String("outdir", "frames", "output directory for PNG frames")
		maxFrames  = flag.Int("frames", 64, "maximum number of frames to write")
		loops      = flag.Int("loops", 0, "loop count override (0 = source default)")
		infinite   = flag.Bool("infinite", false, "loop forever (bounded by -frames)")
	)
	flag.Parse()

	cfg := config{
		Input:     *input,
		OutDir:    *outDir,
		MaxFrames: *maxFrames,
		Loops:     *loops,
		Infinite:  *infinite,
	}
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			log.Fatalf("Failed to read config %s: %v", *configPath, err)
		}
	}
	if cfg.Input == "" {
		log.Fatal("no input: pass -input or set input in the config file")
	}

	src, err := openSource(cfg.Input)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", cfg.Input, err)
	}

	written, err := play(src, cfg)
	if err != nil {
		log.Fatalf("Playback failed: %v", err)
	}
	log.Printf("Wrote %d frames to %s\n", written, cfg.OutDir)
}

// openSource picks a decoder from the file extension.
func openSource(path string) (frameseq.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gif":
		return gifseq.Decode(f)
	case ".webp":
		return webpseq.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}

// play drives a Player with the default timer scheduler, waiting on the
// invalidate callback between draws, and writes each presented frame.
func play(src frameseq.Source, cfg config) (int, error) {
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return 0, err
	}

	invalidated := make(chan struct{}, 1)
	finished := make(chan struct{})

	opts := []frameseq.Option{
		frameseq.WithInvalidate(func() {
			select {
			case invalidated <- struct{}{}:
			default:
			}
		}),
		frameseq.WithListener(doneListener{ch: finished}),
	}
	if cfg.Infinite {
		opts = append(opts, frameseq.WithLoopBehavior(frameseq.LoopInfinite))
	} else if cfg.Loops > 0 {
		opts = append(opts, frameseq.WithLoopCount(cfg.Loops))
	}

	player, err := frameseq.NewPlayer(src, frameseq.NewPool(4), opts...)
	if err != nil {
		return 0, err
	}
	defer player.Destroy()

	dst := image.NewRGBA(image.Rect(0, 0, player.Width(), player.Height()))
	if err := player.Start(); err != nil {
		return 0, err
	}

	written := 0
	for written < cfg.MaxFrames {
		if err := player.Draw(dst, dst.Bounds()); err != nil {
			return written, err
		}
		if err := writeFrame(cfg.OutDir, written, dst); err != nil {
			return written, err
		}
		written++

		select {
		case <-invalidated:
		case <-finished:
			// Present the settled last frame once more and stop.
			if written < cfg.MaxFrames {
				if err := player.Draw(dst, dst.Bounds()); err != nil {
					return written, err
				}
				if err := writeFrame(cfg.OutDir, written, dst); err != nil {
					return written, err
				}
				written++
			}
			return written, nil
		case <-time.After(5 * time.Second):
			return written, fmt.Errorf("no frame became ready within 5s (decode error: %v)", player.Err())
		}
	}
	return written, nil
}

func writeFrame(dir string, index int, img image.Image) error {
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("frame_%04d.png", index)))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type doneListener struct {
	ch chan struct{}
}

func (l doneListener) OnStart(*frameseq.Player) {}

func (l doneListener) OnFinished(*frameseq.Player) { close(l.ch) }
