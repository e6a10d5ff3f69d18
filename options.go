package frameseq

// Listener receives playback notifications. Both callbacks are delivered
// through the Player's Scheduler, never inline from the decode worker,
// so a host scheduler that runs callbacks on the render thread sees them
// in single-threaded order.
type Listener interface {
	// OnStart is called once per Start.
	OnStart(p *Player)

	// OnFinished is called when the final loop completes. It is never
	// called for LoopInfinite, nor after an explicit Stop or
	// SetVisible(false).
	OnFinished(p *Player)
}

// Option configures a Player during creation.
//
// Example:
//
//	player, err := frameseq.NewPlayer(src, pool,
//	    frameseq.WithLoopBehavior(frameseq.LoopInfinite),
//	    frameseq.WithScheduler(hostScheduler),
//	)
type Option func(*playerOptions)

// playerOptions holds optional configuration for Player creation.
type playerOptions struct {
	scheduler    Scheduler
	listener     Listener
	invalidate   func()
	loopBehavior LoopBehavior
	loopCount    int
}

// defaultPlayerOptions returns the default player options.
func defaultPlayerOptions() playerOptions {
	return playerOptions{
		scheduler:    nil, // DefaultScheduler if nil
		loopBehavior: LoopDefault,
	}
}

// WithScheduler sets the Scheduler that delivers wake-ups and
// notifications. Hosts with a render thread inject their own here;
// the default is [DefaultScheduler].
func WithScheduler(s Scheduler) Option {
	return func(o *playerOptions) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// WithListener registers a playback listener. Equivalent to calling
// [Player.SetListener] right after construction.
func WithListener(l Listener) Option {
	return func(o *playerOptions) {
		o.listener = l
	}
}

// WithInvalidate registers a redraw request callback. It is invoked
// (outside the Player's lock, via the scheduled wake) whenever a newly
// decoded frame becomes ready to present, so hosts that do not redraw
// continuously know to call Draw. Hosts that draw every vsync can leave
// it unset.
func WithInvalidate(fn func()) Option {
	return func(o *playerOptions) {
		o.invalidate = fn
	}
}

// WithLoopBehavior sets the initial loop behavior. The default is
// LoopDefault (follow the source's declared loop count).
func WithLoopBehavior(b LoopBehavior) Option {
	return func(o *playerOptions) {
		o.loopBehavior = b
	}
}

// WithLoopCount sets the initial loop-count override, as
// [Player.SetLoopCount] does.
func WithLoopCount(n int) Option {
	return func(o *playerOptions) {
		o.loopCount = n
	}
}
