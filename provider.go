package frameseq

import "sync"

// BitmapProvider supplies pixel buffers to Players.
//
// Providers make buffer reuse pluggable: a host can share one provider
// across many Players so bitmaps released by a destroyed Player are
// recycled by the next one. Release may be called from any goroutine,
// including the decode worker; it must not assume render-thread context.
type BitmapProvider interface {
	// Acquire returns a bitmap with at least the given dimensions.
	// Returning a smaller bitmap (or nil) fails Player construction
	// with ErrInvalidBitmap.
	Acquire(minWidth, minHeight int) *Bitmap

	// Release takes back a bitmap the Player no longer uses. The bitmap
	// is not referenced by the Player afterward and is safe to reuse.
	Release(b *Bitmap)
}

// AllocatingProvider is the trivial BitmapProvider: Acquire allocates a
// fresh bitmap, Release lets the garbage collector reclaim it. Useful for
// one-shot playback where pooling buys nothing.
type AllocatingProvider struct{}

// Acquire implements BitmapProvider.
func (AllocatingProvider) Acquire(minWidth, minHeight int) *Bitmap {
	return NewBitmap(minWidth, minHeight)
}

// Release implements BitmapProvider.
func (AllocatingProvider) Release(*Bitmap) {}

// Pool is a thread-safe BitmapProvider that reuses released bitmaps.
//
// Pool groups free bitmaps by their dimensions and tracks every bitmap it
// has handed out. Releasing a bitmap the pool does not consider
// outstanding is a programming error (a double release, or a bitmap from
// another provider) and panics immediately rather than corrupting the
// free lists.
//
// Thread safety: all methods are safe for concurrent use.
type Pool struct {
	mu          sync.Mutex
	buckets     map[poolKey][]*Bitmap
	outstanding map[*Bitmap]struct{}
	maxSize     int // max free bitmaps per bucket
}

// poolKey identifies a bucket of identically sized bitmaps.
type poolKey struct {
	width  int
	height int
}

// NewPool creates a bitmap pool retaining at most maxPerBucket free
// bitmaps of each size. A maxPerBucket of 0 means unlimited.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets:     make(map[poolKey][]*Bitmap),
		outstanding: make(map[*Bitmap]struct{}),
		maxSize:     maxPerBucket,
	}
}

// Acquire implements BitmapProvider. A reused bitmap is cleared before it
// is returned.
func (p *Pool) Acquire(minWidth, minHeight int) *Bitmap {
	key := poolKey{width: minWidth, height: minHeight}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if len(bucket) > 0 {
		b := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.outstanding[b] = struct{}{}
		b.Clear()
		return b
	}

	b := NewBitmap(minWidth, minHeight)
	if b == nil {
		return nil
	}
	p.outstanding[b] = struct{}{}
	return b
}

// Release implements BitmapProvider. Releasing nil is a no-op; releasing
// a bitmap that is not outstanding panics.
func (p *Pool) Release(b *Bitmap) {
	if b == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.outstanding[b]; !ok {
		panic("frameseq: Release of bitmap not acquired from this pool")
	}
	delete(p.outstanding, b)

	key := poolKey{width: b.width, height: b.height}
	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		// Bucket full, discard (GC will clean up).
		return
	}
	p.buckets[key] = append(bucket, b)
}

// Outstanding returns the number of bitmaps currently handed out and not
// yet released. A host tearing down all Players can assert this is zero.
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.outstanding)
}
