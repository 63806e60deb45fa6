package telemetry

import "sync/atomic"

// ReaderStats counts what a polling reader observed.
type ReaderStats struct {
	// Polls is the number of snapshots taken.
	Polls uint64
	// Fresh is the number of polls which saw at least one new write.
	Fresh uint64
	// Stale is the number of polls which saw nothing new.
	Stale uint64
	// Missed is the number of writes overwritten before being polled.
	Missed uint64
}

// Reader takes polling snapshots of a Channel on behalf of one consumer.
// Poll must be called from a single goroutine, Stats is safe from any.
type Reader struct {
	ch   *Channel
	last Frame

	polls  uint64
	fresh  uint64
	stale  uint64
	missed uint64
}

// NewReader creates a Reader starting from the current frame.
func (c *Channel) NewReader() *Reader {
	return &Reader{ch: c, last: c.Load()}
}

// Poll copies the latest values. Intermediate writes between two polls are
// never observed individually, only counted as missed.
func (r *Reader) Poll() Frame {
	f := r.ch.Load()
	atomic.AddUint64(&r.polls, 1)
	if f.Seq == r.last.Seq {
		atomic.AddUint64(&r.stale, 1)
		return f
	}
	atomic.AddUint64(&r.fresh, 1)
	var missed uint64
	for n, w := range f.Writes {
		var prev uint64
		if n < len(r.last.Writes) {
			prev = r.last.Writes[n]
		}
		if w > prev+1 {
			missed += w - prev - 1
		}
	}
	if missed > 0 {
		atomic.AddUint64(&r.missed, missed)
	}
	r.last = f
	return f
}

// Stats returns the counters.
func (r *Reader) Stats() ReaderStats {
	return ReaderStats{
		Polls:  atomic.LoadUint64(&r.polls),
		Fresh:  atomic.LoadUint64(&r.fresh),
		Stale:  atomic.LoadUint64(&r.stale),
		Missed: atomic.LoadUint64(&r.missed),
	}
}
