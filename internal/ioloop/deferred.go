// Package ioloop models the IO-thread side of a device: the deferred
// hardware-volume scheduler (§4.1 "Deferred hardware volume") and the
// poll-driven message dispatch loop (§5, §9 "Callback-driven IO loop").
package ioloop

import (
	"sort"
	"time"

	"github.com/gopulse/audiocore/avformat"
)

// PendingVolume is one scheduled hardware-volume write.
type PendingVolume struct {
	At     time.Time
	Volume avformat.ChannelVolume
}

// DeferredQueue holds the pending hardware-volume changes for one device
// with DEFERRED_VOLUME set. It is owned by the IO thread; Push is called
// from whichever side originates the new volume (control thread via a
// posted message, or the IO thread itself after a readback).
type DeferredQueue struct {
	Safety     time.Duration
	ExtraDelay time.Duration

	pending []PendingVolume
}

// Push inserts c into the queue per the push rule in §4.1: scanning
// existing entries in reverse, an increasing change must land at least
// Safety after any earlier, quieter entry; a decreasing change must land at
// least Safety before any earlier, louder entry. Entries superseded by the
// insertion (scheduled after c but now redundant) are dropped.
func (q *DeferredQueue) Push(now time.Time, v avformat.ChannelVolume) PendingVolume {
	c := PendingVolume{At: now.Add(q.ExtraDelay), Volume: v}
	target := c.Volume.Avg()

	for i := len(q.pending) - 1; i >= 0; i-- {
		p := q.pending[i]
		pAvg := p.Volume.Avg()
		switch {
		case pAvg < target:
			if c.At.Before(p.At.Add(q.Safety)) {
				c.At = p.At.Add(q.Safety)
			}
		case pAvg > target:
			if c.At.After(p.At.Add(-q.Safety)) {
				c.At = p.At.Add(-q.Safety)
			}
		}
	}

	q.pending = append(q.pending, c)
	sort.Slice(q.pending, func(i, j int) bool { return q.pending[i].At.Before(q.pending[j].At) })

	// Discard every entry scheduled strictly after c: c supersedes them.
	for i, p := range q.pending {
		if p.At.Equal(c.At) && p.Volume.Equal(c.Volume) {
			q.pending = q.pending[:i+1]
			break
		}
	}
	return c
}

// Apply drains and returns every pending change scheduled at or before now,
// in non-decreasing schedule order, per the apply rule in §4.1.
func (q *DeferredQueue) Apply(now time.Time) []PendingVolume {
	var due []PendingVolume
	i := 0
	for i < len(q.pending) && !q.pending[i].At.After(now) {
		due = append(due, q.pending[i])
		i++
	}
	q.pending = q.pending[i:]
	return due
}

// Pending reports the currently queued, not-yet-applied changes.
func (q *DeferredQueue) Pending() []PendingVolume {
	return append([]PendingVolume(nil), q.pending...)
}
