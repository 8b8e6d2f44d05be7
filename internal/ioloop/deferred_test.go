package ioloop

import (
	"testing"
	"time"

	"github.com/gopulse/audiocore/avformat"
)

func TestDeferredQueuePushIncreasingRespectsSafety(t *testing.T) {
	q := &DeferredQueue{Safety: 100 * time.Millisecond}
	base := time.Unix(0, 0)

	quiet := q.Push(base, avformat.Uniform(2, avformat.Norm/4))
	loud := q.Push(base, avformat.Uniform(2, avformat.Norm))

	if !loud.At.After(quiet.At) {
		t.Fatalf("louder change scheduled at %v, want after the quieter change at %v", loud.At, quiet.At)
	}
	if loud.At.Sub(quiet.At) < q.Safety {
		t.Errorf("gap between quiet and loud = %v, want at least Safety (%v)", loud.At.Sub(quiet.At), q.Safety)
	}
}

func TestDeferredQueuePushDecreasingRespectsSafety(t *testing.T) {
	q := &DeferredQueue{Safety: 100 * time.Millisecond}
	base := time.Unix(0, 0)

	loud := q.Push(base, avformat.Uniform(2, avformat.Norm))
	quiet := q.Push(base, avformat.Uniform(2, avformat.Norm/4))

	if !quiet.At.Before(loud.At) {
		t.Fatalf("quieter change scheduled at %v, want before the louder change at %v", quiet.At, loud.At)
	}
	if loud.At.Sub(quiet.At) < q.Safety {
		t.Errorf("gap between quiet and loud = %v, want at least Safety (%v)", loud.At.Sub(quiet.At), q.Safety)
	}
}

func TestDeferredQueueApplyDrainsOnlyDueEntries(t *testing.T) {
	q := &DeferredQueue{}
	now := time.Unix(100, 0)

	q.Push(now.Add(-time.Second), avformat.Uniform(2, avformat.Norm/2))
	q.Push(now.Add(time.Hour), avformat.Uniform(2, avformat.Norm))

	due := q.Apply(now)
	if len(due) != 1 {
		t.Fatalf("Apply() returned %d entries, want 1 (only the past one)", len(due))
	}
	if len(q.Pending()) != 1 {
		t.Errorf("Pending() after Apply() = %d entries, want 1 (the future one remains)", len(q.Pending()))
	}
}

func TestDeferredQueuePushSupersedesLaterEntries(t *testing.T) {
	q := &DeferredQueue{}
	base := time.Unix(0, 0)

	q.Push(base.Add(time.Hour), avformat.Uniform(2, avformat.Norm))
	q.Push(base, avformat.Uniform(2, avformat.Norm/2))

	if len(q.Pending()) != 1 {
		t.Errorf("Pending() after a superseding push = %d entries, want 1", len(q.Pending()))
	}
}
