package ioloop

import (
	"time"

	"github.com/gopulse/audiocore/internal/asyncq"
)

// Handler processes one message pulled off a device's async queue while on
// the IO thread. It returns the error to hand back to a blocking Send, if
// any (Post-originated messages ignore the return value).
type Handler func(asyncq.Message) error

// Loop is the explicit IO-thread state machine described in §9: it is driven
// by a select over the async queue and a tick source, not implicit
// coroutines. Real implementations multiplex additional poll descriptors
// (hardware wakeups) into the same select; this type only models the part
// owned by the core.
type Loop struct {
	Queue   *asyncq.Queue
	Handle  Handler
	Tick    time.Duration
	OnTick  func(now time.Time)
	stop    chan struct{}
	stopped chan struct{}
}

// NewLoop wires a Loop to its queue and tick handler.
func NewLoop(q *asyncq.Queue, handle Handler, tick time.Duration, onTick func(time.Time)) *Loop {
	return &Loop{Queue: q, Handle: handle, Tick: tick, OnTick: onTick, stop: make(chan struct{}), stopped: make(chan struct{})}
}

// Run drains the queue until Stop is called, applying Handle to each
// message in FIFO order (§5 "Ordering guarantees") and calling OnTick on
// every tick so the deferred-volume apply rule and hardware polling can run.
func (l *Loop) Run() {
	defer close(l.stopped)
	var ticker *time.Ticker
	var tickC <-chan time.Time
	if l.Tick > 0 {
		ticker = time.NewTicker(l.Tick)
		tickC = ticker.C
		defer ticker.Stop()
	}
	for {
		select {
		case <-l.stop:
			return
		case m, ok := <-l.Queue.Channel():
			if !ok {
				return
			}
			err := l.Handle(m)
			asyncq.Ack(m, err)
		case now := <-tickC:
			if l.OnTick != nil {
				l.OnTick(now)
			}
		}
	}
}

// Stop requests the loop exit and waits for it to do so.
func (l *Loop) Stop() {
	close(l.stop)
	<-l.stopped
}
