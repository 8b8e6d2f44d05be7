// Package asyncq implements the bounded control-thread/IO-thread message
// queue described in §5: Send is a blocking rendezvous (the caller parks
// until the IO thread acknowledges), Post is fire-and-forget. The shape is
// lifted from jfreymuth/pulse's proto.Client, which distinguishes a blocking
// Request (tag -> reply channel, awaited synchronously) from a fire-and-forget
// Send over the same underlying channel.
package asyncq

import "context"

// Message is one entry posted to a Queue. Op identifies what the IO thread
// should do with Payload. Messages enqueued by Send carry a reply channel
// that receives the error passed to Ack once the IO thread has processed
// the message; Post leaves it nil.
type Message struct {
	Op      int
	Payload interface{}

	reply chan error
}

// Queue is a single-producer-single-consumer channel of Messages, processed
// strictly in FIFO order by one IO thread goroutine (§5 "Ordering
// guarantees").
type Queue struct {
	ch chan Message
}

// New creates a Queue with the given capacity. A capacity of 0 makes Send
// and Post rendezvous directly with the reader.
func New(capacity int) *Queue {
	return &Queue{ch: make(chan Message, capacity)}
}

// Post enqueues msg without waiting for it to be processed.
func (q *Queue) Post(op int, payload interface{}) {
	q.ch <- Message{Op: op, Payload: payload}
}

// Send enqueues msg and blocks until the IO thread calls Ack on it (or ctx
// is cancelled). This is the "send blocks (cooperative rendezvous)" point
// referenced throughout §4.1/§4.5 for get/set volume, set port, and latency
// queries.
func (q *Queue) Send(ctx context.Context, op int, payload interface{}) error {
	m := Message{Op: op, Payload: payload, reply: make(chan error, 1)}
	select {
	case q.ch <- m:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-m.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive blocks until a message is available, for use by the IO thread's
// poll loop.
func (q *Queue) Receive() (Message, bool) {
	m, ok := <-q.ch
	return m, ok
}

// Channel exposes the underlying channel so the IO thread can multiplex it
// into a select alongside other event sources (hardware poll descriptors,
// timers), mirroring the poll-set design in §9.
func (q *Queue) Channel() <-chan Message {
	return q.ch
}

// Ack acknowledges a message received via Receive/Channel, unblocking any
// Send that is waiting on it. Messages that arrived through Post have a nil
// reply channel and Ack is a no-op for them.
func Ack(m Message, err error) {
	if m.reply != nil {
		m.reply <- err
	}
}

// Close releases the queue. No further Send/Post may be issued.
func (q *Queue) Close() {
	close(q.ch)
}
