package callback

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

var (
	ErrQueueFull   = errors.New("callback: queue is full")
	ErrQueueClosed = errors.New("callback: queue is closed")
)

type QueueStats struct {
	Pending      int
	InFlight     int
	Enqueued     int64
	Dropped      int64
	Acked        int64
	Nacked       int64
	Requeued     int64
	DeadLettered int64
}

type queuedMessage struct {
	msg      *job.ExecutionMessage
	id       string
	attempts int
}

// MemoryQueue is a bounded in-process queue. Enqueue never blocks: a full
// queue rejects the message with ErrQueueFull. Dequeue follows the polling
// contract of the go-job adapters and returns a nil delivery once the queue
// is closed and empty.
type MemoryQueue struct {
	mu       sync.Mutex
	capacity int
	items    []queuedMessage
	inFlight int
	closed   bool
	seq      uint64
	stats    QueueStats

	ready   chan struct{}
	done    chan struct{}
	drained chan struct{}
	drainMu sync.Once
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{
		capacity: size,
		ready:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		drained:  make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	if err := queue.ValidateRequiredMessage(msg); err != nil {
		return queue.EnqueueReceipt{}, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.stats.Dropped++
		return queue.EnqueueReceipt{}, ErrQueueClosed
	}
	if len(q.items) >= q.capacity {
		q.stats.Dropped++
		return queue.EnqueueReceipt{}, ErrQueueFull
	}
	q.seq++
	item := queuedMessage{msg: msg, id: "mem-" + strconv.FormatUint(q.seq, 10)}
	q.items = append(q.items, item)
	q.stats.Enqueued++
	q.signal()
	return queue.EnqueueReceipt{DispatchID: item.id, EnqueuedAt: time.Now().UTC()}, nil
}

// Dequeue blocks until a message arrives or ctx ends. After Close it hands
// out the remaining messages and then returns a nil delivery.
func (q *MemoryQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = queuedMessage{}
			q.items = q.items[1:]
			q.inFlight++
			if len(q.items) > 0 {
				q.signal()
			}
			q.mu.Unlock()
			item.attempts++
			return &memoryDelivery{queue: q, item: item}, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, nil
		}

		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops intake. Messages already queued remain available to Dequeue.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
	q.checkDrained()
}

// Drained is closed once the queue is closed, empty and every delivery has
// been acked or nacked.
func (q *MemoryQueue) Drained() <-chan struct{} {
	return q.drained
}

func (q *MemoryQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := q.stats
	stats.Pending = len(q.items)
	stats.InFlight = q.inFlight
	return stats
}

// signal wakes one waiting Dequeue. Callers hold q.mu.
func (q *MemoryQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// checkDrained must be called with q.mu held.
func (q *MemoryQueue) checkDrained() {
	if q.closed && len(q.items) == 0 && q.inFlight == 0 {
		q.drainMu.Do(func() { close(q.drained) })
	}
}

func (q *MemoryQueue) settle(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight--
	fn()
	q.checkDrained()
}

type memoryDelivery struct {
	queue *MemoryQueue
	item  queuedMessage
	once  sync.Once
}

func (d *memoryDelivery) Message() *job.ExecutionMessage {
	return d.item.msg
}

func (d *memoryDelivery) Attempts() int {
	return d.item.attempts
}

func (d *memoryDelivery) Ack(context.Context) error {
	d.once.Do(func() {
		d.queue.settle(func() { d.queue.stats.Acked++ })
	})
	return nil
}

// Nack settles the delivery according to opts.Disposition. Only
// NackDispositionRetry puts the message back on the queue.
func (d *memoryDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	if err := queue.ValidateNackOptions(opts); err != nil {
		return err
	}
	d.once.Do(func() {
		d.queue.settle(func() {
			q := d.queue
			q.stats.Nacked++
			switch opts.Disposition {
			case queue.NackDispositionRetry:
				q.stats.Requeued++
				q.items = append(q.items, d.item)
				q.signal()
			case queue.NackDispositionDeadLetter:
				q.stats.DeadLettered++
			}
		})
	})
	return nil
}

var (
	_ queue.Enqueuer = (*MemoryQueue)(nil)
	_ queue.Dequeuer = (*MemoryQueue)(nil)
	_ queue.Delivery = (*memoryDelivery)(nil)
)
