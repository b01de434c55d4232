package callback

import (
	"context"
	"errors"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

func TestMemoryQueue_EnqueueReturnsReceipt(t *testing.T) {
	q := NewMemoryQueue(2)
	ctx := context.Background()
	first, err := q.Enqueue(ctx, &job.ExecutionMessage{JobID: JobIDCallback})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	second, err := q.Enqueue(ctx, &job.ExecutionMessage{JobID: JobIDCallback})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if first.DispatchID == "" || first.DispatchID == second.DispatchID {
		t.Fatalf("expected distinct dispatch ids, got %q and %q", first.DispatchID, second.DispatchID)
	}
	if first.EnqueuedAt.IsZero() {
		t.Fatalf("expected enqueue time on receipt")
	}
	if _, err := q.Enqueue(ctx, &job.ExecutionMessage{}); err == nil {
		t.Fatalf("expected message without job id to be rejected")
	}
}

func TestMemoryQueue_FullQueueDropsWithoutBlocking(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()
	if _, err := q.Enqueue(ctx, &job.ExecutionMessage{JobID: JobIDCallback}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := q.Enqueue(ctx, &job.ExecutionMessage{JobID: JobIDCallback})
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, ErrQueueFull) {
			t.Fatalf("expected ErrQueueFull, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("enqueue blocked on a full queue")
	}
	if stats := q.Stats(); stats.Dropped != 1 || stats.Pending != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestMemoryQueue_CloseDrainsPendingMessages(t *testing.T) {
	q := NewMemoryQueue(2)
	ctx := context.Background()
	_, _ = q.Enqueue(ctx, &job.ExecutionMessage{JobID: "a"})
	_, _ = q.Enqueue(ctx, &job.ExecutionMessage{JobID: "b"})
	q.Close()
	q.Close()

	if _, err := q.Enqueue(ctx, &job.ExecutionMessage{JobID: "c"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed after close, got %v", err)
	}
	var deliveries []queue.Delivery
	for _, want := range []string{"a", "b"} {
		delivery, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue %s: %v", want, err)
		}
		if delivery.Message().JobID != want {
			t.Fatalf("expected %s, got %s", want, delivery.Message().JobID)
		}
		deliveries = append(deliveries, delivery)
	}
	delivery, err := q.Dequeue(ctx)
	if err != nil || delivery != nil {
		t.Fatalf("expected nil delivery from a closed empty queue, got %v, %v", delivery, err)
	}

	select {
	case <-q.Drained():
		t.Fatalf("queue reported drained with deliveries in flight")
	default:
	}
	for _, d := range deliveries {
		_ = d.Ack(ctx)
	}
	select {
	case <-q.Drained():
	case <-time.After(time.Second):
		t.Fatalf("queue did not report drained after acks")
	}
}

func TestMemoryQueue_DequeueHonoursContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMemoryQueue_DequeueWakesOnEnqueue(t *testing.T) {
	q := NewMemoryQueue(1)
	got := make(chan string, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		delivery, err := q.Dequeue(ctx)
		if err != nil || delivery == nil {
			got <- ""
			return
		}
		got <- delivery.Message().JobID
	}()
	time.Sleep(10 * time.Millisecond)
	if _, err := q.Enqueue(context.Background(), &job.ExecutionMessage{JobID: "late"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id := <-got; id != "late" {
		t.Fatalf("expected waiting dequeue to receive the message, got %q", id)
	}
}

func TestMemoryDelivery_NackFollowsDisposition(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		if _, err := q.Enqueue(ctx, &job.ExecutionMessage{JobID: id}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	first, _ := q.Dequeue(ctx)
	_ = first.Ack(ctx)
	_ = first.Ack(ctx)

	second, _ := q.Dequeue(ctx)
	_ = second.Nack(ctx, queue.NackOptions{Disposition: queue.NackDispositionDeadLetter})
	_ = second.Nack(ctx, queue.NackOptions{Disposition: queue.NackDispositionRetry})

	third, _ := q.Dequeue(ctx)
	if err := third.Nack(ctx, queue.NackOptions{Disposition: queue.NackDispositionFailed, Reason: "boom"}); err != nil {
		t.Fatalf("failed nack: %v", err)
	}

	fourth, _ := q.Dequeue(ctx)
	if err := fourth.Nack(ctx, queue.NackOptions{}); err == nil {
		t.Fatalf("expected nack without disposition to be rejected")
	}
	if err := fourth.Nack(ctx, queue.NackOptions{Disposition: queue.NackDispositionRetry}); err != nil {
		t.Fatalf("retry nack: %v", err)
	}

	stats := q.Stats()
	if stats.Acked != 1 || stats.Nacked != 3 || stats.DeadLettered != 1 || stats.Requeued != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
	if stats.Pending != 1 || stats.InFlight != 0 {
		t.Fatalf("expected only the retried message pending, got %#v", stats)
	}

	retried, _ := q.Dequeue(ctx)
	if retried.Message().JobID != "d" {
		t.Fatalf("expected retried message d, got %s", retried.Message().JobID)
	}
	if attempts := retried.(interface{ Attempts() int }).Attempts(); attempts != 2 {
		t.Fatalf("expected second attempt, got %d", attempts)
	}
}
