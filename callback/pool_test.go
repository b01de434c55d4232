package callback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-interactions/core"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

type recordingHook struct {
	mu        sync.Mutex
	started   int
	succeeded int
	failed    []error
}

func (h *recordingHook) OnStart(context.Context, worker.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started++
}

func (h *recordingHook) OnSuccess(context.Context, worker.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.succeeded++
}

func (h *recordingHook) OnFailure(_ context.Context, event worker.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed = append(h.failed, event.Err)
}

func (h *recordingHook) OnRetry(context.Context, worker.Event) {}

func (h *recordingHook) counts() (int, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started, h.succeeded, len(h.failed)
}

func startPool(t *testing.T, q *MemoryQueue, commander command.Commander[DeliverCallback], hook worker.Hook, timeout time.Duration) *Pool {
	t.Helper()
	pool, err := NewPool(PoolConfig{
		Dequeuer:  q,
		Commander: commander,
		Hook:      hook,
		Workers:   2,
		Timeout:   timeout,
	})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("start pool: %v", err)
	}
	return pool
}

func drain(t *testing.T, q *MemoryQueue, pool *Pool) {
	t.Helper()
	q.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Wait(ctx); err != nil {
		t.Fatalf("pool did not drain: %v", err)
	}
}

func TestPool_DeliversSubmittedInteractions(t *testing.T) {
	q := NewMemoryQueue(8)
	dispatcher := &recordingDispatcher{}
	hook := &recordingHook{}
	pool := startPool(t, q, &Deliverer{Content: StaticContent("hi"), Dispatcher: dispatcher}, hook, time.Second)

	submitter := NewSubmitter(q)
	for _, id := range []string{"1", "2", "3"} {
		interaction := testInteraction()
		interaction.ID = id
		if err := submitter.Submit(context.Background(), interaction); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}
	drain(t, q, pool)

	if got := len(dispatcher.snapshot()); got != 3 {
		t.Fatalf("expected 3 dispatches, got %d", got)
	}
	started, succeeded, failed := hook.counts()
	if started != 3 || succeeded != 3 || failed != 0 {
		t.Fatalf("unexpected hook counts started=%d succeeded=%d failed=%d", started, succeeded, failed)
	}
	if stats := q.Stats(); stats.Acked != 3 {
		t.Fatalf("expected 3 acks, got %#v", stats)
	}
}

func TestPool_FailureIsNackedWithoutRequeue(t *testing.T) {
	q := NewMemoryQueue(4)
	dispatcher := &recordingDispatcher{err: errors.New("boom")}
	hook := &recordingHook{}
	pool := startPool(t, q, &Deliverer{Content: StaticContent("hi"), Dispatcher: dispatcher}, hook, time.Second)

	if err := NewSubmitter(q).Submit(context.Background(), testInteraction()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drain(t, q, pool)

	if got := len(dispatcher.snapshot()); got != 1 {
		t.Fatalf("expected exactly one attempt, got %d", got)
	}
	stats := q.Stats()
	if stats.Nacked != 1 || stats.Pending != 0 || stats.Enqueued != 1 {
		t.Fatalf("expected a single nack with no requeue, got %#v", stats)
	}
	if stats.Requeued != 0 || stats.DeadLettered != 0 {
		t.Fatalf("expected failed disposition, got %#v", stats)
	}
	if _, _, failed := hook.counts(); failed != 1 {
		t.Fatalf("expected one failure hook, got %d", failed)
	}
}

func TestPool_RunsIndependentlyOfSubmitContext(t *testing.T) {
	q := NewMemoryQueue(4)
	dispatcher := &recordingDispatcher{block: make(chan struct{})}
	pool := startPool(t, q, &Deliverer{Content: StaticContent("hi"), Dispatcher: dispatcher}, &recordingHook{}, 5*time.Second)

	requestCtx, cancelRequest := context.WithCancel(context.Background())
	if err := NewSubmitter(q).Submit(requestCtx, testInteraction()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	cancelRequest()
	close(dispatcher.block)
	drain(t, q, pool)

	if got := len(dispatcher.snapshot()); got != 1 {
		t.Fatalf("expected dispatch to complete after request cancellation, got %d", got)
	}
}

func TestPool_TimeoutBoundsDelivery(t *testing.T) {
	q := NewMemoryQueue(4)
	dispatcher := &recordingDispatcher{block: make(chan struct{})}
	hook := &recordingHook{}
	pool := startPool(t, q, &Deliverer{Content: StaticContent("hi"), Dispatcher: dispatcher}, hook, 20*time.Millisecond)

	if err := NewSubmitter(q).Submit(context.Background(), testInteraction()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drain(t, q, pool)

	hook.mu.Lock()
	defer hook.mu.Unlock()
	if len(hook.failed) != 1 || !errors.Is(hook.failed[0], context.DeadlineExceeded) {
		t.Fatalf("expected deadline failure, got %#v", hook.failed)
	}
}

func TestPool_RecoversFromPanics(t *testing.T) {
	q := NewMemoryQueue(4)
	hook := &recordingHook{}
	panicking := command.CommandFunc[DeliverCallback](func(context.Context, DeliverCallback) error {
		panic("kaboom")
	})
	pool := startPool(t, q, panicking, hook, time.Second)

	if err := NewSubmitter(q).Submit(context.Background(), testInteraction()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drain(t, q, pool)
	if _, _, failed := hook.counts(); failed != 1 {
		t.Fatalf("expected panic to be reported as failure, got %d", failed)
	}
}

func TestNewPool_RequiresCollaborators(t *testing.T) {
	if _, err := NewPool(PoolConfig{}); err == nil {
		t.Fatalf("expected missing dequeuer error")
	}
	if _, err := NewPool(PoolConfig{Dequeuer: NewMemoryQueue(1)}); err == nil {
		t.Fatalf("expected missing commander error")
	}
}

func TestSubmitter_ReportsFullQueue(t *testing.T) {
	q := NewMemoryQueue(1)
	submitter := NewSubmitter(q)
	if err := submitter.Submit(context.Background(), testInteraction()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := submitter.Submit(context.Background(), testInteraction()); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestPool_UnknownJobIsDeadLettered(t *testing.T) {
	q := NewMemoryQueue(4)
	dispatcher := &recordingDispatcher{}
	hook := &recordingHook{}
	pool := startPool(t, q, &Deliverer{Content: StaticContent("hi"), Dispatcher: dispatcher}, hook, time.Second)

	if _, err := q.Enqueue(context.Background(), &job.ExecutionMessage{JobID: "other.job"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	drain(t, q, pool)

	if got := len(dispatcher.snapshot()); got != 0 {
		t.Fatalf("expected no dispatch for an unknown job, got %d", got)
	}
	if stats := q.Stats(); stats.DeadLettered != 1 {
		t.Fatalf("expected unknown job to be dead-lettered, got %#v", stats)
	}
}

func TestPool_StartTwiceFails(t *testing.T) {
	q := NewMemoryQueue(1)
	pool := startPool(t, q, &Deliverer{Dispatcher: &recordingDispatcher{}}, &recordingHook{}, time.Second)
	defer drain(t, q, pool)
	if err := pool.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}
}

func TestAtMostOnce_NeverRetries(t *testing.T) {
	for attempt := 1; attempt <= 3; attempt++ {
		opts := atMostOnce{}.Decide(attempt, errors.New("boom"))
		if opts.Disposition != queue.NackDispositionFailed || opts.Reason != "boom" {
			t.Fatalf("attempt %d: unexpected nack options %#v", attempt, opts)
		}
	}
}

type argsLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *argsLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprint(append([]any{level, msg}, args...)...))
}

func (l *argsLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *argsLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *argsLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *argsLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *argsLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *argsLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }
func (l *argsLogger) WithContext(context.Context) glog.Logger {
	return l
}

func TestJobLogger_RedactsSensitiveArgs(t *testing.T) {
	logger := &argsLogger{}
	var adapted job.Logger = jobLogger{logger: logger}
	adapted = adapted.WithContext(context.Background())
	adapted.Error("queue delivery failed", "interaction_id", "1", "token", "secret-token", "error", "boom")
	adapted.Debug("queue delivery started", "token", "debug-token")

	if len(logger.lines) != 2 {
		t.Fatalf("expected two lines, got %v", logger.lines)
	}
	if strings.Contains(logger.lines[0], "secret-token") || !strings.Contains(logger.lines[0], core.RedactedValue) {
		t.Fatalf("expected token redacted at error level, got %q", logger.lines[0])
	}
	if !strings.Contains(logger.lines[0], "boom") {
		t.Fatalf("expected non-sensitive args kept, got %q", logger.lines[0])
	}
	if !strings.Contains(logger.lines[1], "debug-token") {
		t.Fatalf("expected debug args untouched, got %q", logger.lines[1])
	}
}
