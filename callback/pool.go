package callback

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-interactions/core"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

const defaultIdleDelay = 50 * time.Millisecond

type PoolConfig struct {
	Dequeuer  queue.Dequeuer
	Commander command.Commander[DeliverCallback]
	Hook      worker.Hook
	Logger    core.Logger
	Workers   int
	// Timeout bounds a single delivery, content resolution included.
	Timeout   time.Duration
	IdleDelay time.Duration
}

// Pool runs callback jobs on a go-job worker. Jobs run on the context given
// to Start, never on a request context.
type Pool struct {
	worker   *worker.Worker
	dequeuer queue.Dequeuer
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Dequeuer == nil {
		return nil, callbackInternal("callback: pool requires a dequeuer", nil)
	}
	if cfg.Commander == nil {
		return nil, callbackInternal("callback: pool requires a commander", nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	hook := cfg.Hook
	if hook == nil {
		hook = LoggingHook{Logger: logger}
	}
	idleDelay := cfg.IdleDelay
	if idleDelay <= 0 {
		idleDelay = defaultIdleDelay
	}

	w := worker.NewWorker(cfg.Dequeuer,
		worker.WithConcurrency(cfg.Workers),
		worker.WithIdleDelay(idleDelay),
		worker.WithLogger(jobLogger{logger: logger}),
		worker.WithHooks(hook),
		worker.WithRetryPolicy(atMostOnce{}),
		worker.WithTaskCommanderRetries(false),
	)
	task := &deliverTask{commander: cfg.Commander, timeout: cfg.Timeout}
	if err := w.Register(task); err != nil {
		return nil, callbackInternal("callback: register deliver task: "+err.Error(), nil)
	}
	return &Pool{worker: w, dequeuer: cfg.Dequeuer}, nil
}

func (p *Pool) Start(ctx context.Context) error {
	return p.worker.Start(ctx)
}

// Wait blocks until the queue reports it is drained and then stops the
// worker. If ctx ends first in-flight jobs are cancelled.
func (p *Pool) Wait(ctx context.Context) error {
	if d, ok := p.dequeuer.(interface{ Drained() <-chan struct{} }); ok {
		select {
		case <-d.Drained():
		case <-ctx.Done():
			p.Stop()
			return ctx.Err()
		}
	}
	return p.worker.Stop(ctx)
}

// Stop cancels the worker and waits for running jobs to return.
func (p *Pool) Stop() {
	_ = p.worker.Stop(context.Background())
}

// atMostOnce fails every errored delivery. A callback is never re-posted.
type atMostOnce struct{}

func (atMostOnce) Decide(_ int, err error) queue.NackOptions {
	reason := "callback delivery failed"
	if err != nil {
		reason = err.Error()
	}
	return queue.NackOptions{Disposition: queue.NackDispositionFailed, Reason: reason}
}

// deliverTask is the job registered under JobIDCallback.
type deliverTask struct {
	commander command.Commander[DeliverCallback]
	timeout   time.Duration
}

func (t *deliverTask) GetID() string   { return JobIDCallback }
func (t *deliverTask) GetPath() string { return CommandDeliverCallback }

func (t *deliverTask) GetHandler() func() error {
	return func() error {
		return fmt.Errorf("callback: %s runs from queue deliveries only", JobIDCallback)
	}
}

func (t *deliverTask) GetHandlerConfig() job.HandlerOptions {
	opts := job.HandlerOptions{}
	opts.Timeout = t.timeout
	return opts
}

func (t *deliverTask) GetConfig() job.Config {
	return job.Config{Timeout: t.timeout, Retries: 0}
}

func (t *deliverTask) GetEngine() job.Engine { return nil }

func (t *deliverTask) Execute(ctx context.Context, msg *job.ExecutionMessage) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("callback: delivery panicked: %v", recovered)
		}
	}()
	deliver, err := deliverMessage(msg)
	if err != nil {
		return err
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.commander.Execute(ctx, deliver)
}

// jobLogger routes worker logs through core.Logger with sensitive args redacted.
type jobLogger struct {
	logger core.Logger
}

func (l jobLogger) Trace(msg string, args ...any) { l.logger.Trace(msg, core.RedactArgs(args)...) }
func (l jobLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l jobLogger) Info(msg string, args ...any)  { l.logger.Info(msg, core.RedactArgs(args)...) }
func (l jobLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, core.RedactArgs(args)...) }
func (l jobLogger) Error(msg string, args ...any) { l.logger.Error(msg, core.RedactArgs(args)...) }
func (l jobLogger) Fatal(msg string, args ...any) { l.logger.Fatal(msg, core.RedactArgs(args)...) }

func (l jobLogger) WithContext(ctx context.Context) job.Logger {
	return jobLogger{logger: l.logger.WithContext(ctx)}
}

var (
	_ job.Task           = (*deliverTask)(nil)
	_ job.Logger         = jobLogger{}
	_ worker.RetryPolicy = atMostOnce{}
)
