package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/goliatone/go-interactions/callback"
	"github.com/goliatone/go-interactions/core"
	"github.com/goliatone/go-interactions/events"
	"github.com/goliatone/go-interactions/inbound"
	"github.com/goliatone/go-interactions/logging"
	"github.com/goliatone/go-interactions/question"
	"github.com/goliatone/go-interactions/server"
	"github.com/goliatone/go-interactions/transport"
	"github.com/goliatone/go-interactions/webhooks"
	glog "github.com/goliatone/go-logger/glog"
)

type app struct {
	cfg       core.Config
	logger    glog.Logger
	queue     *callback.MemoryQueue
	pool      *callback.Pool
	publisher events.Publisher
	server    *server.Server
}

func newApp(cfg core.Config, logOutput io.Writer) (*app, error) {
	root, err := logging.New(cfg.Logging, logOutput)
	if err != nil {
		return nil, err
	}
	provider := logging.NewProvider(root)
	_, logger := logging.Resolve(cfg.ServiceName, provider, nil)

	key, err := webhooks.ParseVerificationKey(cfg.PublicKey)
	if err != nil {
		return nil, core.ConfigError(err, "invalid "+core.EnvPublicKey, nil)
	}

	content, err := newContentProvider(cfg.Content)
	if err != nil {
		return nil, err
	}

	publisher := events.NewPublisher(cfg.Events, cfg.ServiceName)
	callbackTimeout := cfg.Callback.TimeoutDuration()
	deliverer := &callback.Deliverer{
		Content:    content,
		Dispatcher: callback.NewDispatcher(cfg.Callback.BaseURL, transport.NewRESTAdapter(&http.Client{Timeout: callbackTimeout}), callbackTimeout),
		Events:     publisher,
		Logger:     provider.GetLogger("callback"),
	}

	queue := callback.NewMemoryQueue(cfg.Callback.QueueSize)
	pool, err := callback.NewPool(callback.PoolConfig{
		Dequeuer:  queue,
		Commander: deliverer,
		Logger:    provider.GetLogger("callback.pool"),
		Workers:   cfg.Callback.Workers,
		Timeout:   callbackTimeout + cfg.Content.TimeoutDuration(),
	})
	if err != nil {
		return nil, err
	}

	handler, err := inbound.NewHandler(inbound.HandlerConfig{
		Verifier:  webhooks.NewEd25519Verifier(key),
		Submitter: callback.NewSubmitter(queue),
		Logger:    provider.GetLogger("inbound"),
	})
	if err != nil {
		return nil, err
	}
	srv, err := server.New(server.Config{
		Handler:        handler,
		Logger:         provider.GetLogger("server"),
		BodyLimitBytes: cfg.Server.BodyLimitBytes,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		queue:     queue,
		pool:      pool,
		publisher: publisher,
		server:    srv,
	}, nil
}

func newContentProvider(cfg core.ContentConfig) (callback.ContentProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case core.ContentProviderStatic:
		return callback.StaticContent(cfg.StaticContent), nil
	case core.ContentProviderLeetCode:
		timeout := cfg.TimeoutDuration()
		client := question.NewClient(cfg.LeetCodeEndpoint, &http.Client{Timeout: timeout}, timeout)
		return question.NewContentProvider(client), nil
	default:
		return nil, core.ConfigError(nil, "unsupported content provider "+cfg.Provider, nil)
	}
}

// Run serves until ctx ends. The listener drains first, then queued callbacks
// get the rest of the shutdown budget.
func (a *app) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Address)
	if err != nil {
		return core.ConfigError(err, "listen on "+a.cfg.Server.Address, nil)
	}
	if err := a.pool.Start(context.Background()); err != nil {
		ln.Close()
		return err
	}
	a.logger.Info("interactions listening",
		"address", ln.Addr().String(),
		"content_provider", a.cfg.Content.Provider,
		"callback_workers", a.cfg.Callback.Workers,
		"version", version,
	)

	shutdownTimeout := a.cfg.Server.ShutdownTimeoutDuration()
	serveErr := server.Serve(ctx, a.server.HTTPServer(a.cfg.Server), ln, shutdownTimeout)
	a.logger.Info("interactions shutting down", "pending_callbacks", a.queue.Stats().Pending)

	a.queue.Close()
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.pool.Wait(drainCtx); err != nil {
		a.logger.Warn("callback drain interrupted", "error", err.Error())
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("event publisher close failed", "error", err.Error())
	}
	if serveErr != nil {
		a.logger.Error("http server failed", "error", serveErr.Error())
		return serveErr
	}
	a.logger.Info("interactions stopped")
	return nil
}
