package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler handles graceful shutdown.
//
// Shutdown begins on SIGINT, SIGTERM or a call to Trigger. The context
// returned by Context is cancelled first, then the registered hooks run
// in reverse order of registration under a shared timeout.
type Handler struct {
	timeout time.Duration
	hooks   []func(context.Context) error
	mu      sync.Mutex

	sigCh   chan os.Signal
	trigger chan struct{}
	once    sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHandler creates a new shutdown handler. Signals are captured from
// this point on, so none is lost before Wait is called.
func NewHandler(timeout time.Duration) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		timeout: timeout,
		hooks:   make([]func(context.Context) error, 0),
		sigCh:   make(chan os.Signal, 1),
		trigger: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	signal.Notify(h.sigCh, syscall.SIGINT, syscall.SIGTERM)
	return h
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Context returns a context that is cancelled when shutdown begins.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Trigger begins shutdown without a signal, for example after a server
// failed. Later calls are no-ops.
func (h *Handler) Trigger() {
	h.once.Do(func() { close(h.trigger) })
}

// Wait waits for a shutdown signal or Trigger and executes hooks.
// It returns the errors of all failed hooks joined together.
func (h *Handler) Wait() error {
	select {
	case <-h.sigCh:
	case <-h.trigger:
	}
	signal.Stop(h.sigCh)
	h.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	close(h.done)
	return errors.Join(errs...)
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
