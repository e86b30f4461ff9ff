package redisserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/kvcache/internal/storage"
	"github.com/yndnr/kvcache/internal/telemetry/metric"
)

var (
	ErrServerRunning = errors.New("redisserver: server already running")
	ErrServerClosed  = errors.New("redisserver: server closed")

	// ErrSlowClient is the eviction reason for a connection whose
	// pending replies exceed WriteQueueSize.
	ErrSlowClient = errors.New("redisserver: client not reading replies")
)

// Config holds the Redis server configuration.
type Config struct {
	// Addr is the plaintext listen address.
	Addr string
	// ReadBufferSize is the size of each connection's read buffer (default: 4KiB).
	ReadBufferSize int
	// WriteTimeout bounds writing one batch of replies (default: 30s).
	WriteTimeout time.Duration
	// WriteQueueSize is the number of reply batches a connection may have
	// pending before it is evicted (default: 64).
	WriteQueueSize int
	// IdleTimeout closes connections idle for this long. Zero disables it;
	// connections are then only closed on I/O error or disconnect.
	IdleTimeout time.Duration
	// EventQueueSize is the capacity of the event loop's queue (default: 256).
	EventQueueSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:           "127.0.0.1:6379",
		ReadBufferSize: 4 * 1024,
		WriteTimeout:   30 * time.Second,
		WriteQueueSize: 64,
		IdleTimeout:    0,
		EventQueueSize: 256,
	}
}

type eventKind int

const (
	eventOpen eventKind = iota
	eventData
	eventClosed
)

type event struct {
	kind eventKind
	conn *Conn
	data []byte
	err  error
}

// Server is the Redis protocol server.
//
// A single event loop goroutine owns the store, the interpreter and the
// table of live connections. The acceptor and one reader goroutine per
// connection block in the runtime network poller and hand their results
// to the loop over a channel, so the loop sleeps while nothing is ready.
type Server struct {
	cfg     *Config
	store   storage.Store
	interp  *Interpreter
	logger  *slog.Logger
	metrics *metric.Registry

	events chan event
	conns  map[string]*Conn // event loop only

	acceptLog *rate.Limiter

	mu       sync.Mutex
	ln       net.Listener
	cancel   context.CancelFunc
	shutdown bool
	done     chan struct{}
	running  atomic.Bool
	serving  atomic.Bool
	acceptWG sync.WaitGroup
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a server operating on store. The store must not be used by
// anything else while the server runs unless it is safe for concurrent use.
func New(cfg *Config, store storage.Store, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	def := DefaultConfig()
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = def.ReadBufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.WriteQueueSize <= 0 {
		cfg.WriteQueueSize = def.WriteQueueSize
	}
	if cfg.EventQueueSize <= 0 {
		cfg.EventQueueSize = def.EventQueueSize
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		interp:    NewInterpreter(store),
		logger:    slog.Default(),
		events:    make(chan event, cfg.EventQueueSize),
		conns:     make(map[string]*Conn),
		acceptLog: rate.NewLimiter(rate.Every(time.Second), 5),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ListenAndServe binds cfg.Addr and serves until ctx is cancelled or
// Shutdown is called. A bind failure is returned immediately.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the event loop on the calling goroutine, accepting
// connections from ln. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		cancel()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.cancel = cancel
	s.mu.Unlock()
	s.serving.Store(true)

	s.logger.Info("redis server listening", "address", ln.Addr().String())

	s.acceptWG.Add(1)
	go func() {
		defer s.acceptWG.Done()
		s.acceptLoop(ctx, ln)
	}()

	s.loop(ctx)

	s.serving.Store(false)
	cancel()
	_ = ln.Close()
	s.acceptWG.Wait()
	s.closeAll()
	s.wg.Wait()
	close(s.done)

	s.logger.Info("redis server stopped")
	return nil
}

// Serving reports whether the event loop is running and accepting
// connections.
func (s *Server) Serving() bool {
	return s.serving.Load()
}

// Addr returns the listener address, or nil before Serve is called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes every connection and waits for the
// event loop to exit or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		// Never served; a later Serve returns ErrServerClosed.
		return nil
	}
	cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop is the control goroutine. It is the only code that touches the
// store, the interpreter, s.conns and each Conn's decoder.
func (s *Server) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.dispatch(ev)
		}
	}
}

func (s *Server) dispatch(ev event) {
	switch ev.kind {
	case eventOpen:
		s.conns[ev.conn.id] = ev.conn
		s.metrics.ConnOpened()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.writeLoop(ev.conn)
		}()
		s.logger.Debug("accepted connection", "conn", ev.conn.id, "remote", ev.conn.RemoteAddr().String())
	case eventData:
		if _, ok := s.conns[ev.conn.id]; !ok {
			return
		}
		s.handleData(ev.conn, ev.data)
	case eventClosed:
		s.evict(ev.conn, ev.err)
	}
}

// handleData decodes everything now complete on c, runs each command in
// order and queues the replies as one batch for c's writer.
func (s *Server) handleData(c *Conn, data []byte) {
	cmds, decErr := c.dec.Decode(data)

	var out []byte
	for _, cmd := range cmds {
		s.metrics.Command(cmd.Kind.String())

		var err error
		out, err = s.interp.AppendExecute(out, cmd)
		if err != nil {
			s.metrics.CommandError(errorReason(err))
			s.logger.Debug("command skipped",
				"conn", c.id,
				"command", cmd.Name,
				"argc", len(cmd.Args),
				"error", err,
			)
		}
	}
	s.metrics.SetKeys(s.store.Len())

	if len(out) > 0 && !c.enqueue(out) {
		s.logger.Warn("evicting client that does not read replies", "conn", c.id, "remote", c.RemoteAddr().String())
		s.evict(c, ErrSlowClient)
		return
	}

	if decErr != nil {
		if errors.Is(decErr, ErrLimitExceeded) {
			s.logger.Warn("protocol limit exceeded", "conn", c.id, "remote", c.RemoteAddr().String(), "error", decErr)
			s.evict(c, decErr)
			return
		}
		s.metrics.CommandError("protocol")
		s.logger.Debug("malformed frame dropped", "conn", c.id, "error", decErr)
	}
}

// writeLoop sends c's queued reply batches in order. It is the only
// goroutine writing to c's socket, so a client that stops reading only
// stalls its own writer. It exits when the queue is closed on eviction.
func (s *Server) writeLoop(c *Conn) {
	for p := range c.queue {
		if err := s.write(c, p); err != nil {
			if !c.closed.Load() {
				// The reader sees the closed socket and reports it.
				s.logger.Debug("write failed", "conn", c.id, "error", err)
				_ = c.Close()
			}
			// Drain so the loop never finds the queue full of stale batches.
			for range c.queue {
			}
			return
		}
	}
}

func (s *Server) write(c *Conn, p []byte) error {
	if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return err
	}
	_, err := c.netConn.Write(p)
	return err
}

// evict removes c from the live set and closes it. Repeated calls are
// no-ops.
func (s *Server) evict(c *Conn, reason error) {
	if _, ok := s.conns[c.id]; !ok {
		return
	}
	delete(s.conns, c.id)
	c.closeQueue()
	_ = c.Close()
	s.metrics.ConnClosed()

	if reason == nil || errors.Is(reason, io.EOF) {
		s.logger.Debug("client disconnected", "conn", c.id)
		return
	}
	s.logger.Debug("connection closed", "conn", c.id, "error", reason)
}

// closeAll closes every connection once the acceptor has stopped: those
// in the live table first, then those whose open event is still queued.
func (s *Server) closeAll() {
	for id, c := range s.conns {
		c.closeQueue()
		_ = c.Close()
		delete(s.conns, id)
		s.metrics.ConnClosed()
	}
	for {
		select {
		case ev := <-s.events:
			if ev.kind == eventOpen {
				_ = ev.conn.Close()
			}
		default:
			return
		}
	}
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	var backoff time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff *= 2
			}
			if backoff > time.Second {
				backoff = time.Second
			}
			if s.acceptLog.Allow() {
				s.logger.Error("accept failed", "error", err, "retry_in", backoff)
			}

			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return
			}
		}
		backoff = 0

		c := newConn(nc, s.cfg.WriteQueueSize)
		if !s.send(ctx, event{kind: eventOpen, conn: c}) {
			_ = c.Close()
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.readLoop(ctx, c)
		}()
	}
}

// readLoop blocks on c until data arrives and forwards a copy of every
// chunk to the event loop. It exits after reporting the first read error.
func (s *Server) readLoop(ctx context.Context, c *Conn) {
	buf := make([]byte, s.cfg.ReadBufferSize)
	for {
		if s.cfg.IdleTimeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				s.send(ctx, event{kind: eventClosed, conn: c, err: err})
				return
			}
		}

		n, err := c.netConn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !s.send(ctx, event{kind: eventData, conn: c, data: data}) {
				return
			}
		}
		if err != nil {
			s.send(ctx, event{kind: eventClosed, conn: c, err: err})
			return
		}
	}
}

func (s *Server) send(ctx context.Context, ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, ErrWrongArgs):
		return "wrong_args"
	case errors.Is(err, ErrInvalidExpire):
		return "invalid_expire"
	default:
		return "other"
	}
}
