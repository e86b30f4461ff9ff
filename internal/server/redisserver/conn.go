package redisserver

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
)

// Conn is one client connection.
//
// The reader goroutine only reads from netConn and the writer goroutine
// only writes to it. The decoder and the sending side of queue belong to
// the event loop.
type Conn struct {
	id      string
	netConn net.Conn

	dec   *Decoder
	queue chan []byte

	closed    atomic.Bool
	queueOnce sync.Once
}

func newConn(c net.Conn, queueSize int) *Conn {
	return &Conn{
		id:      ulid.Make().String(),
		netConn: c,
		dec:     NewDecoder(),
		queue:   make(chan []byte, queueSize),
	}
}

// enqueue hands a reply batch to the writer without blocking. It reports
// false when the queue is full.
func (c *Conn) enqueue(p []byte) bool {
	select {
	case c.queue <- p:
		return true
	default:
		return false
	}
}

// closeQueue stops the writer once it has drained the queue.
func (c *Conn) closeQueue() {
	c.queueOnce.Do(func() {
		close(c.queue)
	})
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// Close closes the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}
