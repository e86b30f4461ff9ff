package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultReplyTimeout is how long Do waits for a reply.
const DefaultReplyTimeout = 2 * time.Second

var (
	// ErrNoReply is returned when the server sent nothing back in time.
	ErrNoReply = errors.New("connection: no reply")

	// ErrBadReply is returned for a reply that is not valid RESP.
	ErrBadReply = errors.New("connection: malformed reply")
)

// Reply is a single decoded server reply.
type Reply struct {
	// Text holds a simple string, bulk string or integer.
	Text string
	// Null is set for the null bulk string ($-1).
	Null bool
	// Err holds the message of an error reply.
	Err string
}

// String renders the reply the way redis-cli does.
func (r Reply) String() string {
	switch {
	case r.Null:
		return "(nil)"
	case r.Err != "":
		return "(error) " + r.Err
	default:
		return r.Text
	}
}

// Client is a connection to a kvcache server. It is not safe for
// concurrent use.
type Client struct {
	conn         net.Conn
	r            *bufio.Reader
	replyTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithReplyTimeout sets how long Do waits for a reply.
func WithReplyTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.replyTimeout = d
	}
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewClient(conn, opts...), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, opts ...Option) *Client {
	c := &Client{
		conn:         conn,
		r:            bufio.NewReader(conn),
		replyTimeout: DefaultReplyTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends one command and waits for its reply.
func (c *Client) Do(ctx context.Context, args ...string) (Reply, error) {
	if len(args) == 0 {
		return Reply{}, errors.New("connection: empty command")
	}

	deadline := time.Now().Add(c.replyTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Reply{}, err
	}

	if _, err := c.conn.Write(EncodeCommand(args...)); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	reply, err := ReadReply(c.r)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return Reply{}, ErrNoReply
		}
		return Reply{}, err
	}
	return reply, nil
}

// EncodeCommand encodes args as a RESP array of bulk strings.
func EncodeCommand(args ...string) []byte {
	b := make([]byte, 0, 16+len(args)*16)
	b = append(b, '*')
	b = strconv.AppendInt(b, int64(len(args)), 10)
	b = append(b, '\r', '\n')
	for _, a := range args {
		b = append(b, '$')
		b = strconv.AppendInt(b, int64(len(a)), 10)
		b = append(b, '\r', '\n')
		b = append(b, a...)
		b = append(b, '\r', '\n')
	}
	return b
}

// ReadReply reads one reply from r.
func ReadReply(r *bufio.Reader) (Reply, error) {
	line, err := readLine(r)
	if err != nil {
		return Reply{}, err
	}
	if line == "" {
		return Reply{}, fmt.Errorf("%w: empty line", ErrBadReply)
	}

	switch line[0] {
	case '+', ':':
		return Reply{Text: line[1:]}, nil
	case '-':
		return Reply{Err: line[1:]}, nil
	case '$':
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return Reply{}, fmt.Errorf("%w: bulk length %q", ErrBadReply, line[1:])
		}
		if n < 0 {
			return Reply{Null: true}, nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Reply{}, err
		}
		if buf[n] != '\r' || buf[n+1] != '\n' {
			return Reply{}, fmt.Errorf("%w: bulk string not terminated", ErrBadReply)
		}
		return Reply{Text: string(buf[:n])}, nil
	default:
		return Reply{}, fmt.Errorf("%w: unexpected type %q", ErrBadReply, line[0])
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(line, "\r\n") {
		return "", fmt.Errorf("%w: line not CRLF terminated", ErrBadReply)
	}
	return line[:len(line)-2], nil
}
