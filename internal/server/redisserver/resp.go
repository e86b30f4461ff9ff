package redisserver

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Protocol limits.
const (
	// MaxArrayLen limits the number of words in a single command.
	MaxArrayLen = 1024

	// MaxInlineLen limits inline commands and count or length headers.
	// Bulk data lines are only bounded by MaxBufferLen.
	MaxInlineLen = 64 * 1024

	// MaxBufferLen limits the undecoded bytes held for one connection.
	MaxBufferLen = 1024 * 1024
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")

	// errIncomplete means the buffer ends before the current frame does.
	errIncomplete = errors.New("resp: incomplete frame")
)

var crlf = []byte("\r\n")

// Decoder turns a connection's byte stream into commands.
//
// Bytes are appended with Feed; Next returns complete commands in arrival
// order. A frame that is not complete yet stays buffered until more bytes
// arrive, so a read may end anywhere inside a frame.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Parse decodes every complete command in chunk. Trailing bytes that do
// not form a complete command are discarded.
func Parse(chunk []byte) ([]Command, error) {
	return NewDecoder().Decode(chunk)
}

// Buffered returns the number of undecoded bytes held.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset drops all buffered bytes.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Feed appends p to the buffer.
func (d *Decoder) Feed(p []byte) error {
	if len(d.buf)+len(p) > MaxBufferLen {
		return fmt.Errorf("%w: buffered %d bytes exceeds limit %d", ErrLimitExceeded, len(d.buf)+len(p), MaxBufferLen)
	}
	d.buf = append(d.buf, p...)
	return nil
}

// Decode feeds p and returns every command that is now complete.
//
// An ErrProtocol error does not stop decoding: the offending line is
// dropped and the first such error is returned alongside the commands.
// An ErrLimitExceeded error stops decoding; the caller should drop the
// connection.
func (d *Decoder) Decode(p []byte) ([]Command, error) {
	if err := d.Feed(p); err != nil {
		return nil, err
	}

	var (
		cmds     []Command
		firstErr error
	)
	for {
		cmd, ok, err := d.Next()
		if err != nil {
			if errors.Is(err, ErrLimitExceeded) {
				return cmds, err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !ok {
			return cmds, firstErr
		}
		cmds = append(cmds, cmd)
	}
}

// Next decodes one command from the buffer.
//
// It returns ok=false with a nil error when the buffer holds no complete
// command. On ErrProtocol the malformed line has been consumed and Next
// may be called again.
func (d *Decoder) Next() (Command, bool, error) {
	for {
		if len(d.buf) == 0 {
			return Command{}, false, nil
		}

		line, pos, err := scanLine(d.buf, 0, MaxInlineLen)
		if err != nil {
			return Command{}, false, d.pending(err)
		}

		if len(bytes.TrimSpace(line)) == 0 {
			d.consume(pos)
			continue
		}

		if line[0] != '*' {
			// Inline command: "PING\r\n", "GET foo\r\n".
			words := strings.Fields(string(line))
			d.consume(pos)
			return newCommand(words), true, nil
		}

		n, err := parseLength(line[1:])
		if err != nil {
			d.consume(pos)
			return Command{}, false, fmt.Errorf("%w: invalid array length %q", ErrProtocol, line)
		}
		if n <= 0 {
			// "*0" and "*-1" carry no command.
			d.consume(pos)
			continue
		}
		if n > MaxArrayLen {
			return Command{}, false, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
		}

		words := make([]string, 0, n)
		for i := 0; i < n; i++ {
			var word string
			word, pos, err = scanWord(d.buf, pos)
			if err != nil {
				return Command{}, false, d.pending(err)
			}
			words = append(words, word)
		}

		d.consume(pos)
		return newCommand(words), true, nil
	}
}

// pending maps an incomplete-frame condition to "need more data".
func (d *Decoder) pending(err error) error {
	if errors.Is(err, errIncomplete) {
		return nil
	}
	return err
}

// consume drops the first n bytes, keeping the buffer's capacity.
func (d *Decoder) consume(n int) {
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}

// scanWord reads one word starting at off: either "$<len>\r\n<word>\r\n"
// or a bare "<word>\r\n". The declared length is not checked against the
// word; the word always ends at the next CRLF.
func scanWord(buf []byte, off int) (string, int, error) {
	line, next, err := scanLine(buf, off, MaxInlineLen)
	if err != nil {
		return "", off, err
	}

	if len(line) > 1 && line[0] == '$' {
		n, perr := parseLength(line[1:])
		if perr == nil {
			if n < 0 {
				// Null bulk: no data line follows.
				return "", next, nil
			}
			data, end, err := scanLine(buf, next, MaxBufferLen)
			if err != nil {
				return "", off, err
			}
			return string(data), end, nil
		}
		// Not a length prefix; a literal word that starts with '$'.
	}

	return string(line), next, nil
}

// scanLine returns the line starting at off without its CRLF, and the
// offset just past the CRLF. Lines longer than limit are rejected.
func scanLine(buf []byte, off, limit int) ([]byte, int, error) {
	i := bytes.Index(buf[off:], crlf)
	if i < 0 {
		if len(buf)-off > limit {
			return nil, off, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, limit)
		}
		return nil, off, errIncomplete
	}
	if i > limit {
		return nil, off, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, limit)
	}
	return buf[off : off+i], off + i + len(crlf), nil
}

// parseLength parses a decimal count or length of any number of digits.
func parseLength(b []byte) (int, error) {
	s := string(bytes.TrimSpace(b))
	if s == "" {
		return 0, fmt.Errorf("%w: empty length", ErrProtocol)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, s)
	}
	return n, nil
}

// AppendSimpleString appends "+s\r\n".
func AppendSimpleString(dst []byte, s string) []byte {
	dst = append(dst, '+')
	dst = append(dst, s...)
	return append(dst, crlf...)
}

// AppendNullBulk appends the not-found reply "$-1\r\n".
func AppendNullBulk(dst []byte) []byte {
	return append(dst, "$-1\r\n"...)
}
