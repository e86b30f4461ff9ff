package redisserver

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/kvcache/internal/storage"
)

// Kind identifies a supported command.
type Kind int

const (
	KindUnknown Kind = iota
	KindPing
	KindEcho
	KindSet
	KindGet
)

// String returns the command's wire name.
func (k Kind) String() string {
	switch k {
	case KindPing:
		return "PING"
	case KindEcho:
		return "ECHO"
	case KindSet:
		return "SET"
	case KindGet:
		return "GET"
	default:
		return "UNKNOWN"
	}
}

// Command is one decoded request. Kind is derived from the first word,
// case-insensitively; the remaining words are Args in the order received.
type Command struct {
	Kind Kind
	Name string
	Args []string
}

func newCommand(words []string) Command {
	if len(words) == 0 {
		return Command{Kind: KindUnknown}
	}
	return Command{
		Kind: lookupKind(words[0]),
		Name: words[0],
		Args: words[1:],
	}
}

func lookupKind(name string) Kind {
	switch normalizeCommandName(name) {
	case "PING":
		return KindPing
	case "ECHO":
		return KindEcho
	case "SET":
		return KindSet
	case "GET":
		return KindGet
	default:
		return KindUnknown
	}
}

func normalizeCommandName(s string) string {
	// Uppercase ASCII without allocating for already uppercased tokens.
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(s)
	}
	return s
}

// Interpreter errors. None of them produce a reply on the wire; they
// exist so callers can tell a skipped command from a bug.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrWrongArgs      = errors.New("wrong number of arguments")
	ErrInvalidExpire  = errors.New("invalid expire time")
)

// Expiry options accepted by SET.
const (
	optPX = "PX" // milliseconds
	optEX = "EX" // seconds
)

// Interpreter applies commands to a store.
type Interpreter struct {
	store storage.Store
}

// NewInterpreter returns an interpreter bound to store.
func NewInterpreter(store storage.Store) *Interpreter {
	return &Interpreter{store: store}
}

// Execute runs cmd and returns its reply bytes.
//
// A non-nil error means the command was skipped: no reply is due and the
// store was not modified.
func (in *Interpreter) Execute(cmd Command) ([]byte, error) {
	return in.AppendExecute(nil, cmd)
}

// AppendExecute is Execute appending the reply to dst. On error dst is
// returned unchanged.
func (in *Interpreter) AppendExecute(dst []byte, cmd Command) ([]byte, error) {
	switch cmd.Kind {
	case KindPing:
		return in.ping(dst, cmd)
	case KindEcho:
		return in.echo(dst, cmd)
	case KindSet:
		return in.set(dst, cmd)
	case KindGet:
		return in.get(dst, cmd)
	default:
		return dst, fmt.Errorf("%w '%s'", ErrUnknownCommand, cmd.Name)
	}
}

// PING [message]
func (in *Interpreter) ping(dst []byte, _ Command) ([]byte, error) {
	return AppendSimpleString(dst, "PONG"), nil
}

// ECHO message
func (in *Interpreter) echo(dst []byte, cmd Command) ([]byte, error) {
	if len(cmd.Args) < 1 {
		return dst, wrongArgs(KindEcho)
	}
	return AppendSimpleString(dst, cmd.Args[0]), nil
}

// SET key value [PX milliseconds | EX seconds]
func (in *Interpreter) set(dst []byte, cmd Command) ([]byte, error) {
	if len(cmd.Args) < 2 {
		return dst, wrongArgs(KindSet)
	}

	ttl, err := parseExpiry(cmd.Args[2:])
	if err != nil {
		return dst, err
	}

	in.store.Set(cmd.Args[0], cmd.Args[1], ttl)
	return AppendSimpleString(dst, "OK"), nil
}

// GET key
func (in *Interpreter) get(dst []byte, cmd Command) ([]byte, error) {
	if len(cmd.Args) < 1 {
		return dst, wrongArgs(KindGet)
	}

	value, ok := in.store.Get(cmd.Args[0])
	if !ok {
		return AppendNullBulk(dst), nil
	}
	return AppendSimpleString(dst, value), nil
}

// parseExpiry scans SET's trailing options. The last PX/EX wins; tokens
// that are not expiry options are ignored.
func parseExpiry(opts []string) (time.Duration, error) {
	var ttl time.Duration
	for i := 0; i < len(opts); i++ {
		var unit time.Duration
		switch normalizeCommandName(opts[i]) {
		case optPX:
			unit = time.Millisecond
		case optEX:
			unit = time.Second
		default:
			continue
		}

		if i+1 >= len(opts) {
			return 0, fmt.Errorf("%w: %s needs a value", ErrInvalidExpire, opts[i])
		}
		n, err := strconv.ParseInt(opts[i+1], 10, 64)
		if err != nil || n <= 0 || n > math.MaxInt64/int64(unit) {
			return 0, fmt.Errorf("%w: %s %q", ErrInvalidExpire, opts[i], opts[i+1])
		}
		ttl = time.Duration(n) * unit
		i++
	}
	return ttl, nil
}

func wrongArgs(k Kind) error {
	return fmt.Errorf("%w for '%s' command", ErrWrongArgs, k)
}
