package redisserver

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
)

// ============================================================
// Decoder Tests - Array Format
// ============================================================

func TestDecoder_Array(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantName string
		wantArgs []string
	}{
		{
			name:     "PING",
			input:    "*1\r\n$4\r\nPING\r\n",
			wantKind: KindPing,
			wantName: "PING",
		},
		{
			name:     "ECHO",
			input:    "*2\r\n$4\r\nECHO\r\n$5\r\nhello\r\n",
			wantKind: KindEcho,
			wantName: "ECHO",
			wantArgs: []string{"hello"},
		},
		{
			name:     "SET with PX",
			input:    "*5\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n$2\r\nPX\r\n$2\r\n10\r\n",
			wantKind: KindSet,
			wantName: "SET",
			wantArgs: []string{"foo", "bar", "PX", "10"},
		},
		{
			name:     "lowercase keyword",
			input:    "*2\r\n$3\r\nget\r\n$3\r\nfoo\r\n",
			wantKind: KindGet,
			wantName: "get",
			wantArgs: []string{"foo"},
		},
		{
			name:     "mixed case keyword",
			input:    "*1\r\n$4\r\nPiNg\r\n",
			wantKind: KindPing,
			wantName: "PiNg",
		},
		{
			name:     "bare words",
			input:    "*3\r\nSET\r\nfoo\r\nbar\r\n",
			wantKind: KindSet,
			wantName: "SET",
			wantArgs: []string{"foo", "bar"},
		},
		{
			name:     "bare and bulk words mixed",
			input:    "*3\r\n$3\r\nSET\r\nfoo\r\n$3\r\nbar\r\n",
			wantKind: KindSet,
			wantName: "SET",
			wantArgs: []string{"foo", "bar"},
		},
		{
			name:     "embedded spaces",
			input:    "*2\r\n$4\r\nECHO\r\n$11\r\nhello world\r\n",
			wantKind: KindEcho,
			wantName: "ECHO",
			wantArgs: []string{"hello world"},
		},
		{
			name:     "declared length is advisory",
			input:    "*2\r\n$4\r\nECHO\r\n$3\r\nhello\r\n",
			wantKind: KindEcho,
			wantName: "ECHO",
			wantArgs: []string{"hello"},
		},
		{
			name:     "null bulk word",
			input:    "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$-1\r\n",
			wantKind: KindSet,
			wantName: "SET",
			wantArgs: []string{"k", ""},
		},
		{
			name:     "literal word starting with dollar",
			input:    "*2\r\n$4\r\nECHO\r\n$money\r\n",
			wantKind: KindEcho,
			wantName: "ECHO",
			wantArgs: []string{"$money"},
		},
		{
			name:     "unknown keyword keeps its arguments",
			input:    "*3\r\n$4\r\nINCR\r\n$1\r\nx\r\n$1\r\ny\r\n",
			wantKind: KindUnknown,
			wantName: "INCR",
			wantArgs: []string{"x", "y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(cmds) != 1 {
				t.Fatalf("got %d commands, want 1", len(cmds))
			}
			assertCommand(t, cmds[0], tt.wantKind, tt.wantName, tt.wantArgs)
		})
	}
}

func TestDecoder_MultiDigit(t *testing.T) {
	var b strings.Builder
	b.WriteString("*12\r\n$4\r\nECHO\r\n")
	want := make([]string, 0, 11)
	for i := 0; i < 11; i++ {
		w := strings.Repeat(string(rune('a'+i)), 10+i)
		want = append(want, w)
		b.WriteString("$" + strconv.Itoa(len(w)) + "\r\n" + w + "\r\n")
	}

	cmds, err := Parse([]byte(b.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	assertCommand(t, cmds[0], KindEcho, "ECHO", want)
}

func TestDecoder_EmptyArrays(t *testing.T) {
	cmds, err := Parse([]byte("*0\r\n*-1\r\n*1\r\n$4\r\nPING\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Kind != KindPing {
		t.Fatalf("got %+v, want a single PING", cmds)
	}
}

// ============================================================
// Decoder Tests - Inline Format
// ============================================================

func TestDecoder_Inline(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantArgs []string
	}{
		{name: "simple PING", input: "PING\r\n", wantKind: KindPing},
		{name: "inline with args", input: "GET mykey\r\n", wantKind: KindGet, wantArgs: []string{"mykey"}},
		{name: "extra whitespace", input: "  SET  k   v \r\n", wantKind: KindSet, wantArgs: []string{"k", "v"}},
		{name: "after blank lines", input: "\r\n   \r\nECHO hi\r\n", wantKind: KindEcho, wantArgs: []string{"hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(cmds) != 1 {
				t.Fatalf("got %d commands, want 1", len(cmds))
			}
			if cmds[0].Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", cmds[0].Kind, tt.wantKind)
			}
			assertArgs(t, cmds[0].Args, tt.wantArgs)
		})
	}
}

func TestDecoder_BlankOnly(t *testing.T) {
	d := NewDecoder()
	cmds, err := d.Decode([]byte("\r\n\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 0 {
		t.Errorf("got %d commands, want 0", len(cmds))
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered = %d, want 0", d.Buffered())
	}
}

// ============================================================
// Decoder Tests - Pipelining and carry-over
// ============================================================

func TestDecoder_Pipelined(t *testing.T) {
	input := "*1\r\n$4\r\nPING\r\n*2\r\n$4\r\nECHO\r\n$5\r\nworld\r\nGET foo\r\n"

	cmds, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 3 {
		t.Fatalf("got %d commands, want 3", len(cmds))
	}
	assertCommand(t, cmds[0], KindPing, "PING", nil)
	assertCommand(t, cmds[1], KindEcho, "ECHO", []string{"world"})
	assertCommand(t, cmds[2], KindGet, "GET", []string{"foo"})
}

func TestDecoder_ByteAtATime(t *testing.T) {
	input := []byte("*2\r\n$4\r\nECHO\r\n$5\r\nhello\r\n*1\r\n$4\r\nPING\r\n")
	firstEnd := len("*2\r\n$4\r\nECHO\r\n$5\r\nhello\r\n")

	d := NewDecoder()
	var got []Command
	for i, b := range input {
		cmds, err := d.Decode([]byte{b})
		if err != nil {
			t.Fatalf("byte %d: unexpected error: %v", i, err)
		}
		if len(cmds) > 0 && i != firstEnd-1 && i != len(input)-1 {
			t.Fatalf("byte %d: command decoded before its frame was complete", i)
		}
		got = append(got, cmds...)
	}

	if len(got) != 2 {
		t.Fatalf("got %d commands, want 2", len(got))
	}
	assertCommand(t, got[0], KindEcho, "ECHO", []string{"hello"})
	assertCommand(t, got[1], KindPing, "PING", nil)
	if d.Buffered() != 0 {
		t.Errorf("Buffered = %d, want 0", d.Buffered())
	}
}

func TestDecoder_CarryOver(t *testing.T) {
	d := NewDecoder()

	cmds, err := d.Decode([]byte("*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$3\r\nf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Kind != KindPing {
		t.Fatalf("first chunk: got %+v, want PING", cmds)
	}
	if want := len("*2\r\n$3\r\nGET\r\n$3\r\nf"); d.Buffered() != want {
		t.Errorf("Buffered = %d, want %d", d.Buffered(), want)
	}

	cmds, err = d.Decode([]byte("oo\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("second chunk: got %d commands, want 1", len(cmds))
	}
	assertCommand(t, cmds[0], KindGet, "GET", []string{"foo"})
}

func TestParse_DiscardsIncompleteTail(t *testing.T) {
	cmds, err := Parse([]byte("*1\r\n$4\r\nPING\r\n*2\r\n$4\r\nECHO\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Kind != KindPing {
		t.Fatalf("got %+v, want a single PING", cmds)
	}
}

func TestDecoder_Reset(t *testing.T) {
	d := NewDecoder()
	if _, err := d.Decode([]byte("*3\r\n$3\r\nSET\r\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Buffered() == 0 {
		t.Fatal("expected buffered bytes")
	}
	d.Reset()
	if d.Buffered() != 0 {
		t.Errorf("Buffered after Reset = %d, want 0", d.Buffered())
	}
}

// ============================================================
// Decoder Tests - Errors and limits
// ============================================================

func TestDecoder_MalformedCount(t *testing.T) {
	d := NewDecoder()
	cmds, err := d.Decode([]byte("*x\r\n*1\r\n$4\r\nPING\r\n"))
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
	if len(cmds) != 1 || cmds[0].Kind != KindPing {
		t.Fatalf("got %+v, want PING after the malformed line", cmds)
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered = %d, want 0", d.Buffered())
	}
}

func TestDecoder_Next(t *testing.T) {
	d := NewDecoder()
	if err := d.Feed([]byte("*1\r\n$4\r\nPING\r\n*1\r\n")); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	cmd, ok, err := d.Next()
	if err != nil || !ok || cmd.Kind != KindPing {
		t.Fatalf("Next = %+v, %v, %v; want PING, true, nil", cmd, ok, err)
	}

	_, ok, err = d.Next()
	if err != nil || ok {
		t.Fatalf("Next on partial frame = %v, %v; want false, nil", ok, err)
	}
}

func TestDecoder_Limits(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{
			name:  "array too long",
			input: []byte("*" + strconv.Itoa(MaxArrayLen+1) + "\r\n"),
		},
		{
			name:  "line without CRLF too long",
			input: bytes.Repeat([]byte("a"), MaxInlineLen+10),
		},
		{
			name:  "bulk length header too long",
			input: append([]byte("*2\r\n$4\r\nECHO\r\n$"), bytes.Repeat([]byte("9"), MaxInlineLen+1)...),
		},
		{
			name:  "bare word line too long",
			input: append([]byte("*2\r\n$4\r\nECHO\r\n"), append(bytes.Repeat([]byte("b"), MaxInlineLen+1), "\r\n"...)...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, ErrLimitExceeded) {
				t.Errorf("err = %v, want ErrLimitExceeded", err)
			}
		})
	}
}

func TestDecoder_LargeBulkValue(t *testing.T) {
	value := strings.Repeat("v", 70*1024)
	frame := "*3\r\n$3\r\nSET\r\n$3\r\nbig\r\n$" + strconv.Itoa(len(value)) + "\r\n" + value + "\r\n"

	d := NewDecoder()
	var cmds []Command
	// Arrives in read-sized chunks, as from the network.
	for i := 0; i < len(frame); i += 4096 {
		end := min(i+4096, len(frame))
		got, err := d.Decode([]byte(frame[i:end]))
		if err != nil {
			t.Fatalf("Decode at offset %d: %v", i, err)
		}
		cmds = append(cmds, got...)
	}

	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].Kind != KindSet || cmds[0].Args[0] != "big" || cmds[0].Args[1] != value {
		t.Errorf("command = %v %q (value %d bytes)", cmds[0].Kind, cmds[0].Args[0], len(cmds[0].Args[1]))
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered = %d, want 0", d.Buffered())
	}
}

func TestDecoder_BulkValueAtBufferLimit(t *testing.T) {
	// A bulk line without its CRLF is only rejected once it outgrows the
	// buffer itself.
	d := NewDecoder()
	input := append([]byte("*2\r\n$4\r\nECHO\r\n$9\r\n"), bytes.Repeat([]byte("x"), MaxInlineLen*4)...)
	if _, err := d.Decode(input); err != nil {
		t.Errorf("Decode: %v, want incomplete frame kept", err)
	}
}

func TestDecoder_BufferLimit(t *testing.T) {
	d := NewDecoder()
	chunk := bytes.Repeat([]byte("x"), MaxBufferLen/2)
	if err := d.Feed(chunk); err != nil {
		t.Fatalf("first Feed: %v", err)
	}
	if err := d.Feed(chunk); err != nil {
		t.Fatalf("second Feed: %v", err)
	}
	if err := d.Feed([]byte("y")); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("err = %v, want ErrLimitExceeded", err)
	}
}

// ============================================================
// Reply encoders
// ============================================================

func TestAppendReplies(t *testing.T) {
	if got := string(AppendSimpleString(nil, "PONG")); got != "+PONG\r\n" {
		t.Errorf("AppendSimpleString = %q", got)
	}
	if got := string(AppendNullBulk([]byte("+OK\r\n"))); got != "+OK\r\n$-1\r\n" {
		t.Errorf("AppendNullBulk = %q", got)
	}
}

func assertCommand(t *testing.T, got Command, kind Kind, name string, args []string) {
	t.Helper()
	if got.Kind != kind {
		t.Errorf("kind = %v, want %v", got.Kind, kind)
	}
	if got.Name != name {
		t.Errorf("name = %q, want %q", got.Name, name)
	}
	assertArgs(t, got.Args, args)
}

func assertArgs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("args = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
