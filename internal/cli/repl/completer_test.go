package repl

import (
	"testing"
)

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter()

	tests := []struct {
		name   string
		prefix string
		want   int
	}{
		{"all", "", len(c.commands)},
		{"set", "SET", 1},
		{"lower case", "ge", 1},
		{"e prefix", "e", 2}, // ECHO, exit
		{"no match", "INCR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Complete(tt.prefix); len(got) != tt.want {
				t.Errorf("Complete(%q) = %v, want %d entries", tt.prefix, got, tt.want)
			}
		})
	}
}
