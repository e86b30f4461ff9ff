package command

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvcache/internal/cli/connection"
	"github.com/yndnr/kvcache/internal/cli/output"
)

// Result is the outcome of one command, as printed by the formatters.
type Result struct {
	Command string `json:"command" yaml:"command"`
	Reply   string `json:"reply,omitempty" yaml:"reply,omitempty"`
	Null    bool   `json:"null,omitempty" yaml:"null,omitempty"`
	NoReply bool   `json:"no_reply,omitempty" yaml:"no_reply,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// String renders the result the way redis-cli does.
func (r Result) String() string {
	switch {
	case r.NoReply:
		return "(no reply)"
	case r.Null:
		return "(nil)"
	case r.Error != "":
		return "(error) " + r.Error
	default:
		return r.Reply
	}
}

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check that the server answers",
		ArgsUsage: "[message]",
		Action: func(c *cli.Context) error {
			return execute(c, append([]string{"PING"}, c.Args().Slice()...))
		},
	}
}

// EchoCommand returns the echo command.
func EchoCommand() *cli.Command {
	return &cli.Command{
		Name:      "echo",
		Usage:     "Ask the server to repeat a message",
		ArgsUsage: "<message>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("echo requires exactly one message")
			}
			return execute(c, []string{"ECHO", c.Args().First()})
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value, optionally expiring",
		ArgsUsage: "<key> <value>",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "px",
				Usage: "Expire after this many milliseconds",
			},
			&cli.Int64Flag{
				Name:  "ex",
				Usage: "Expire after this many seconds",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.New("set requires a key and a value")
			}
			if c.IsSet("px") && c.IsSet("ex") {
				return errors.New("--px and --ex are mutually exclusive")
			}

			args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}
			switch {
			case c.IsSet("px"):
				args = append(args, "PX", strconv.FormatInt(c.Int64("px"), 10))
			case c.IsSet("ex"):
				args = append(args, "EX", strconv.FormatInt(c.Int64("ex"), 10))
			}
			return execute(c, args)
		},
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read a value",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("get requires a key")
			}
			return execute(c, []string{"GET", c.Args().First()})
		},
	}
}

// DoCommand returns the do command, which sends arbitrary words.
func DoCommand() *cli.Command {
	return &cli.Command{
		Name:      "do",
		Usage:     "Send a raw command",
		ArgsUsage: "<command> [args...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("do requires a command")
			}
			return execute(c, c.Args().Slice())
		},
	}
}

// execute sends args once and prints the result in the chosen format.
func execute(c *cli.Context, args []string) error {
	client, flags, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := send(c.Context, client, args)
	if err != nil {
		return err
	}
	return output.NewFormatter(flags.Output).Format(c.App.Writer, res)
}

// run is the interactive executor.
func run(ctx context.Context, client *connection.Client, args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	res, err := send(ctx, client, args)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

func send(ctx context.Context, client *connection.Client, args []string) (Result, error) {
	res := Result{Command: strings.ToUpper(args[0])}

	reply, err := client.Do(ctx, args...)
	switch {
	case errors.Is(err, connection.ErrNoReply):
		res.NoReply = true
	case err != nil:
		return Result{}, err
	case reply.Null:
		res.Null = true
	case reply.Err != "":
		res.Error = reply.Err
	default:
		res.Reply = reply.Text
	}
	return res, nil
}
