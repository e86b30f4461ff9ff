package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvcache/internal/cli/config"
	"github.com/yndnr/kvcache/internal/cli/connection"
	"github.com/yndnr/kvcache/internal/cli/output"
	"github.com/yndnr/kvcache/internal/cli/repl"
	"github.com/yndnr/kvcache/internal/infra/buildinfo"
)

const configKey = "config"

// App creates the CLI application. Without a subcommand it starts the
// interactive mode.
func App() *cli.App {
	return &cli.App{
		Name:    "kvcache-cli",
		Usage:   "kvcache command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			EchoCommand(),
			SetCommand(),
			GetCommand(),
			DoCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("env-file"))
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[configKey] = cfg
			return nil
		},
		Action: interactive,
	}
}

// globalFlags returns the global CLI flags. Their defaults come from the
// environment, see internal/cli/config.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "kvcache server address (default from KVCACHE_CLI_SERVER or 127.0.0.1:6379)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Connect and reply timeout",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "dotenv file with KVCACHE_CLI_* settings (default ~/.kvcache/cli.env)",
		},
	}
}

// GlobalFlags holds the effective global settings.
type GlobalFlags struct {
	Server      string
	Output      output.Format
	Timeout     time.Duration
	HistoryFile string
}

// ParseGlobalFlags merges explicitly set flags over the loaded config.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.CLIConfig)
	if !ok {
		cfg = config.Default()
	}

	flags := &GlobalFlags{
		Server:      cfg.Server,
		Timeout:     cfg.Timeout,
		HistoryFile: cfg.HistoryFile,
	}
	format := cfg.Output

	if c.IsSet("server") {
		flags.Server = c.String("server")
	}
	if c.IsSet("output") {
		format = c.String("output")
	}
	if c.IsSet("timeout") {
		flags.Timeout = c.Duration("timeout")
	}
	if flags.Timeout <= 0 {
		flags.Timeout = connection.DefaultReplyTimeout
	}

	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f

	if flags.HistoryFile == "" {
		flags.HistoryFile = repl.DefaultHistoryFile()
	}
	return flags, nil
}

// connect dials the configured server.
func connect(c *cli.Context) (*connection.Client, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	client, err := connection.Dial(ctx, flags.Server, connection.WithReplyTimeout(flags.Timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return client, flags, nil
}

func interactive(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}

	client, flags, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	history := repl.NewHistory(flags.HistoryFile)
	if err := history.Load(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: load history: %v\n", err)
	}

	r := repl.New(
		func(ctx context.Context, args []string) (string, error) {
			return run(ctx, client, args)
		},
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithPrompt(flags.Server+"> "),
		repl.WithHistory(history),
	)
	if err := r.Run(c.Context); err != nil {
		return err
	}
	return history.Save()
}
