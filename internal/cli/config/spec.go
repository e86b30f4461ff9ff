package config

import "time"

// CLIConfig is the configuration for kvcache-cli. Every field can be set
// from the environment or a dotenv file; command-line flags override it.
type CLIConfig struct {
	// Server is the address of the kvcache server.
	Server string `env:"KVCACHE_CLI_SERVER" envDefault:"127.0.0.1:6379"`

	// Output is the output format: text, json or yaml.
	Output string `env:"KVCACHE_CLI_OUTPUT" envDefault:"text"`

	// Timeout bounds connecting and waiting for each reply.
	Timeout time.Duration `env:"KVCACHE_CLI_TIMEOUT" envDefault:"2s"`

	// HistoryFile stores interactive history. Empty uses ~/.kvcache/history.
	HistoryFile string `env:"KVCACHE_CLI_HISTORY_FILE"`
}
