package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile returns the default dotenv file path.
func DefaultEnvFile() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".kvcache", "cli.env")
}

// Default returns the configuration with no environment applied.
func Default() *CLIConfig {
	cfg, err := parse(map[string]string{})
	if err != nil {
		// envDefault values are constants; failing here is a programming error.
		panic(err)
	}
	return cfg
}

// Load reads the process environment on top of envFile. Variables
// already set in the environment win over the file. An empty envFile
// tries DefaultEnvFile and ignores it when missing.
func Load(envFile string) (*CLIConfig, error) {
	return LoadFrom(envFile, environ())
}

// LoadFrom is Load with an explicit environment.
func LoadFrom(envFile string, environment map[string]string) (*CLIConfig, error) {
	merged := make(map[string]string)

	path, required := envFile, true
	if path == "" {
		path, required = DefaultEnvFile(), false
	}
	fileVars, err := godotenv.Read(path)
	switch {
	case err == nil:
		for k, v := range fileVars {
			merged[k] = v
		}
	case !required && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	for k, v := range environment {
		merged[k] = v
	}
	return parse(merged)
}

func parse(environment map[string]string) (*CLIConfig, error) {
	var cfg CLIConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

func environ() map[string]string {
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
