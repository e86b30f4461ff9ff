// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader that supports multiple
// sources using koanf as the underlying library.
//
// Features:
//
//   - Multiple Sources: YAML files, environment variables, flag overrides
//   - Watch Support: Notification on config file changes (fsnotify)
//   - Type Safety: Unmarshaling into typed structs
//   - Defaults: Keys missing from every source keep the target's value
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables (KVCACHE_ prefix)
//  3. Configuration file
//  4. Default values
package confloader
