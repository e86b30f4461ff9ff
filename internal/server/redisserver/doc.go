// Package redisserver implements the kvcache wire protocol server.
//
// It speaks a subset of RESP2 over plaintext TCP:
//
//   - requests: arrays of words (`*<n>` header followed by `$<len>`
//     prefixed or bare lines), or inline commands
//   - replies: simple strings (`+...`) and the null bulk (`$-1`)
//
// Supported commands: PING, ECHO, SET (with PX/EX expiry) and GET.
//
// The package is split along three parts:
//
//   - resp.go: Decoder, which keeps a per-connection carry-over buffer and
//     yields complete commands, plus reply encoders
//   - command.go: Command and Interpreter, which apply commands to a
//     storage.Store
//   - server.go: Server, a single event loop that owns the store and every
//     live connection, fed by per-connection reader goroutines; replies
//     leave through a bounded queue drained by each connection's writer
package redisserver
