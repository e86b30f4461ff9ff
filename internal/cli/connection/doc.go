// Package connection provides the Redis protocol client used by
// kvcache-cli.
//
// A Client sends each command as a RESP array of bulk strings and reads
// one reply. kvcache-server answers only with simple strings and the null
// bulk string, and sends nothing at all for a command it ignores, so Do
// reports ErrNoReply once the reply timeout passes.
package connection
