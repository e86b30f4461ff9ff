// Package shutdown provides graceful shutdown for kvcache-server.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Programmatic shutdown (Trigger)
//   - Timeout-bounded cleanup hooks, run in reverse order
//   - A context cancelled when shutdown begins
//
// Usage:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	go srv.Serve(h.Context(), ln)
//	return h.Wait()
package shutdown
