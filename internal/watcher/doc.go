// Package watcher ingests app sessions recorded by the PATH shim.
//
// When a user launches a shimmed app, habitlens-shim times the run and
// appends "<start_ms>,<end_ms>,<argv0>" to ~/.habitlens/usage.log. The
// Watcher processes that log on a 30-second ticker and whenever fsnotify
// reports a write, resolves executables to package ids, and batch-inserts
// sessions into the ledger the usage-stats service reads.
//
// Key features:
//   - Shim log polling plus fsnotify wakeups (no special permissions required)
//   - Crash-safe offset tracking (temp file + rename pattern)
//   - Batched SQLite inserts (single transaction per pass)
//   - Daemon mode support with PID file management
//   - Graceful shutdown with SIGTERM/SIGINT handling
//
// Example usage:
//
//	st, err := store.New("~/.habitlens/habitlens.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer st.Close()
//
//	w, err := watcher.New(st, watcher.Options{Logger: logger})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
package watcher
