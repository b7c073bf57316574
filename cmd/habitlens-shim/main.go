// Command habitlens-shim times application sessions.
// It is placed at ~/.habitlens/bin/habitlens-shim, with symlinks created for
// each scanned app executable (e.g. ~/.habitlens/bin/gimp -> habitlens-shim).
//
// When the user launches a shimmed app, this binary:
//  1. Finds the real executable on PATH, skipping the shim directory
//  2. Runs it as a child with the same arguments, stdio and environment,
//     forwarding signals
//  3. Appends "<start_ms>,<end_ms>,<argv0>" to ~/.habitlens/usage.log
//     (best-effort, never fails the user's command)
//  4. Exits with the child's exit status
//
// The shim must NOT import any internal habitlens packages: it is a standalone
// binary compiled and deployed separately from the main CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const shimName = "habitlens-shim"

func main() {
	cmdName := filepath.Base(os.Args[0])

	realBin := findRealBinary(cmdName)
	if realBin == "" {
		fmt.Fprintf(os.Stderr, "habitlens-shim: cannot find real executable for %q on PATH\n", cmdName)
		os.Exit(127)
	}

	cmd := exec.Command(realBin, os.Args[1:]...)
	cmd.Args[0] = os.Args[0]
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "habitlens-shim: start %s failed: %v\n", realBin, err)
		os.Exit(126)
	}

	go func() {
		for sig := range sigs {
			_ = cmd.Process.Signal(sig)
		}
	}()

	err := cmd.Wait()
	signal.Stop(sigs)
	logSession(start, time.Now())

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &exitErr):
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			os.Exit(128 + int(status.Signal()))
		}
		os.Exit(exitErr.ExitCode())
	default:
		fmt.Fprintf(os.Stderr, "habitlens-shim: %v\n", err)
		os.Exit(1)
	}
}

// logSession appends a session record to ~/.habitlens/usage.log.
// Failures are silently ignored.
func logSession(start, end time.Time) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return
	}

	logPath := filepath.Join(homeDir, ".habitlens", "usage.log")

	// O_APPEND keeps single writes atomic on POSIX filesystems.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	// argv0 is the shim symlink path, e.g. /home/alice/.habitlens/bin/gimp
	fmt.Fprintf(f, "%d,%d,%s\n", start.UnixMilli(), end.UnixMilli(), os.Args[0])
}

// findRealBinary searches PATH for name, skipping the shim directory.
// Returns "" for the shim itself to prevent an exec loop.
func findRealBinary(name string) string {
	if name == shimName {
		return ""
	}

	var shimDir string
	if home, err := os.UserHomeDir(); err == nil {
		shimDir = filepath.Join(home, ".habitlens", "bin")
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" || filepath.Clean(dir) == shimDir {
			continue
		}
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || info.Mode()&0111 == 0 {
			continue
		}
		return p
	}
	return ""
}
