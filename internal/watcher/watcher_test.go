package watcher

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_NilStore(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Error("New(nil) expected error, got nil")
	}
}

func TestNew_Defaults(t *testing.T) {
	st := setupTestStore(t)
	logPath, _ := logPaths(t)

	w, err := New(st, Options{LogPath: logPath})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.offsetPath != filepath.Join(filepath.Dir(logPath), "usage.offset") {
		t.Errorf("offsetPath = %q", w.offsetPath)
	}
	if w.interval != defaultInterval {
		t.Errorf("interval = %s, want %s", w.interval, defaultInterval)
	}
}

func TestWatcher_IngestsOnWrite(t *testing.T) {
	st := setupTestStore(t)
	insertApp(t, st, "org.gimp.GIMP", "gimp")
	logPath, offsetPath := logPaths(t)

	w, err := New(st, Options{LogPath: logPath, OffsetPath: offsetPath, Interval: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	appendLog(t, logPath, "1000,2000,gimp")

	deadline := time.Now().Add(5 * time.Second)
	for {
		count, err := st.GetSessionCount()
		if err != nil {
			t.Fatal(err)
		}
		if count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session was not ingested after a log write")
		}
		time.Sleep(50 * time.Millisecond)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
}

func TestWatcher_StopFlushes(t *testing.T) {
	st := setupTestStore(t)
	insertApp(t, st, "org.gimp.GIMP", "gimp")
	logPath, offsetPath := logPaths(t)

	w, err := New(st, Options{LogPath: logPath, OffsetPath: offsetPath, Interval: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	appendLog(t, logPath, "1000,2000,gimp")
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	appendLog(t, logPath, "3000,4000,gimp")
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	count, _ := st.GetSessionCount()
	if count != 2 {
		t.Errorf("GetSessionCount() = %d after Stop, want 2", count)
	}
}

func TestIsDaemonRunning_NotRunning(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for non-existent PID file")
	}
}

func TestIsDaemonRunning_WithCurrentProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if !running {
		t.Error("IsDaemonRunning() = false, want true for current process")
	}
}

func TestIsDaemonRunning_StalePIDFileRemoved(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")
	if err := os.WriteFile(pidFile, []byte("999999\n"), 0644); err != nil {
		t.Fatal(err)
	}

	running, _ := IsDaemonRunning(pidFile)
	if running {
		t.Skip("PID 999999 is in use on this system")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("stale PID file was not removed")
	}
}

func TestIsDaemonRunning_InvalidPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")
	if err := os.WriteFile(pidFile, []byte("not-a-pid\n"), 0644); err != nil {
		t.Fatal(err)
	}
	running, err := IsDaemonRunning(pidFile)
	if err != nil || running {
		t.Errorf("IsDaemonRunning() = %v, %v; want false, nil", running, err)
	}
}

func TestStopDaemon_NoPIDFile(t *testing.T) {
	err := StopDaemon(filepath.Join(t.TempDir(), "missing.pid"), time.Second)
	if err == nil {
		t.Fatal("StopDaemon() expected error for missing PID file")
	}
}

func TestStopDaemon_StopsChild(t *testing.T) {
	cmd := startSleeper(t)
	pidFile := filepath.Join(t.TempDir(), "sleep.pid")
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0644); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		cmd.Wait() //nolint:errcheck
		close(done)
	}()

	if err := StopDaemon(pidFile, 5*time.Second); err != nil {
		t.Fatalf("StopDaemon() error: %v", err)
	}
	<-done

	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("PID file should be removed after stop")
	}
}

func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	return cmd
}
