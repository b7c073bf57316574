package watcher

import (
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/blackwell-systems/habitlens/internal/config"
	"go.uber.org/zap"
)

func TestParseLogLine(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want logRecord
	}{
		{"1000,2000,/home/a/.habitlens/bin/gimp", true, logRecord{1000, 2000, "/home/a/.habitlens/bin/gimp"}},
		{"1000,1000,gimp", true, logRecord{1000, 1000, "gimp"}},
		{"1000,/home/a/.habitlens/bin/gimp", false, logRecord{}},
		{",2000,gimp", false, logRecord{}},
		{"abc,2000,gimp", false, logRecord{}},
		{"2000,1000,gimp", false, logRecord{}},
		{"1000,2000,", false, logRecord{}},
		{"0,2000,gimp", false, logRecord{}},
		{"1000,2000,/path/with,comma", true, logRecord{1000, 2000, "/path/with,comma"}},
	}
	for _, tt := range tests {
		got, ok := parseLogLine(tt.line)
		if ok != tt.ok {
			t.Errorf("parseLogLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("parseLogLine(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestProcessLog_NoLogFile(t *testing.T) {
	st := setupTestStore(t)
	logPath, offsetPath := logPaths(t)

	n, err := processLog(st, NewMatcher(nil), logPath, offsetPath, zap.NewNop())
	if err != nil {
		t.Fatalf("processLog() error: %v", err)
	}
	if n != 0 {
		t.Errorf("processLog() = %d, want 0", n)
	}
}

func TestProcessLog_InsertsResolvedSessions(t *testing.T) {
	st := setupTestStore(t)
	insertApp(t, st, "org.gimp.GIMP", "gimp")
	insertApp(t, st, "org.inkscape.Inkscape", "inkscape")
	logPath, offsetPath := logPaths(t)

	appendLog(t, logPath,
		"1000,5000,/home/a/.habitlens/bin/gimp",
		"garbage",
		"2000,3000,/home/a/.habitlens/bin/unknown-tool",
		"6000,9000,/home/a/.habitlens/bin/inkscape",
	)

	n, err := processLog(st, NewMatcher(nil), logPath, offsetPath, zap.NewNop())
	if err != nil {
		t.Fatalf("processLog() error: %v", err)
	}
	if n != 2 {
		t.Errorf("processLog() = %d, want 2", n)
	}

	sessions, err := st.ListSessions(0, 10000)
	if err != nil {
		t.Fatalf("ListSessions() error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("ListSessions() = %d sessions, want 2", len(sessions))
	}
	if sessions[0].PackageID != "org.gimp.GIMP" || sessions[0].EndMs != 5000 || sessions[0].Launches != 1 {
		t.Errorf("sessions[0] = %+v", sessions[0])
	}
	if sessions[1].PackageID != "org.inkscape.Inkscape" {
		t.Errorf("sessions[1] = %+v", sessions[1])
	}

	data, err := os.ReadFile(offsetPath)
	if err != nil {
		t.Fatalf("offset file not written: %v", err)
	}
	info, _ := os.Stat(logPath)
	if strings.TrimSpace(string(data)) != strconv.FormatInt(info.Size(), 10) {
		t.Errorf("offset = %s, want %d", data, info.Size())
	}
}

func TestProcessLog_ResumesFromOffset(t *testing.T) {
	st := setupTestStore(t)
	insertApp(t, st, "org.gimp.GIMP", "gimp")
	logPath, offsetPath := logPaths(t)
	m := NewMatcher(nil)

	appendLog(t, logPath, "1000,2000,gimp")
	if _, err := processLog(st, m, logPath, offsetPath, zap.NewNop()); err != nil {
		t.Fatal(err)
	}

	appendLog(t, logPath, "3000,4000,gimp")
	n, err := processLog(st, m, logPath, offsetPath, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("second pass stored %d sessions, want 1", n)
	}

	count, _ := st.GetSessionCount()
	if count != 2 {
		t.Errorf("GetSessionCount() = %d, want 2", count)
	}
}

func TestProcessLog_LeavesPartialLine(t *testing.T) {
	st := setupTestStore(t)
	insertApp(t, st, "org.gimp.GIMP", "gimp")
	logPath, offsetPath := logPaths(t)

	if err := os.WriteFile(logPath, []byte("1000,2000,gimp\n3000,40"), 0600); err != nil {
		t.Fatal(err)
	}
	n, err := processLog(st, NewMatcher(nil), logPath, offsetPath, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("processLog() = %d, want 1", n)
	}

	appendLog(t, logPath, "00,gimp")
	n, err = processLog(st, NewMatcher(nil), logPath, offsetPath, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("completed line stored %d sessions, want 1", n)
	}
	sessions, _ := st.ListSessions(0, 10000)
	if len(sessions) != 2 || sessions[1].EndMs != 4000 {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestProcessLog_TruncatedLogRestarts(t *testing.T) {
	st := setupTestStore(t)
	insertApp(t, st, "org.gimp.GIMP", "gimp")
	logPath, offsetPath := logPaths(t)

	if err := writeOffsetAtomic(offsetPath, 1<<20); err != nil {
		t.Fatal(err)
	}
	appendLog(t, logPath, "1000,2000,gimp")

	n, err := processLog(st, NewMatcher(nil), logPath, offsetPath, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("processLog() = %d, want 1 after truncation", n)
	}
}

func TestProcessLog_AliasWins(t *testing.T) {
	st := setupTestStore(t)
	insertApp(t, st, "org.mozilla.firefox", "firefox")
	logPath, offsetPath := logPaths(t)

	aliases := &config.AliasConfig{Aliases: map[string]string{
		"firefox-nightly": "org.mozilla.firefox",
		"firefox":         "org.mozilla.firefox.esr",
	}}
	appendLog(t, logPath, "1000,2000,/x/firefox-nightly", "3000,4000,/x/firefox")

	if _, err := processLog(st, NewMatcher(aliases), logPath, offsetPath, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	sessions, _ := st.ListSessions(0, 10000)
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].PackageID != "org.mozilla.firefox" || sessions[1].PackageID != "org.mozilla.firefox.esr" {
		t.Errorf("sessions = %s, %s", sessions[0].PackageID, sessions[1].PackageID)
	}
}

func TestReadOffset(t *testing.T) {
	_, offsetPath := logPaths(t)

	off, err := readOffset(offsetPath)
	if err != nil || off != 0 {
		t.Errorf("readOffset(missing) = %d, %v; want 0, nil", off, err)
	}

	if err := os.WriteFile(offsetPath, []byte("nope"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := readOffset(offsetPath); err == nil {
		t.Error("readOffset() should fail on garbage")
	}

	if err := writeOffsetAtomic(offsetPath, 42); err != nil {
		t.Fatal(err)
	}
	off, err = readOffset(offsetPath)
	if err != nil || off != 42 {
		t.Errorf("readOffset() = %d, %v; want 42, nil", off, err)
	}
}
