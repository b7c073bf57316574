package watcher

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blackwell-systems/habitlens/internal/store"
	"go.uber.org/zap"
)

const maxLogLinesPerPass = 10_000

// logRecord is one parsed line of the shim session log.
type logRecord struct {
	startMs int64
	endMs   int64
	argv0   string
}

// processLog reads new entries from the session log since the last
// processed offset, resolves them with m and inserts the sessions in a
// single transaction. It returns the number of sessions stored, and is a
// no-op when the log does not exist yet.
//
// Log format (one entry per line, written by cmd/habitlens-shim):
//
//	<start_ms>,<end_ms>,<argv0_path>
//
// Example:
//
//	1709012345678,1709012399012,/home/alice/.habitlens/bin/gimp
func processLog(st *store.Store, m *Matcher, logPath, offsetPath string, logger *zap.Logger) (int, error) {
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return 0, nil
	}

	offset, err := readOffset(offsetPath)
	if err != nil {
		return 0, fmt.Errorf("read offset: %w", err)
	}

	if err := m.Build(st); err != nil {
		return 0, err
	}

	f, err := os.Open(logPath)
	if err != nil {
		return 0, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	// A log shorter than the offset was truncated or rotated.
	if info, err := f.Stat(); err == nil && info.Size() < offset {
		logger.Warn("session log shrank, restarting from the beginning",
			zap.Int64("offset", offset),
			zap.Int64("size", info.Size()))
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek log: %w", err)
	}

	var (
		sessions []*store.Session
		consumed int64
		lines    int
	)
	reader := bufio.NewReader(f)
	for lines < maxLogLinesPerPass {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			// A partial trailing line is still being written; leave it.
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read log: %w", err)
		}
		consumed += int64(len(line))
		lines++

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		rec, ok := parseLogLine(line)
		if !ok {
			logger.Warn("skipping malformed session log line", zap.String("line", line))
			continue
		}

		pkg, found := m.Match(rec.argv0)
		if !found {
			logger.Debug("no app for executable", zap.String("argv0", rec.argv0))
			continue
		}

		sessions = append(sessions, &store.Session{
			PackageID:  pkg,
			StartMs:    rec.startMs,
			EndMs:      rec.endMs,
			Launches:   1,
			BinaryPath: rec.argv0,
		})
	}

	newOffset := offset + consumed
	if len(sessions) == 0 {
		if newOffset != offset {
			return 0, writeOffsetAtomic(offsetPath, newOffset)
		}
		return 0, nil
	}

	if err := st.InsertSessions(sessions); err != nil {
		return 0, err
	}

	// Only advance the offset after a successful commit.
	if err := writeOffsetAtomic(offsetPath, newOffset); err != nil {
		return len(sessions), err
	}
	return len(sessions), nil
}

// parseLogLine parses "<start_ms>,<end_ms>,<argv0>". Sessions that end
// before they start are rejected.
func parseLogLine(line string) (logRecord, bool) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) != 3 || parts[2] == "" {
		return logRecord{}, false
	}

	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start <= 0 {
		return logRecord{}, false
	}
	end, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || end < start {
		return logRecord{}, false
	}

	return logRecord{startMs: start, endMs: end, argv0: parts[2]}, true
}

// readOffset reads the byte offset from the offset tracking file.
// Returns 0 if the file does not exist.
func readOffset(offsetPath string) (int64, error) {
	data, err := os.ReadFile(offsetPath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, nil
	}
	offset, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse offset %q: %w", s, err)
	}
	return offset, nil
}

// writeOffsetAtomic writes newOffset to offsetPath via a temp-file rename.
func writeOffsetAtomic(offsetPath string, newOffset int64) error {
	tmpPath := filepath.Join(filepath.Dir(offsetPath), ".offset.tmp")

	if err := os.WriteFile(tmpPath, []byte(strconv.FormatInt(newOffset, 10)), 0600); err != nil {
		return fmt.Errorf("write temp offset file: %w", err)
	}
	if err := os.Rename(tmpPath, offsetPath); err != nil {
		return fmt.Errorf("rename offset file: %w", err)
	}
	return nil
}
