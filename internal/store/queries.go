package store

import (
	"database/sql"
	"fmt"
	"time"
)

// App operations

// UpsertApp inserts or replaces an application in the database.
func (s *Store) UpsertApp(app *App) error {
	query := `
		INSERT OR REPLACE INTO apps
		(package_id, label, exec_name, is_system, category, installed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		app.PackageID,
		app.Label,
		app.ExecName,
		app.IsSystem,
		app.Category,
		app.InstalledAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert app %s: %w", app.PackageID, classify(err))
	}

	return nil
}

// GetApp retrieves an application by package id. It returns sql.ErrNoRows
// (wrapped) when the package is not installed.
func (s *Store) GetApp(packageID string) (*App, error) {
	query := `
		SELECT package_id, label, exec_name, is_system, category, installed_at
		FROM apps
		WHERE package_id = ?
	`

	app, err := scanApp(s.db.QueryRow(query, packageID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("app %s not found: %w", packageID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get app %s: %w", packageID, classify(err))
	}
	return app, nil
}

// ListApps returns all applications ordered by package id.
func (s *Store) ListApps() ([]*App, error) {
	query := `
		SELECT package_id, label, exec_name, is_system, category, installed_at
		FROM apps
		ORDER BY package_id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", classify(err))
	}
	defer rows.Close()

	var apps []*App
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan app row: %w", err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating apps: %w", err)
	}

	return apps, nil
}

// DeleteApp removes an application. Its sessions are kept: usage that was
// recorded before an uninstall is still history.
func (s *Store) DeleteApp(packageID string) error {
	result, err := s.db.Exec(`DELETE FROM apps WHERE package_id = ?`, packageID)
	if err != nil {
		return fmt.Errorf("failed to delete app %s: %w", packageID, classify(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("app %s not found", packageID)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApp(row rowScanner) (*App, error) {
	var app App
	var label, execName, installedAt sql.NullString

	if err := row.Scan(
		&app.PackageID,
		&label,
		&execName,
		&app.IsSystem,
		&app.Category,
		&installedAt,
	); err != nil {
		return nil, err
	}

	app.Label = label.String
	app.ExecName = execName.String
	if installedAt.Valid && installedAt.String != "" {
		t, err := time.Parse(time.RFC3339, installedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse installed_at for %s: %w", app.PackageID, err)
		}
		app.InstalledAt = t
	}

	return &app, nil
}

// Session operations

// InsertSessions records foreground sessions in a single transaction.
func (s *Store) InsertSessions(sessions []*Session) error {
	if len(sessions) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO foreground_sessions (package_id, start_ms, end_ms, launches, binary_path)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("failed to prepare session insert: %w", classify(err))
	}
	defer stmt.Close()

	for _, sess := range sessions {
		if sess.EndMs < sess.StartMs {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("session for %s ends before it starts (%d < %d)", sess.PackageID, sess.EndMs, sess.StartMs)
		}
		if _, err := stmt.Exec(sess.PackageID, sess.StartMs, sess.EndMs, sess.Launches, sess.BinaryPath); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("failed to insert session for %s: %w", sess.PackageID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sessions: %w", err)
	}

	return nil
}

// ListSessions returns all sessions overlapping [startMs, endMs], ordered by
// start time.
func (s *Store) ListSessions(startMs, endMs int64) ([]*Session, error) {
	query := `
		SELECT package_id, start_ms, end_ms, launches, COALESCE(binary_path, '')
		FROM foreground_sessions
		WHERE start_ms <= ? AND end_ms >= ?
		ORDER BY start_ms, id
	`

	rows, err := s.db.Query(query, endMs, startMs)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", classify(err))
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.PackageID, &sess.StartMs, &sess.EndMs, &sess.Launches, &sess.BinaryPath); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, &sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// GetSessionCount returns the total number of sessions recorded.
func (s *Store) GetSessionCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM foreground_sessions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get session count: %w", classify(err))
	}
	return count, nil
}

// GetFirstSessionTime returns the start of the earliest recorded session.
// Returns zero time if no sessions exist.
func (s *Store) GetFirstSessionTime() (time.Time, error) {
	var startMs sql.NullInt64
	err := s.db.QueryRow("SELECT MIN(start_ms) FROM foreground_sessions").Scan(&startMs)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get first session time: %w", classify(err))
	}
	if !startMs.Valid {
		return time.Time{}, nil
	}
	return time.UnixMilli(startMs.Int64), nil
}

// App-ops operations

// GetOpMode returns the mode recorded for op, or ModeDefault when the op was
// never set.
func (s *Store) GetOpMode(op string) (string, error) {
	var mode string
	err := s.db.QueryRow(`SELECT mode FROM app_ops WHERE op = ?`, op).Scan(&mode)
	if err == sql.ErrNoRows {
		return ModeDefault, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get mode for op %s: %w", op, classify(err))
	}
	return mode, nil
}

// SetOpMode records the mode for op.
func (s *Store) SetOpMode(op, mode string) error {
	switch mode {
	case ModeAllowed, ModeIgnored, ModeDefault:
	default:
		return fmt.Errorf("invalid op mode %q", mode)
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO app_ops (op, mode, updated_at)
		VALUES (?, ?, ?)
	`, op, mode, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to set mode for op %s: %w", op, classify(err))
	}
	return nil
}

// Settings operations

// GetSetting returns the value stored under key and whether it was present.
func (s *Store) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, classify(err))
	}
	return value, true, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, classify(err))
	}
	return nil
}
