package store

const schema = `
CREATE TABLE IF NOT EXISTS apps (
    package_id TEXT PRIMARY KEY,
    label TEXT,
    exec_name TEXT,
    is_system BOOLEAN NOT NULL DEFAULT 0,
    category INTEGER NOT NULL DEFAULT -1,
    installed_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS foreground_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    package_id TEXT NOT NULL,
    start_ms INTEGER NOT NULL,
    end_ms INTEGER NOT NULL,
    launches INTEGER NOT NULL DEFAULT 0,
    binary_path TEXT,
    CHECK (end_ms >= start_ms)
);

CREATE TABLE IF NOT EXISTS app_ops (
    op TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_package ON foreground_sessions(package_id);
CREATE INDEX IF NOT EXISTS idx_sessions_start ON foreground_sessions(start_ms);
CREATE INDEX IF NOT EXISTS idx_sessions_end ON foreground_sessions(end_ms);
CREATE INDEX IF NOT EXISTS idx_apps_exec ON apps(exec_name);
`
