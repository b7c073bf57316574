package store

import "time"

// App is an installed application known to the package-metadata service.
type App struct {
	PackageID   string
	Label       string
	ExecName    string // executable basename, used to attribute shim sessions
	IsSystem    bool
	Category    int // platform category code, -1 when undefined
	InstalledAt time.Time
}

// Session is one foreground interval of an application, in epoch milliseconds.
type Session struct {
	PackageID  string
	StartMs    int64
	EndMs      int64
	Launches   int
	BinaryPath string
}

// Op modes, mirroring the platform's app-ops vocabulary.
const (
	ModeAllowed = "allowed"
	ModeIgnored = "ignored"
	ModeDefault = "default"
)

// OpGetUsageStats is the op that gates reading usage accounting.
const OpGetUsageStats = "GET_USAGE_STATS"
