// Package permission owns the usage-access decision for the process: the
// gate that polls the platform and the controller that keeps the current
// state and re-checks it on every resume.
package permission

import "fmt"

// State is the lifecycle state of the usage-access permission.
type State int

const (
	Unknown State = iota
	Checking
	Granted
	Denied
)

var stateNames = map[State]string{
	Unknown:  "unknown",
	Checking: "checking",
	Granted:  "granted",
	Denied:   "denied",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state by name for JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Committed reports whether s is a resolved decision.
func (s State) Committed() bool {
	return s == Granted || s == Denied
}
