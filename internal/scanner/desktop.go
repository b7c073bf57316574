package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/habitlens/internal/usage"
	"gopkg.in/ini.v1"
)

const desktopSection = "Desktop Entry"

// DesktopEntry is the subset of a .desktop file habitlens uses.
type DesktopEntry struct {
	ID         string // desktop file id, e.g. org.gnome.Maps
	Name       string
	ExecName   string // base name of the launched executable
	Categories []string
	NoDisplay  bool
	Hidden     bool
	Terminal   bool
}

// IsSystem reports whether the entry is part of the desktop itself rather
// than an app the user chooses to run: hidden from menus, or a settings or
// core desktop component.
func (e *DesktopEntry) IsSystem() bool {
	if e.NoDisplay {
		return true
	}
	for _, c := range e.Categories {
		switch c {
		case "Settings", "Core", "DesktopSettings", "HardwareSettings", "PackageManager":
			return true
		}
	}
	return false
}

// CategoryCode maps freedesktop categories onto the platform category
// codes. The first recognized category wins; none gives CodeUndefined.
func (e *DesktopEntry) CategoryCode() int {
	for _, c := range e.Categories {
		if code, ok := categoryCodes[c]; ok {
			return code
		}
	}
	return usage.CodeUndefined
}

var categoryCodes = map[string]int{
	"Game":             usage.CodeGame,
	"Audio":            usage.CodeAudio,
	"Music":            usage.CodeAudio,
	"Player":           usage.CodeAudio,
	"Video":            usage.CodeVideo,
	"TV":               usage.CodeVideo,
	"Graphics":         usage.CodeImage,
	"Photography":      usage.CodeImage,
	"Viewer":           usage.CodeImage,
	"Chat":             usage.CodeSocial,
	"InstantMessaging": usage.CodeSocial,
	"IRCClient":        usage.CodeSocial,
	"VideoConference":  usage.CodeSocial,
	"News":             usage.CodeNews,
	"Feed":             usage.CodeNews,
	"Maps":             usage.CodeMaps,
	"Geography":        usage.CodeMaps,
	"Office":           usage.CodeProductivity,
	"Development":      usage.CodeProductivity,
	"TextEditor":       usage.CodeProductivity,
	"Email":            usage.CodeProductivity,
	"Calendar":         usage.CodeProductivity,
}

// DesktopID derives the desktop file id from a path relative to its
// applications directory: "kde/okular.desktop" becomes "kde-okular".
func DesktopID(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".desktop")
	return strings.ReplaceAll(rel, "/", "-")
}

// ParseDesktopEntry parses the desktop file at path. It returns (nil, nil)
// for files that are not launchable applications.
func ParseDesktopEntry(path, id string) (*DesktopEntry, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	sec, err := f.GetSection(desktopSection)
	if err != nil {
		return nil, fmt.Errorf("%s: missing [%s] section", path, desktopSection)
	}

	if t := sec.Key("Type").String(); t != "" && t != "Application" {
		return nil, nil
	}

	entry := &DesktopEntry{
		ID:        id,
		Name:      sec.Key("Name").String(),
		ExecName:  ExecName(sec.Key("Exec").String()),
		NoDisplay: sec.Key("NoDisplay").MustBool(false),
		Hidden:    sec.Key("Hidden").MustBool(false),
		Terminal:  sec.Key("Terminal").MustBool(false),
	}
	for _, c := range strings.Split(sec.Key("Categories").String(), ";") {
		if c = strings.TrimSpace(c); c != "" {
			entry.Categories = append(entry.Categories, c)
		}
	}

	if entry.ExecName == "" {
		return nil, nil
	}
	return entry, nil
}

// ExecName extracts the executable base name from an Exec= value, skipping
// an "env VAR=value" prefix. Quoting is honored for the program token only.
func ExecName(exec string) string {
	fields := splitExec(exec)
	i := 0
	if i < len(fields) && filepath.Base(fields[i]) == "env" {
		i++
		for i < len(fields) && strings.Contains(fields[i], "=") && !strings.HasPrefix(fields[i], "-") {
			i++
		}
	}
	if i >= len(fields) {
		return ""
	}
	return filepath.Base(fields[i])
}

func splitExec(exec string) []string {
	var (
		fields []string
		cur    strings.Builder
		quoted bool
	)
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.TrimSpace(exec) {
		switch {
		case r == '"':
			quoted = !quoted
		case (r == ' ' || r == '\t') && !quoted:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return fields
}
