package usage

import (
	"fmt"
	"time"
)

// UsageRecord is one raw per-app aggregate as reported by the usage-accounting
// service. Timestamps are epoch milliseconds.
type UsageRecord struct {
	PackageID       string
	TotalForeground int64 // milliseconds
	LastUsedAt      int64
	FirstUsedAt     int64
	LaunchCount     int // 0 when the platform cannot report it
}

// Category is the platform's coarse app category.
type Category string

const (
	CategoryGame         Category = "Game"
	CategoryAudio        Category = "Audio"
	CategoryVideo        Category = "Video"
	CategoryImage        Category = "Image"
	CategorySocial       Category = "Social"
	CategoryNews         Category = "News"
	CategoryMaps         Category = "Maps"
	CategoryProductivity Category = "Productivity"
	CategoryOther        Category = "Other"
	CategoryUnknown      Category = "Unknown"
)

// Platform category codes.
const (
	CodeUndefined    = -1
	CodeGame         = 0
	CodeAudio        = 1
	CodeVideo        = 2
	CodeImage        = 3
	CodeSocial       = 4
	CodeNews         = 5
	CodeMaps         = 6
	CodeProductivity = 7
)

// CategoryFromCode maps a platform category code to a Category. When the
// platform cannot report categories at all the result is CategoryUnknown;
// an unrecognized code on a capable platform is CategoryOther.
func CategoryFromCode(code int, supported bool) Category {
	if !supported {
		return CategoryUnknown
	}
	switch code {
	case CodeGame:
		return CategoryGame
	case CodeAudio:
		return CategoryAudio
	case CodeVideo:
		return CategoryVideo
	case CodeImage:
		return CategoryImage
	case CodeSocial:
		return CategorySocial
	case CodeNews:
		return CategoryNews
	case CodeMaps:
		return CategoryMaps
	case CodeProductivity:
		return CategoryProductivity
	default:
		return CategoryOther
	}
}

// AppMetadata is what the package-metadata service knows about a package.
type AppMetadata struct {
	PackageID   string
	DisplayName string // resolved label, or PackageID when the label is unreadable
	IsSystemApp bool
	Category    Category
}

// UsageInfo is a normalized, consumer-facing usage entry. Every UsageInfo
// produced by the pipeline has TotalForeground > 0 and belongs to a
// non-system app.
type UsageInfo struct {
	PackageID       string `json:"packageName" yaml:"packageName"`
	AppName         string `json:"appName" yaml:"appName"`
	TotalForeground int64  `json:"totalTimeInForeground" yaml:"totalTimeInForeground"`
	LastUsedAt      int64  `json:"lastTimeUsed" yaml:"lastTimeUsed"`
	FirstUsedAt     int64  `json:"firstTimeUsed" yaml:"firstTimeUsed"`
	LaunchCount     int    `json:"launchCount" yaml:"launchCount"`
}

// Foreground returns the total foreground time as a duration.
func (u UsageInfo) Foreground() time.Duration {
	return time.Duration(u.TotalForeground) * time.Millisecond
}

// Capabilities describes what the usage-accounting platform can report.
type Capabilities struct {
	LaunchCountSupported bool
	CategoriesSupported  bool
}

// TimeWindow is a closed interval of epoch milliseconds. Windows are built
// by the Windows constructors only, which guarantee Start <= End.
type TimeWindow struct {
	start int64
	end   int64
}

// Start returns the window start in epoch milliseconds.
func (w TimeWindow) Start() int64 { return w.start }

// End returns the window end in epoch milliseconds.
func (w TimeWindow) End() int64 { return w.end }

// StartTime returns the window start in loc.
func (w TimeWindow) StartTime(loc *time.Location) time.Time {
	return time.UnixMilli(w.start).In(loc)
}

// EndTime returns the window end in loc.
func (w TimeWindow) EndTime(loc *time.Location) time.Time {
	return time.UnixMilli(w.end).In(loc)
}

func (w TimeWindow) valid() bool {
	return w.start <= w.end
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%d, %d]", w.start, w.end)
}
