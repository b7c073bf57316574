package analyzer

import (
	"time"

	"github.com/blackwell-systems/habitlens/internal/usage"
)

// Frequency classifications.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyRare    = "rare"
	FrequencyNever   = "never"
)

// AppUsage is one app's usage merged across every daily record of a window.
type AppUsage struct {
	PackageID    string        `json:"packageName" yaml:"packageName"`
	AppName      string        `json:"appName" yaml:"appName"`
	Foreground   time.Duration `json:"-" yaml:"-"`
	ForegroundMs int64         `json:"totalTimeInForeground" yaml:"totalTimeInForeground"`
	LaunchCount  int           `json:"launchCount" yaml:"launchCount"`
	FirstUsedAt  int64         `json:"firstTimeUsed" yaml:"firstTimeUsed"`
	LastUsedAt   int64         `json:"lastTimeUsed" yaml:"lastTimeUsed"`
	Share        float64       `json:"share" yaml:"share"` // fraction of the window's total foreground time
}

// LastUsed returns LastUsedAt as a time.
func (a AppUsage) LastUsed() time.Time {
	return time.UnixMilli(a.LastUsedAt)
}

// CategoryTotal is the summed foreground time of one category.
type CategoryTotal struct {
	Category     usage.Category `json:"category" yaml:"category"`
	ForegroundMs int64          `json:"totalTimeInForeground" yaml:"totalTimeInForeground"`
	Apps         int            `json:"apps" yaml:"apps"`
}

// DayUsage is the usage of one calendar day.
type DayUsage struct {
	Date         string     `json:"date" yaml:"date"` // YYYY-MM-DD, local
	ForegroundMs int64      `json:"totalTimeInForeground" yaml:"totalTimeInForeground"`
	Apps         []AppUsage `json:"apps" yaml:"apps"`
}

// AppStats summarizes an app over a multi-day trend.
type AppStats struct {
	AppUsage   `yaml:",inline"`
	ActiveDays int    `json:"activeDays" yaml:"activeDays"`
	Days       int    `json:"days" yaml:"days"`
	DailyAvgMs int64  `json:"dailyAverage" yaml:"dailyAverage"` // per active day
	Frequency  string `json:"frequency" yaml:"frequency"`
}
