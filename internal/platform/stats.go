package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/blackwell-systems/habitlens/internal/store"
	"github.com/blackwell-systems/habitlens/internal/usage"
	"go.uber.org/zap"
)

// StatsService answers daily-granularity usage queries from the session
// ledger.
type StatsService struct {
	store  *store.Store
	caps   usage.Capabilities
	loc    *time.Location
	logger *zap.Logger
}

// NewStatsService creates a stats service. Daily buckets follow local days
// in loc (time.Local when nil).
func NewStatsService(st *store.Store, caps usage.Capabilities, loc *time.Location, logger *zap.Logger) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{store: st, caps: caps, loc: loc, logger: logger}
}

// Capabilities reports what this service can return.
func (s *StatsService) Capabilities() usage.Capabilities {
	return s.caps
}

type bucketKey struct {
	packageID string
	day       int64
}

// QueryDaily returns one record per (package, local day) with foreground
// time in [startMs, endMs]. Sessions are clipped to the window, and a
// session spanning midnight is split across both days. Launches count on
// the day the session started, and only when that start lies in the window.
func (s *StatsService) QueryDaily(ctx context.Context, startMs, endMs int64) ([]usage.UsageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, errors.New("session ledger not open")
	}

	sessions, err := s.store.ListSessions(startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	buckets := make(map[bucketKey]*usage.UsageRecord)
	for _, sess := range sessions {
		from := max(sess.StartMs, startMs)
		to := min(sess.EndMs, endMs)
		if from > to {
			continue
		}

		for from <= to {
			day := s.dayStart(from)
			next := s.nextDay(day)
			lastMs := min(to, next-1)

			rec := buckets[bucketKey{sess.PackageID, day}]
			if rec == nil {
				rec = &usage.UsageRecord{
					PackageID:   sess.PackageID,
					FirstUsedAt: from,
					LastUsedAt:  lastMs,
				}
				buckets[bucketKey{sess.PackageID, day}] = rec
			}
			rec.TotalForeground += min(to, next) - from
			rec.FirstUsedAt = min(rec.FirstUsedAt, from)
			rec.LastUsedAt = max(rec.LastUsedAt, lastMs)
			if s.caps.LaunchCountSupported && from == sess.StartMs {
				rec.LaunchCount += sess.Launches
			}

			from = next
		}
	}

	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].packageID < keys[j].packageID
	})

	records := make([]usage.UsageRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, *buckets[k])
	}

	s.logger.Debug("daily usage buckets",
		zap.Int("sessions", len(sessions)),
		zap.Int("records", len(records)))

	return records, nil
}

func (s *StatsService) dayStart(ms int64) int64 {
	t := time.UnixMilli(ms).In(s.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc).UnixMilli()
}

func (s *StatsService) nextDay(dayStart int64) int64 {
	t := time.UnixMilli(dayStart).In(s.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, s.loc).UnixMilli()
}
