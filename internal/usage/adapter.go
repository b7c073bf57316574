package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultQueryTimeout bounds a single platform query.
const DefaultQueryTimeout = 10 * time.Second

// QueryAdapter is the single point of contact with the usage-accounting
// service. It never caches: usage accounting changes continuously.
type QueryAdapter struct {
	service StatsService
	perms   PermissionReader
	timeout time.Duration
	logger  *zap.Logger
}

// NewQueryAdapter creates an adapter. A timeout <= 0 disables the deadline.
func NewQueryAdapter(service StatsService, perms PermissionReader, timeout time.Duration, logger *zap.Logger) *QueryAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryAdapter{
		service: service,
		perms:   perms,
		timeout: timeout,
		logger:  logger,
	}
}

type queryResult struct {
	records []UsageRecord
	err     error
}

// QueryUsage returns the raw records for w.
//
// It fails with ErrPermissionDenied, without touching the service, unless the
// permission reader reports a granted state. Malformed windows, service
// failures and timeouts are reported as *QueryError.
func (a *QueryAdapter) QueryUsage(ctx context.Context, w TimeWindow) ([]UsageRecord, error) {
	if a.perms == nil || !a.perms.Granted() {
		return nil, ErrPermissionDenied
	}
	if !w.valid() {
		return nil, &QueryError{Window: w, Err: fmt.Errorf("window start %d is after end %d", w.start, w.end)}
	}
	if a.service == nil {
		return nil, &QueryError{Window: w, Err: errors.New("usage-stats service unavailable")}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	// The service may ignore ctx; the buffered channel lets a late answer be
	// dropped without leaking the goroutine.
	done := make(chan queryResult, 1)
	started := time.Now()
	go func() {
		records, err := a.service.QueryDaily(ctx, w.start, w.end)
		done <- queryResult{records: records, err: err}
	}()

	var res queryResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = queryResult{err: ctx.Err()}
	}

	if res.err != nil {
		a.logger.Warn("usage query failed",
			zap.Int64("start", w.start),
			zap.Int64("end", w.end),
			zap.Error(res.err))
		return nil, &QueryError{Window: w, Err: res.err}
	}

	a.logger.Debug("usage query",
		zap.Int64("start", w.start),
		zap.Int64("end", w.end),
		zap.Int("records", len(res.records)),
		zap.Duration("took", time.Since(started)))

	return res.records, nil
}
