package permission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Recorder persists the committed permission decision.
type Recorder interface {
	RecordPermission(granted bool) error
}

// Snapshot is a consistent view of the controller.
type Snapshot struct {
	State     State     `json:"state" yaml:"state"`
	Err       error     `json:"-" yaml:"-"`
	CheckedAt time.Time `json:"checkedAt,omitempty" yaml:"checkedAt,omitempty"`
}

// ErrText returns the error slot as a string, or "" when empty.
func (s Snapshot) ErrText() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// DefaultCheckTimeout bounds a gate query when no timeout is configured.
const DefaultCheckTimeout = 10 * time.Second

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder persists every committed decision through r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithLogger sets the controller logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCheckTimeout bounds a single gate query. Zero means
// DefaultCheckTimeout.
func WithCheckTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the clock used for CheckedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller is the single owner of the process permission state. All
// writes go through it; readers use State, Snapshot or Subscribe.
// Concurrent Check calls share one in-flight gate query.
type Controller struct {
	gate     Gate
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
	timeout  time.Duration

	group singleflight.Group

	mu      sync.RWMutex
	snap    Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

// NewController creates a controller in the Unknown state.
func NewController(gate Gate, opts ...Option) *Controller {
	c := &Controller{
		gate:    gate,
		logger:  zap.NewNop(),
		now:     time.Now,
		timeout: DefaultCheckTimeout,
		subs:    make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.State
}

// Granted reports whether the committed state is Granted. A check in flight
// reads as not granted.
func (c *Controller) Granted() bool {
	return c.State() == Granted
}

// Err returns the error slot.
func (c *Controller) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Err
}

// Snapshot returns the state, error slot and last check time together.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Check moves to Checking, polls the gate and commits Granted or Denied.
// A gate failure commits Denied and fills the error slot.
// The shared gate query ignores caller cancellation and is bounded by the
// check timeout.
func (c *Controller) Check(ctx context.Context) Snapshot {
	v, _, _ := c.group.Do("check", func() (any, error) {
		return c.runCheck(context.WithoutCancel(ctx)), nil
	})
	return v.(Snapshot)
}

func (c *Controller) runCheck(ctx context.Context) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	checkID := uuid.NewString()
	c.publish(Snapshot{State: Checking, CheckedAt: c.Snapshot().CheckedAt})

	var (
		granted bool
		err     error
	)
	if c.gate == nil {
		err = errors.New("no permission gate configured")
	} else {
		granted, err = c.gate.Check(ctx)
	}

	next := Snapshot{State: Denied, Err: err, CheckedAt: c.now()}
	if granted && err == nil {
		next.State = Granted
	}
	c.publish(next)

	c.logger.Debug("permission checked",
		zap.String("check_id", checkID),
		zap.Stringer("state", next.State),
		zap.Error(err))

	if c.recorder != nil {
		if rerr := c.recorder.RecordPermission(next.State == Granted); rerr != nil {
			c.logger.Warn("failed to persist permission decision",
				zap.String("check_id", checkID),
				zap.Error(rerr))
		}
	}

	return next
}

// Request opens the grant surface. It does not change the state: the grant
// happens out-of-band and is observed by the next check. A launch failure
// is stored in the error slot and returned.
func (c *Controller) Request(ctx context.Context) error {
	var err error
	if c.gate == nil {
		err = errors.New("no permission gate configured")
	} else {
		err = c.gate.Request(ctx)
	}
	if err != nil {
		c.mu.Lock()
		c.snap.Err = err
		c.notifyLocked()
		c.mu.Unlock()
	}
	return err
}

// Subscribe returns a channel receiving every state change and a function
// that ends the subscription. Slow subscribers only see the latest value.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Activate checks the permission once and then again on every event from
// src until ctx is done or the returned release function is called.
// release blocks until the background loop has exited, which includes
// waiting out a check already in flight.
func (c *Controller) Activate(ctx context.Context, src ResumeSource) (release func()) {
	ctx, cancel := context.WithCancel(ctx)

	var events <-chan struct{}
	unsubscribe := func() {}
	if src != nil {
		events, unsubscribe = src.Subscribe()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer unsubscribe()

		c.Check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				c.logger.Debug("resume event, re-checking permission")
				c.Check(ctx)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (c *Controller) publish(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = s
	c.notifyLocked()
}

// notifyLocked delivers the current snapshot, replacing any value a
// subscriber has not read yet. c.mu must be held for writing.
func (c *Controller) notifyLocked() {
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c.snap:
		default:
		}
	}
}
