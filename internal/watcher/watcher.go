package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/blackwell-systems/habitlens/internal/config"
	"github.com/blackwell-systems/habitlens/internal/shim"
	"github.com/blackwell-systems/habitlens/internal/store"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	defaultInterval = 30 * time.Second
	debounceDelay   = time.Second
)

// Options configures a Watcher. Zero values select the defaults under
// ~/.habitlens.
type Options struct {
	LogPath    string
	OffsetPath string
	Aliases    *config.AliasConfig
	Interval   time.Duration
	Logger     *zap.Logger
}

// Watcher ingests the shim session log into the store.
type Watcher struct {
	store      *store.Store
	matcher    *Matcher
	logger     *zap.Logger
	logPath    string
	offsetPath string
	interval   time.Duration

	mu     sync.Mutex // serializes log passes
	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a new Watcher instance.
func New(st *store.Store, opts Options) (*Watcher, error) {
	if st == nil {
		return nil, errors.New("store cannot be nil")
	}

	if opts.LogPath == "" {
		p, err := shim.GetUsageLogPath()
		if err != nil {
			return nil, err
		}
		opts.LogPath = p
	}
	if opts.OffsetPath == "" {
		opts.OffsetPath = filepath.Join(filepath.Dir(opts.LogPath), "usage.offset")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Watcher{
		store:      st,
		matcher:    NewMatcher(opts.Aliases),
		logger:     opts.Logger,
		logPath:    opts.LogPath,
		offsetPath: opts.OffsetPath,
		interval:   opts.Interval,
		stopCh:     make(chan struct{}),
	}, nil
}

// ProcessOnce runs a single ingestion pass and returns the number of
// sessions stored.
func (w *Watcher) ProcessOnce() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return processLog(w.store, w.matcher, w.logPath, w.offsetPath, w.logger)
}

func (w *Watcher) process(reason string) {
	n, err := w.ProcessOnce()
	if err != nil {
		w.logger.Error("session log processing failed", zap.String("trigger", reason), zap.Error(err))
		return
	}
	if n > 0 {
		w.logger.Info("sessions ingested", zap.String("trigger", reason), zap.Int("sessions", n))
	}
}

// Start processes any pending entries, then keeps ingesting on a ticker
// and on filesystem writes to the log. fsnotify is best-effort: if the log
// directory cannot be watched the ticker alone drives ingestion.
func (w *Watcher) Start() error {
	w.process("startup")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify unavailable, polling only", zap.Error(err))
	} else if err := fsw.Add(filepath.Dir(w.logPath)); err != nil {
		w.logger.Warn("cannot watch log directory, polling only",
			zap.String("dir", filepath.Dir(w.logPath)),
			zap.Error(err))
		fsw.Close()
	} else {
		w.fsw = fsw
	}

	w.wg.Add(1)
	go w.run()

	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var (
		events  <-chan fsnotify.Event
		errs    <-chan error
		pending bool
	)
	if w.fsw != nil {
		events = w.fsw.Events
		errs = w.fsw.Errors
	}
	debounce := time.NewTimer(debounceDelay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ticker.C:
			w.process("tick")
			pending = false
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.logPath) || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if !pending {
				pending = true
				debounce.Reset(debounceDelay)
			}
		case <-debounce.C:
			if pending {
				w.process("write")
				pending = false
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn("fsnotify error", zap.Error(err))
		case <-w.stopCh:
			w.process("shutdown")
			return
		}
	}
}

// Stop halts the watcher and flushes any remaining log entries.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	w.wg.Wait()

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
