package permission

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ResumeSource delivers foreground-resume events. Subscribe registers a
// listener and returns a function that releases it.
type ResumeSource interface {
	Subscribe() (<-chan struct{}, func())
}

// Broadcaster is a ResumeSource fed by explicit Notify calls, for hosts
// that learn about resumes themselves (terminal focus events, HTTP hits).
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan struct{}]struct{})}
}

// Subscribe registers a listener.
func (b *Broadcaster) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
}

// Notify signals every listener. Events coalesce: a listener that has not
// consumed the previous event sees one event, not two.
func (b *Broadcaster) Notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SignalSource turns process signals into resume events. The default is
// SIGCONT, which a shell delivers when a stopped job returns to the
// foreground.
type SignalSource struct {
	signals []os.Signal
}

// NewSignalSource creates a source for sigs, or SIGCONT when none are given.
func NewSignalSource(sigs ...os.Signal) *SignalSource {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGCONT}
	}
	return &SignalSource{signals: sigs}
}

// Subscribe starts listening for the configured signals.
func (s *SignalSource) Subscribe() (<-chan struct{}, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, s.signals...)

	return forward(sigCh, func() { signal.Stop(sigCh) })
}

// IntervalSource emits an event every interval. It stands in for a resume
// hook where a host only supports polling.
type IntervalSource struct {
	interval time.Duration
}

// NewIntervalSource creates a polling source.
func NewIntervalSource(interval time.Duration) *IntervalSource {
	return &IntervalSource{interval: interval}
}

// Subscribe starts the ticker.
func (s *IntervalSource) Subscribe() (<-chan struct{}, func()) {
	ticker := time.NewTicker(s.interval)
	return forward(ticker.C, ticker.Stop)
}

// Sources fans several resume sources into one.
type Sources []ResumeSource

// Subscribe listens to every non-nil source. Events from all of them
// coalesce on one channel.
func (s Sources) Subscribe() (<-chan struct{}, func()) {
	out := make(chan struct{}, 1)
	quit := make(chan struct{})

	var (
		wg       sync.WaitGroup
		releases []func()
	)
	for _, src := range s {
		if src == nil {
			continue
		}
		in, release := src.Subscribe()
		releases = append(releases, release)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-quit:
					return
				case _, ok := <-in:
					if !ok {
						return
					}
					select {
					case out <- struct{}{}:
					default:
					}
				}
			}
		}()
	}

	var once sync.Once
	return out, func() {
		once.Do(func() {
			close(quit)
			wg.Wait()
			for _, release := range releases {
				release()
			}
		})
	}
}

// forward relays values from in as resume events until released.
func forward[T any](in <-chan T, stop func()) (<-chan struct{}, func()) {
	out := make(chan struct{}, 1)
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			case <-in:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			stop()
			close(quit)
			<-done
		})
	}
}
