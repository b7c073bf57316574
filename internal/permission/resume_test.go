package permission

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_CoalescesEvents(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Notify()
	b.Notify()

	<-ch
	select {
	case <-ch:
		t.Fatal("expected pending events to coalesce")
	default:
	}
}

func TestBroadcaster_NoSubscribers(t *testing.T) {
	b := NewBroadcaster()
	assert.NotPanics(t, b.Notify)
}

func TestSources_FanIn(t *testing.T) {
	first, second := NewBroadcaster(), NewBroadcaster()
	ch, cancel := Sources{first, nil, second}.Subscribe()

	for _, b := range []*Broadcaster{first, second} {
		b.Notify()
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("event from a merged source not delivered")
		}
	}

	cancel()
	cancel()
	for _, b := range []*Broadcaster{first, second} {
		b.mu.Lock()
		assert.Empty(t, b.subs)
		b.mu.Unlock()
	}
}

func TestIntervalSource(t *testing.T) {
	src := NewIntervalSource(5 * time.Millisecond)
	ch, cancel := src.Subscribe()
	defer cancel()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no tick received")
	}
}

func TestSignalSource(t *testing.T) {
	src := NewSignalSource(syscall.SIGUSR1)
	ch, cancel := src.Subscribe()
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("signal not delivered as resume event")
	}
}

func TestSignalSource_DefaultsToSIGCONT(t *testing.T) {
	src := NewSignalSource()
	assert.Equal(t, []os.Signal{syscall.SIGCONT}, src.signals)
}
