package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat periodically emits an event carrying the time since it started,
// so a stalled pipeline can be told apart from a dead one in long --watch
// sessions.
type Heartbeat struct {
	stop chan struct{}
	once sync.Once
	done sync.WaitGroup
}

// StartHeartbeat starts emitting to t every interval. It returns nil when
// tracing is off or interval is not positive; Stop accepts nil.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{})}
	h.done.Add(1)
	go func() {
		defer h.done.Done()
		start := time.Now()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for beat := 1; ; beat++ {
			select {
			case now := <-ticker.C:
				t.Emit(&Event{
					Time:   now,
					Kind:   KindHeartbeat,
					Scope:  ScopeDriver,
					Name:   "heartbeat",
					Detail: fmt.Sprintf("#%d after %s", beat, now.Sub(start).Round(time.Millisecond)),
				})
			case <-h.stop:
				return
			}
		}
	}()
	return h
}

// Stop ends the heartbeat and waits for its goroutine.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.done.Wait()
}
