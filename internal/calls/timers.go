package calls

import (
	"sync"
	"time"
)

// timerSet tracks the scheduled transitions (ring delay, ring timeout) per
// call token. Every terminal transition must cancel its call's timers so a
// stale timer cannot resurrect a finished call.
type timerSet struct {
	mu     sync.Mutex
	timers map[string][]*time.Timer
}

func newTimerSet() *timerSet {
	return &timerSet{timers: make(map[string][]*time.Timer)}
}

// schedule runs fn after d unless the call's timers are cancelled first.
func (t *timerSet) schedule(callID string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	timer := time.AfterFunc(d, fn)
	t.timers[callID] = append(t.timers[callID], timer)
}

// cancel stops all pending timers for the call.
func (t *timerSet) cancel(callID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, timer := range t.timers[callID] {
		timer.Stop()
	}
	delete(t.timers, callID)
}
