package arena

import (
	"runtime"
	"sync/atomic"
)

// spinBudget is the number of failed acquisition attempts before the
// goroutine yields its processor. Bucket critical sections are a handful of
// stores, so a contended lock is almost always released within the budget.
const spinBudget = 64

// spinLock is a one-word test-and-set lock. The zero value is unlocked.
type spinLock struct {
	state atomic.Uint32
}

func (l *spinLock) Lock() {
	for miss := 0; ; miss++ {
		if l.state.Load() == 0 && l.state.CompareAndSwap(0, 1) {
			return
		}
		if miss >= spinBudget {
			miss = 0
			runtime.Gosched()
		}
	}
}

func (l *spinLock) Unlock() {
	l.state.Store(0)
}
