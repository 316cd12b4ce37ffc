package readypoll

import (
	"runtime"
	"sync"
)

// MaxNests bounds the number of simultaneously active nested invocations a
// NestingGuard permits for a single calling context, per spec.md §3/§4.8.
const MaxNests = 4

// nestCall is one active entry in a NestingGuard's tracking list: the
// cookie identifies "what" is being entered (a wait-queue, or an Engine
// identity), ctx identifies "who" is entering (the calling goroutine).
type nestCall struct {
	cookie any
	ctx    uint64
}

// NestingGuard is a process-wide recursion limiter used by the safe-wakeup
// and cross-engine poll-readiness paths (spec.md §4.8), modeled on the
// mutex-guarded bookkeeping style of the teacher's registry.go (a slice
// scanned under a small lock, rather than a lock-free structure, since the
// guarded region is always short-lived).
//
// Two independent guards exist at process scope (guardWakeup,
// guardPollSelf), matching spec.md §3's "two NestingGuards (one for
// safe-wakeup, one for readiness-poll)".
type NestingGuard struct {
	mu     sync.Mutex
	active []nestCall
}

var (
	guardWakeup   = &NestingGuard{}
	guardPollSelf = &NestingGuard{}
)

// callNested implements spec.md §4.8's call_nested: it rejects re-entry
// with the same (ctx, cookie) pair as a cycle, and rejects a ctx already
// present MaxNests times as excessive depth, before invoking fn.
func (g *NestingGuard) callNested(cookie any, fn func(depth int) error) error {
	ctx := currentTaskID()

	g.mu.Lock()
	depth := 0
	for _, c := range g.active {
		if c.ctx != ctx {
			continue
		}
		if c.cookie == cookie {
			g.mu.Unlock()
			return ErrLoopOrDepth
		}
		depth++
	}
	if depth >= MaxNests {
		g.mu.Unlock()
		return ErrLoopOrDepth
	}
	g.active = append(g.active, nestCall{cookie: cookie, ctx: ctx})
	g.mu.Unlock()

	err := fn(depth + 1)

	g.mu.Lock()
	for i := len(g.active) - 1; i >= 0; i-- {
		if g.active[i].ctx == ctx && g.active[i].cookie == cookie {
			g.active = append(g.active[:i], g.active[i+1:]...)
			break
		}
	}
	g.mu.Unlock()

	return err
}

// currentTaskID returns an identifier for the calling goroutine, used as
// the NestingGuard's "ctx". Go has no public goroutine-id API, so this
// parses the id out of a short runtime.Stack capture, the same technique
// the teacher's Loop.isLoopThread uses (loop.go's getGoroutineID) to tell
// whether a caller is already running on the loop's own goroutine.
func currentTaskID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
