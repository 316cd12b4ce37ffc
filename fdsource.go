package readypoll

import (
	"sync"
	"sync/atomic"
)

// fdBackend is the OS-specific half of FDPoller: add/modify/remove manage a
// single descriptor's registration, wait blocks for the next batch of
// readiness events. Implemented by fdsource_linux.go (epoll),
// fdsource_darwin.go (kqueue), and fdsource_other.go (unsupported stub).
type fdBackend interface {
	add(fd int, mask EventMask) error
	modify(fd int, mask EventMask) error
	remove(fd int) error
	wait() ([]fdEvent, error)
	close() error
}

type fdEvent struct {
	fd    int
	event EventMask
}

// FDPoller is a shared OS-level readiness multiplexer: one background
// goroutine services every fdSource created via Watch, the same
// one-poller-many-descriptors shape as the teacher's FastPoller
// (poller_linux.go/poller_darwin.go), generalized from a fixed callback per
// fd to the Source/WaitHook subscription contract this package defines.
type FDPoller struct {
	backend fdBackend

	mu      sync.Mutex
	sources map[int]*fdSource

	closed atomic.Bool
	done   chan struct{}
}

// NewFDPoller creates an FDPoller backed by the OS's native readiness
// facility (epoll on Linux, kqueue on Darwin) and starts its dispatch loop.
func NewFDPoller() (*FDPoller, error) {
	backend, err := newFDBackend()
	if err != nil {
		return nil, err
	}
	p := &FDPoller{
		backend: backend,
		sources: make(map[int]*fdSource),
		done:    make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Close stops the dispatch loop and releases the backing OS resource.
// Registered fdSources are not individually notified; callers should Delete
// them from their Engine before or after closing the poller.
func (p *FDPoller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.backend.close()
	<-p.done
	return err
}

func (p *FDPoller) run() {
	defer close(p.done)
	for {
		events, err := p.backend.wait()
		if err != nil {
			return
		}
		if p.closed.Load() {
			return
		}
		for _, ev := range events {
			p.mu.Lock()
			src := p.sources[ev.fd]
			p.mu.Unlock()
			if src != nil {
				src.deliver(ev.event)
			}
		}
	}
}

// Watch returns a Source representing fd's readiness as seen by this
// poller. The descriptor is not armed until the Source is registered with
// an Engine via Engine.Add, whose probe call arms it for Readable, Writable
// and Priority (see fdSource.Poll).
func (p *FDPoller) Watch(fd int) *fdSource {
	src := &fdSource{poller: p, fd: fd}
	p.mu.Lock()
	p.sources[fd] = src
	p.mu.Unlock()
	return src
}

// forget removes fd's registration from both the poller's dispatch table
// and the OS backend. Called only by fdSource.Release; deleting an
// fdSource's entries from an Engine does not call it.
func (p *FDPoller) forget(fd int) {
	p.mu.Lock()
	delete(p.sources, fd)
	p.mu.Unlock()
	_ = p.backend.remove(fd)
}

// fdSource adapts a single OS file descriptor, multiplexed through a shared
// FDPoller, to the Source interface. It embeds SourceEntries so Engine.Add
// can track the InterestEntry referencing it and later release it via
// fdSource.Release (e.g. when the caller closes the underlying fd).
type fdSource struct {
	SourceEntries

	poller *FDPoller
	fd     int

	mu       sync.Mutex
	mask     EventMask
	hook     *WaitHook
	observed EventMask
	armed    bool
}

func (s *fdSource) sourceEntries() *SourceEntries { return &s.SourceEntries }

// Poll implements Source: when hook is non-nil it installs hook as this
// fd's wakeup subscription and (re-)arms the OS backend for
// Readable|Writable|Priority, whatever mask the registering entry asked
// for; the Engine filters deliveries by the entry's mask. It then reports
// the last observed event mask.
func (s *fdSource) Poll(hook *WaitHook) EventMask {
	s.mu.Lock()
	if hook != nil {
		s.hook = hook
		requested := Readable | Writable | Priority
		var err error
		if s.armed {
			err = s.poller.backend.modify(s.fd, requested)
		} else {
			err = s.poller.backend.add(s.fd, requested)
			s.armed = err == nil
		}
		_ = err // a failed arm leaves this fd silently unreadable; the
		// caller's own fd usage (e.g. a subsequent read returning EAGAIN)
		// is the appropriate place to notice and retry, matching the
		// kernel original's treatment of f_op->poll as best-effort.
	}
	result := s.observed
	s.mu.Unlock()
	return result
}

// deliver is called by FDPoller.run with the OS-reported event bits for
// this fd; it records them and forwards to the installed WaitHook, if any.
func (s *fdSource) deliver(events EventMask) {
	s.mu.Lock()
	s.observed = events
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		hook.Notify(events)
	}
}

// Release detaches this fdSource from the poller and notifies its Engine
// that every InterestEntry referencing it must be torn down, per spec.md
// §4.9. Call this once the caller is done with fd (typically just before
// closing it).
func (s *fdSource) Release() {
	s.poller.forget(s.fd)
	s.SourceEntries.Release()
}
