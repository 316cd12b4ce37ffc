//go:build darwin

package readypoll

import (
	"golang.org/x/sys/unix"
)

// kqueueBackend implements fdBackend using Darwin kqueue, grounded on the
// teacher's FastPoller (poller_darwin.go): register/unregister per-filter
// kevents and a blocking Kevent wait call, translated into this package's
// EventMask alphabet instead of the teacher's IOEvents. Priority has no
// kqueue filter equivalent and is not monitored on this platform.
type kqueueBackend struct {
	kq  int
	buf [128]unix.Kevent_t
}

func newFDBackend() (fdBackend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueueBackend{kq: kq}, nil
}

func (b *kqueueBackend) add(fd int, mask EventMask) error {
	return b.apply(fd, mask, unix.EV_ADD|unix.EV_ENABLE)
}

func (b *kqueueBackend) modify(fd int, mask EventMask) error {
	// kqueue has no direct "replace filter set" operation; deleting then
	// re-adding both filters is simplest and cheap at this package's
	// expected registration churn.
	_ = b.apply(fd, Readable|Writable, unix.EV_DELETE)
	return b.apply(fd, mask, unix.EV_ADD|unix.EV_ENABLE)
}

func (b *kqueueBackend) apply(fd int, mask EventMask, flags uint16) error {
	var changes []unix.Kevent_t
	if mask&Readable != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if mask&Writable != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(b.kq, changes, nil, nil)
	return err
}

func (b *kqueueBackend) remove(fd int) error {
	return b.apply(fd, Readable|Writable, unix.EV_DELETE)
}

func (b *kqueueBackend) wait() ([]fdEvent, error) {
	n, err := unix.Kevent(b.kq, nil, b.buf[:], nil)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]fdEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fdEvent{
			fd:    int(b.buf[i].Ident),
			event: keventToMask(&b.buf[i]),
		})
	}
	return out, nil
}

func (b *kqueueBackend) close() error {
	return unix.Close(b.kq)
}

func keventToMask(kev *unix.Kevent_t) EventMask {
	var mask EventMask
	switch kev.Filter {
	case unix.EVFILT_READ:
		mask |= Readable
	case unix.EVFILT_WRITE:
		mask |= Writable
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		mask |= Error
	}
	if kev.Flags&unix.EV_EOF != 0 {
		mask |= Hangup
	}
	return mask
}
