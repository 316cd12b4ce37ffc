//go:build linux

package readypoll

import (
	"golang.org/x/sys/unix"
)

// epollBackend implements fdBackend using Linux epoll, grounded on the
// teacher's FastPoller (poller_linux.go): one epoll fd, a preallocated
// event buffer, and a blocking wait call translated into this package's
// EventMask alphabet instead of the teacher's IOEvents.
type epollBackend struct {
	epfd int
	buf  [128]unix.EpollEvent
}

func newFDBackend() (fdBackend, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollBackend{epfd: fd}, nil
}

func (b *epollBackend) add(fd int, mask EventMask) error {
	ev := &unix.EpollEvent{Events: maskToEpoll(mask), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (b *epollBackend) modify(fd int, mask EventMask) error {
	ev := &unix.EpollEvent{Events: maskToEpoll(mask), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (b *epollBackend) remove(fd int) error {
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (b *epollBackend) wait() ([]fdEvent, error) {
	n, err := unix.EpollWait(b.epfd, b.buf[:], -1)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]fdEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fdEvent{
			fd:    int(b.buf[i].Fd),
			event: epollToMask(b.buf[i].Events),
		})
	}
	return out, nil
}

func (b *epollBackend) close() error {
	return unix.Close(b.epfd)
}

func maskToEpoll(mask EventMask) uint32 {
	var bits uint32
	if mask&Readable != 0 {
		bits |= unix.EPOLLIN
	}
	if mask&Writable != 0 {
		bits |= unix.EPOLLOUT
	}
	if mask&Priority != 0 {
		bits |= unix.EPOLLPRI
	}
	return bits
}

func epollToMask(bits uint32) EventMask {
	var mask EventMask
	if bits&unix.EPOLLIN != 0 {
		mask |= Readable
	}
	if bits&unix.EPOLLOUT != 0 {
		mask |= Writable
	}
	if bits&unix.EPOLLPRI != 0 {
		mask |= Priority
	}
	if bits&unix.EPOLLERR != 0 {
		mask |= Error
	}
	if bits&unix.EPOLLHUP != 0 {
		mask |= Hangup
	}
	return mask
}
