//go:build linux

package ixws

import "golang.org/x/sys/unix"

// eventfdInterrupter implements interrupter on Linux using eventfd(2), the
// same primitive a poll(2)/epoll(7) based reactor uses to fold an
// application-level cancellation signal into the set of descriptors it is
// already waiting on.
type eventfdInterrupter struct {
	efd int
}

func newInterrupter() (interrupter, error) {
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &eventfdInterrupter{efd: efd}, nil
}

func (e *eventfdInterrupter) fd() uintptr { return uintptr(e.efd) }

func (e *eventfdInterrupter) interrupt() error {
	buf := [8]byte{0, 0, 0, 0, 0, 0, 0, 1}
	_, err := unix.Write(e.efd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

func (e *eventfdInterrupter) clear() error {
	var buf [8]byte
	_, err := unix.Read(e.efd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

func (e *eventfdInterrupter) close() error {
	return unix.Close(e.efd)
}
