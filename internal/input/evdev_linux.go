//go:build linux

package input

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Run reads the device until ctx is cancelled or the device goes away
func (s *EvdevSource) Run(ctx context.Context, events chan<- PressEvent) error {
	f, err := os.OpenFile(s.path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open input device: %w", err)
	}
	defer f.Close()

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	fd := int(f.Fd())
	event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl_add fd=%d: %w", fd, err)
	}

	s.logger.Info().Int("keys", len(s.keys)).Msg("Watching input device")

	ready := make([]unix.EpollEvent, 1)
	buf := make([]byte, binary.Size(inputEvent{}))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, err := unix.EpollWait(epfd, ready, s.waitTimeout())
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}
		for _, ev := range s.settle() {
			if err := send(ctx, events, ev); err != nil {
				return err
			}
		}
		if n == 0 {
			continue
		}
		if ready[0].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			return fmt.Errorf("device error/hangup: %s", s.path)
		}

		if _, err := f.Read(buf); err != nil {
			return fmt.Errorf("read from %s: %w", s.path, err)
		}
		raw, err := decodeInputEvent(buf)
		if err != nil {
			// Skip malformed events
			continue
		}

		ev, ok := s.translate(raw)
		if !ok {
			continue
		}
		if err := send(ctx, events, ev); err != nil {
			return err
		}
	}
}

func send(ctx context.Context, events chan<- PressEvent, ev PressEvent) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
