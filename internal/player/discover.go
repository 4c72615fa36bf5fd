package player

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type MPD announces when zeroconf is enabled
	ServiceType = "_mpd._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultDiscoverTimeout is how long Discover waits for an announcement
	DefaultDiscoverTimeout = 5 * time.Second
)

// Discover browses the local network for an MPD server and returns the
// address of the first one that answers.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan string, 1)

	go func() {
		for entry := range entries {
			if addr := entryAddr(entry); addr != "" {
				select {
				case found <- addr:
					cancel()
				default:
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return "", fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	select {
	case addr := <-found:
		return addr, nil
	default:
		return "", fmt.Errorf("no %s service found within %v", ServiceType, timeout)
	}
}

// entryAddr picks an address from a service entry, preferring IPv4
func entryAddr(entry *zeroconf.ServiceEntry) string {
	if entry == nil || entry.Port == 0 {
		return ""
	}
	port := strconv.Itoa(entry.Port)
	if len(entry.AddrIPv4) > 0 {
		return net.JoinHostPort(entry.AddrIPv4[0].String(), port)
	}
	if len(entry.AddrIPv6) > 0 {
		return net.JoinHostPort(entry.AddrIPv6[0].String(), port)
	}
	if entry.HostName != "" {
		return net.JoinHostPort(entry.HostName, port)
	}
	return ""
}
