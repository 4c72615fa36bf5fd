package player

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
)

// DefaultTimeout bounds every MPD round trip.
const DefaultTimeout = 10 * time.Second

const (
	unknownArtist = "Unknown Artist"
	unknownTitle  = "Unknown Title"
)

var errNotConnected = errors.New("mpd: not connected")

// MPDClient implements Source and Controller against an MPD server using
// the gompd text protocol client.
type MPDClient struct {
	timeout time.Duration

	mu     sync.Mutex
	client *mpd.Client
	addr   string
}

// NewMPDClient creates an unconnected client. A zero timeout selects
// DefaultTimeout.
func NewMPDClient(timeout time.Duration) *MPDClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &MPDClient{timeout: timeout}
}

// Connect dials the server, dropping any previous connection
func (c *MPDClient) Connect(ctx context.Context, addr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}

	var client *mpd.Client
	err := c.bounded(ctx, nil, func() error {
		var err error
		client, err = mpd.Dial("tcp", addr)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to connect to mpd at %s: %w", addr, err)
	}

	c.client = client
	c.addr = addr
	return nil
}

// Addr returns the address of the last successful connection
func (c *MPDClient) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Status returns the playback state and elapsed time
func (c *MPDClient) Status(ctx context.Context) (Status, error) {
	attrs, err := c.attrs(ctx, func(cl *mpd.Client) (mpd.Attrs, error) { return cl.Status() })
	if err != nil {
		return Status{}, fmt.Errorf("failed to get status: %w", err)
	}
	return parseStatus(attrs)
}

// CurrentSong returns the metadata of the current song
func (c *MPDClient) CurrentSong(ctx context.Context) (Song, error) {
	attrs, err := c.attrs(ctx, func(cl *mpd.Client) (mpd.Attrs, error) { return cl.CurrentSong() })
	if err != nil {
		return Song{}, fmt.Errorf("failed to get current song: %w", err)
	}
	return parseSong(attrs), nil
}

// Close closes the connection. Closing an unconnected client is a no-op.
func (c *MPDClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Toggle pauses when playing and resumes otherwise
func (c *MPDClient) Toggle(ctx context.Context) error {
	st, err := c.Status(ctx)
	if err != nil {
		return err
	}
	switch st.State {
	case StatePlaying:
		return c.Pause(ctx)
	case StatePaused:
		return c.do(ctx, "resume", func(cl *mpd.Client) error { return cl.Pause(false) })
	default:
		return c.Play(ctx)
	}
}

// Play starts playback at the current position
func (c *MPDClient) Play(ctx context.Context) error {
	return c.do(ctx, "play", func(cl *mpd.Client) error { return cl.Play(-1) })
}

// Pause pauses playback
func (c *MPDClient) Pause(ctx context.Context) error {
	return c.do(ctx, "pause", func(cl *mpd.Client) error { return cl.Pause(true) })
}

// Stop stops playback
func (c *MPDClient) Stop(ctx context.Context) error {
	return c.do(ctx, "stop", func(cl *mpd.Client) error { return cl.Stop() })
}

// Next skips to the next song in the queue
func (c *MPDClient) Next(ctx context.Context) error {
	return c.do(ctx, "next", func(cl *mpd.Client) error { return cl.Next() })
}

// Previous goes back to the previous song in the queue
func (c *MPDClient) Previous(ctx context.Context) error {
	return c.do(ctx, "previous", func(cl *mpd.Client) error { return cl.Previous() })
}

func (c *MPDClient) do(ctx context.Context, name string, fn func(*mpd.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return fmt.Errorf("failed to %s: %w", name, errNotConnected)
	}
	cl := c.client
	if err := c.bounded(ctx, cl, func() error { return fn(cl) }); err != nil {
		return fmt.Errorf("failed to %s: %w", name, err)
	}
	return nil
}

func (c *MPDClient) attrs(ctx context.Context, fn func(*mpd.Client) (mpd.Attrs, error)) (mpd.Attrs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil, errNotConnected
	}
	cl := c.client
	var attrs mpd.Attrs
	err := c.bounded(ctx, cl, func() error {
		var err error
		attrs, err = fn(cl)
		return err
	})
	return attrs, err
}

// bounded runs fn and gives up after the client timeout or when ctx ends.
// On timeout the connection is closed so the blocked read returns, and
// the next call fails fast until the caller reconnects.
// Must be called with c.mu held.
func (c *MPDClient) bounded(ctx context.Context, cl *mpd.Client, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if cl != nil {
			_ = cl.Close()
			if c.client == cl {
				c.client = nil
			}
		}
		return ctx.Err()
	}
}

// parseStatus converts an MPD status response
func parseStatus(attrs mpd.Attrs) (Status, error) {
	var st Status

	switch attrs["state"] {
	case "play":
		st.State = StatePlaying
	case "pause":
		st.State = StatePaused
	case "stop", "":
		st.State = StateStopped
	default:
		return Status{}, fmt.Errorf("unknown player state: %q", attrs["state"])
	}

	if v, ok := attrs["elapsed"]; ok {
		sec, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Status{}, fmt.Errorf("failed to parse elapsed %q: %w", v, err)
		}
		st.Elapsed = secondsToDuration(sec)
	} else if v, ok := attrs["time"]; ok {
		// Older servers only report "elapsed:total" in whole seconds
		pos, _, _ := strings.Cut(v, ":")
		sec, err := strconv.Atoi(pos)
		if err != nil {
			return Status{}, fmt.Errorf("failed to parse time %q: %w", v, err)
		}
		st.Elapsed = time.Duration(sec) * time.Second
	}

	return st, nil
}

// parseSong converts an MPD currentsong response
func parseSong(attrs mpd.Attrs) Song {
	song := Song{
		Artist: strings.TrimSpace(attrs["Artist"]),
		Title:  strings.TrimSpace(attrs["Title"]),
		Track:  parseTrackNumber(attrs["Track"]),
	}
	if song.Artist == "" {
		song.Artist = unknownArtist
	}
	if song.Title == "" {
		song.Title = unknownTitle
	}
	return song
}

// parseTrackNumber accepts "7" and "7/12". Anything else has no number.
func parseTrackNumber(v string) *int {
	v, _, _ = strings.Cut(strings.TrimSpace(v), "/")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// secondsToDuration converts seconds (as float) to time.Duration
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
