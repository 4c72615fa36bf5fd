package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/player"
	"github.com/rs/zerolog"
)

// DefaultRetryInterval spaces reconnect attempts while the player is offline
const DefaultRetryInterval = time.Second

// Poller fetches player status once per tick
type Poller struct {
	source player.Source
	addr   string
	retry  time.Duration
	state  ConnectionState
	logger zerolog.Logger
}

// NewPoller creates a new Poller for the player at addr. While offline,
// reconnects are attempted at most once per retry interval.
func NewPoller(source player.Source, addr string, retry time.Duration, logger zerolog.Logger) *Poller {
	if retry < 0 {
		retry = 0
	}
	return &Poller{
		source: source,
		addr:   addr,
		retry:  retry,
		logger: logger.With().Str("component", "poller").Logger(),
	}
}

// State returns a copy of the connection state
func (p *Poller) State() ConnectionState {
	return p.state
}

// Poll returns the current status. On failure it reconnects once and
// retries once; if that also fails the error wraps player.ErrDisconnected.
func (p *Poller) Poll(ctx context.Context, now time.Time) (player.Status, error) {
	if p.state.Connected || p.state.Failures == 0 {
		status, err := p.fetch(ctx)
		if err == nil {
			p.state.succeeded(now)
			return status, nil
		}
		p.logger.Debug().Err(err).Msg("Status query failed")
	} else if wait := p.retry - now.Sub(p.state.LastAttemptAt); p.retry > 0 && wait > 0 {
		p.logger.Debug().Dur("retry_in", wait).Msg("Reconnect skipped")
		p.state.failed()
		return player.Status{}, fmt.Errorf("%w: waiting to reconnect to %s", player.ErrDisconnected, p.addr)
	}

	p.state.LastAttemptAt = now
	if err := p.source.Connect(ctx, p.addr); err != nil {
		p.offline(err)
		return player.Status{}, fmt.Errorf("%w: %v", player.ErrDisconnected, err)
	}

	status, err := p.fetch(ctx)
	if err != nil {
		p.offline(err)
		return player.Status{}, fmt.Errorf("%w: %v", player.ErrDisconnected, err)
	}

	p.state.Reconnects++
	p.logger.Info().Str("addr", p.addr).Msg("Connected to player")
	p.state.succeeded(now)
	return status, nil
}

func (p *Poller) offline(err error) {
	if p.state.Connected || p.state.Failures == 0 {
		p.logger.Warn().Err(err).Str("addr", p.addr).Msg("Player offline")
	}
	p.state.failed()
}

// fetch reads the status and, unless stopped, the current song
func (p *Poller) fetch(ctx context.Context) (player.Status, error) {
	status, err := p.source.Status(ctx)
	if err != nil {
		return player.Status{}, err
	}
	if status.State == player.StateStopped {
		return status, nil
	}
	song, err := p.source.CurrentSong(ctx)
	if err != nil {
		return player.Status{}, err
	}
	return status.WithSong(song), nil
}
