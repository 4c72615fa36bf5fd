package player

import (
	"context"
	"errors"
	"time"
)

// ErrDisconnected is returned when the status source cannot be reached,
// including after a reconnect attempt.
var ErrDisconnected = errors.New("player: disconnected")

// PlayState represents the current playback state of the music player
type PlayState int

const (
	StateStopped PlayState = iota // Nothing playing
	StatePlaying                  // Track is currently playing
	StatePaused                   // Track is paused
)

// String returns a human-readable representation of the PlayState
func (s PlayState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Song is the metadata of the current song.
type Song struct {
	Artist string
	Title  string
	Track  *int // nil for streams and untagged files
}

// Status is a snapshot of the player. Values are replaced on every poll,
// never mutated.
type Status struct {
	State   PlayState
	Elapsed time.Duration
	Track   *int
	Artist  string
	Title   string
}

// WithSong returns a copy of s carrying the song metadata.
func (s Status) WithSong(song Song) Status {
	s.Artist = song.Artist
	s.Title = song.Title
	s.Track = song.Track
	return s
}

// Source is the read side of a player connection.
type Source interface {
	// Connect dials addr ("host:port"). Calling Connect on a connected
	// source replaces the existing connection.
	Connect(ctx context.Context, addr string) error

	// Status returns the playback state and elapsed time
	Status(ctx context.Context) (Status, error)

	// CurrentSong returns metadata for the current song
	CurrentSong(ctx context.Context) (Song, error)

	Close() error
}

// Controller issues playback commands.
type Controller interface {
	Toggle(ctx context.Context) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
}
