package player

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fhs/gompd/v2/mpd"
)

// TestMPDClient_Integration tests the client against a running MPD server.
// Set MPDPANEL_TEST_MPD to the server address to enable it.
func TestMPDClient_Integration(t *testing.T) {
	addr := os.Getenv("MPDPANEL_TEST_MPD")
	if testing.Short() || addr == "" {
		t.Skip("Skipping integration test: MPDPANEL_TEST_MPD not set")
	}

	client := NewMPDClient(5 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx, addr); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer func() { _ = client.Close() }()

	t.Run("Status", func(t *testing.T) {
		st, err := client.Status(ctx)
		if err != nil {
			t.Fatalf("Status() failed: %v", err)
		}
		if st.Elapsed < 0 {
			t.Errorf("Invalid elapsed: %v", st.Elapsed)
		}
		t.Logf("State: %v, elapsed: %v", st.State, st.Elapsed)
	})

	t.Run("CurrentSong", func(t *testing.T) {
		song, err := client.CurrentSong(ctx)
		if err != nil {
			t.Fatalf("CurrentSong() failed: %v", err)
		}
		if song.Artist == "" || song.Title == "" {
			t.Errorf("expected defaults for missing tags, got %+v", song)
		}
	})
}

func TestMPDClient_NotConnected(t *testing.T) {
	client := NewMPDClient(0)
	ctx := context.Background()

	if _, err := client.Status(ctx); !errors.Is(err, errNotConnected) {
		t.Errorf("Status() error = %v, want errNotConnected", err)
	}
	if err := client.Next(ctx); !errors.Is(err, errNotConnected) {
		t.Errorf("Next() error = %v, want errNotConnected", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on unconnected client = %v, want nil", err)
	}
	if client.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.timeout, DefaultTimeout)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		attrs   mpd.Attrs
		want    Status
		wantErr bool
	}{
		{
			name:  "playing with elapsed",
			attrs: mpd.Attrs{"state": "play", "elapsed": "83.512"},
			want:  Status{State: StatePlaying, Elapsed: 83*time.Second + 512*time.Millisecond},
		},
		{
			name:  "paused",
			attrs: mpd.Attrs{"state": "pause", "elapsed": "12.000"},
			want:  Status{State: StatePaused, Elapsed: 12 * time.Second},
		},
		{
			name:  "stopped without elapsed",
			attrs: mpd.Attrs{"state": "stop"},
			want:  Status{State: StateStopped},
		},
		{
			name:  "legacy time field",
			attrs: mpd.Attrs{"state": "play", "time": "65:240"},
			want:  Status{State: StatePlaying, Elapsed: 65 * time.Second},
		},
		{
			name:    "unknown state",
			attrs:   mpd.Attrs{"state": "rewinding"},
			wantErr: true,
		},
		{
			name:    "bad elapsed",
			attrs:   mpd.Attrs{"state": "play", "elapsed": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStatus(tt.attrs)
			if tt.wantErr {
				if err == nil {
					t.Error("parseStatus() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStatus() unexpected error: %v", err)
			}
			if got.State != tt.want.State {
				t.Errorf("State = %v, want %v", got.State, tt.want.State)
			}
			if got.Elapsed != tt.want.Elapsed {
				t.Errorf("Elapsed = %v, want %v", got.Elapsed, tt.want.Elapsed)
			}
		})
	}
}

func TestParseSong(t *testing.T) {
	tests := []struct {
		name      string
		attrs     mpd.Attrs
		artist    string
		title     string
		wantTrack int // -1 means no track number
	}{
		{
			name:      "tagged file",
			attrs:     mpd.Attrs{"Artist": "Queen", "Title": "Bohemian Rhapsody", "Track": "11"},
			artist:    "Queen",
			title:     "Bohemian Rhapsody",
			wantTrack: 11,
		},
		{
			name:      "track with total",
			attrs:     mpd.Attrs{"Artist": "Journey", "Title": "Separate Ways", "Track": "1/9"},
			artist:    "Journey",
			title:     "Separate Ways",
			wantTrack: 1,
		},
		{
			name:      "stream without tags",
			attrs:     mpd.Attrs{"file": "http://radio.example/stream"},
			artist:    unknownArtist,
			title:     unknownTitle,
			wantTrack: -1,
		},
		{
			name:      "garbage track",
			attrs:     mpd.Attrs{"Artist": "A", "Title": "B", "Track": "side-a"},
			artist:    "A",
			title:     "B",
			wantTrack: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSong(tt.attrs)
			if got.Artist != tt.artist {
				t.Errorf("Artist = %q, want %q", got.Artist, tt.artist)
			}
			if got.Title != tt.title {
				t.Errorf("Title = %q, want %q", got.Title, tt.title)
			}
			switch {
			case tt.wantTrack < 0 && got.Track != nil:
				t.Errorf("Track = %d, want nil", *got.Track)
			case tt.wantTrack >= 0 && got.Track == nil:
				t.Errorf("Track = nil, want %d", tt.wantTrack)
			case tt.wantTrack >= 0 && *got.Track != tt.wantTrack:
				t.Errorf("Track = %d, want %d", *got.Track, tt.wantTrack)
			}
		})
	}
}

func TestStatusWithSong(t *testing.T) {
	n := 4
	base := Status{State: StatePlaying, Elapsed: time.Minute}
	got := base.WithSong(Song{Artist: "A", Title: "T", Track: &n})

	if base.Artist != "" {
		t.Error("WithSong mutated the receiver")
	}
	if got.Artist != "A" || got.Title != "T" || got.Track == nil || *got.Track != 4 {
		t.Errorf("WithSong() = %+v", got)
	}
	if got.Elapsed != time.Minute || got.State != StatePlaying {
		t.Errorf("WithSong() dropped status fields: %+v", got)
	}
}

// TestPlayState_String tests the String method on PlayState
func TestPlayState_String(t *testing.T) {
	tests := []struct {
		state PlayState
		want  string
	}{
		{StateStopped, "stopped"},
		{StatePlaying, "playing"},
		{StatePaused, "paused"},
		{PlayState(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("PlayState.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
