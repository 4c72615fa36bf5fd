/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/display"
	"github.com/jfmyers9/mpdpanel/internal/player"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// nowCmd represents the now command
var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Display the song MPD is playing",
	Long: `Query MPD and display the currently playing song.

The output format can be customized in ~/.config/mpdpanel/config.yaml
using a Go template. Available fields: .Artist, .Title, .Track, .Elapsed, .State

Exit codes:
  0 - A song is currently playing
  1 - Stopped, paused, or MPD not reachable`,
	RunE: runNow,
}

func init() {
	rootCmd.AddCommand(nowCmd)

	// Add format flag to override config
	nowCmd.Flags().StringP("format", "f", "", "Output format template (overrides config)")
	// Add width flag to set fixed output width
	nowCmd.Flags().IntP("width", "w", 0, "Fixed output width (0=disabled, overrides config)")
	// Add marquee flag to enable scrolling
	nowCmd.Flags().Bool("marquee", false, "Enable marquee scrolling for long text (overrides config)")
}

// nowTrack is the data passed to the output template
type nowTrack struct {
	Artist  string
	Title   string
	Track   string // empty when the song has no track number
	Elapsed string // mm:ss
	State   string
}

func newNowTrack(st player.Status) nowTrack {
	t := nowTrack{
		Artist:  st.Artist,
		Title:   st.Title,
		Elapsed: display.FormatElapsed(st.Elapsed),
		State:   st.State.String(),
	}
	if st.Track != nil {
		t.Track = strconv.Itoa(*st.Track)
	}
	return t
}

func runNow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Check for format flag override
	formatFlag, _ := cmd.Flags().GetString("format")
	if formatFlag != "" {
		cfg.OutputFormat = formatFlag
	}

	client, err := connectPlayer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to mpd: %w", err)
	}
	defer client.Close()

	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	// If not playing, exit with code 1
	if status.State != player.StatePlaying {
		client.Close()
		os.Exit(1)
		return nil
	}

	song, err := client.CurrentSong(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current song: %w", err)
	}

	output, err := formatTrack(newNowTrack(status.WithSong(song)), cfg.OutputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Apply width padding/marquee if requested
	width, _ := cmd.Flags().GetInt("width")
	if width == 0 {
		width = cfg.Now.Width
	}

	marquee, _ := cmd.Flags().GetBool("marquee")
	if !cmd.Flags().Changed("marquee") {
		marquee = cfg.Now.Marquee
	}

	if width > 0 {
		if marquee {
			output = marqueeText(output, width, cfg.Now.MarqueeSpeed, cfg.Now.MarqueeSeparator, time.Now())
		} else {
			output = padToWidth(output, width)
		}
	}

	fmt.Println(output)
	return nil
}

// formatTrack applies the template to the track data
func formatTrack(track nowTrack, templateStr string) (string, error) {
	tmpl, err := template.New("output").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, track); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return buf.String(), nil
}

// padToWidth pads or truncates text to a fixed display width, measured in
// terminal columns. Long text is cut with a "..." suffix.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	const ellipsis = "..."
	current := runewidth.StringWidth(text)

	switch {
	case current > width:
		if width <= len(ellipsis) {
			return runewidth.Truncate(ellipsis, width, "")
		}
		text = runewidth.Truncate(text, width-len(ellipsis), "") + ellipsis
		return runewidth.FillRight(text, width)
	case current < width:
		return runewidth.FillRight(text, width)
	}
	return text
}

// marqueeText scrolls text that does not fit through a window of width
// columns. The offset is derived from at, advancing speed runes per second, so
// repeated calls from a status bar advance without any saved state.
func marqueeText(text string, width, speed int, separator string, at time.Time) string {
	if width <= 0 {
		return text
	}
	if runewidth.StringWidth(text) <= width {
		return padToWidth(text, width)
	}
	if speed <= 0 {
		speed = 1
	}

	loop := []rune(text + separator)
	start := int(at.Unix()*int64(speed)) % len(loop)

	var sb strings.Builder
	used := 0
	for i := 0; used < width && i < len(loop); i++ {
		r := loop[(start+i)%len(loop)]
		rw := runewidth.RuneWidth(r)
		if used+rw > width {
			break
		}
		sb.WriteRune(r)
		used += rw
	}
	return runewidth.FillRight(sb.String(), width)
}
