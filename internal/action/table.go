package action

import (
	"fmt"
	"sort"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/input"
)

// Default button names
const (
	PlayPause     input.ID = "PLAY_PAUSE"
	Prev          input.ID = "PREV"
	Next          input.ID = "NEXT"
	ExecuteScript input.ID = "EXECUTE_SCRIPT"
)

// Key selects one sequence in a Table
type Key struct {
	Input input.ID
	Kind  input.PressKind
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Input, k.Kind)
}

// Table maps presses to ordered effect sequences
type Table map[Key][]Effect

// Entry is one row of a table in its serialized form
type Entry struct {
	Input   string       `yaml:"input" mapstructure:"input"`
	Press   string       `yaml:"press" mapstructure:"press"`
	Effects []Descriptor `yaml:"effects" mapstructure:"effects"`
}

// stopSequence kills the shuffle helpers and leaves MPD stopped with an
// empty queue
func stopSequence() []Effect {
	return []Effect{
		Shell("pkill -f roulette.sh"),
		Shell("pkill -f ashuffle"),
		Sleep(time.Second),
		Shell("mpc stop"),
		Shell("mpc clear"),
		Shell("mpc consume off"),
	}
}

// DefaultTable returns the stock button layout
func DefaultTable() Table {
	return Table{
		{PlayPause, input.Short}:     {Shell("mpc toggle")},
		{PlayPause, input.Long}:      stopSequence(),
		{Prev, input.Short}:          {Shell("mpc cdprev")},
		{Prev, input.Long}:           {Shell("sudo python3 /home/pi/copy_usb.py")},
		{Next, input.Short}:          {Shell("mpc next")},
		{Next, input.Long}:           {Shell("sudo systemctl poweroff")},
		{ExecuteScript, input.Short}: {Shell("/home/pi/roulette.sh")},
		{ExecuteScript, input.Long}:  append(stopSequence(), Shell("/home/pi/roulette_album.sh")),
	}
}

// Lookup returns the sequence for a press, or nil
func (t Table) Lookup(c input.Classification) []Effect {
	return t[Key{Input: c.Input, Kind: c.Kind}]
}

// Keys returns the table keys in a stable order
func (t Table) Keys() []Key {
	keys := make([]Key, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Input != keys[j].Input {
			return keys[i].Input < keys[j].Input
		}
		return keys[i].Kind < keys[j].Kind
	})
	return keys
}

// Entries serializes the table in key order
func (t Table) Entries() []Entry {
	keys := t.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		e := Entry{Input: string(k.Input), Press: k.Kind.String()}
		for _, eff := range t[k] {
			e.Effects = append(e.Effects, Describe(eff))
		}
		entries = append(entries, e)
	}
	return entries
}

// FromEntries builds a table. Duplicate keys and malformed effects are errors.
func FromEntries(entries []Entry) (Table, error) {
	t := make(Table, len(entries))
	for i, e := range entries {
		if e.Input == "" {
			return nil, fmt.Errorf("action %d: missing input", i)
		}
		kind, ok := input.ParsePressKind(e.Press)
		if !ok {
			return nil, fmt.Errorf("action %d (%s): press must be short or long, got %q", i, e.Input, e.Press)
		}
		key := Key{Input: input.ID(e.Input), Kind: kind}
		if _, dup := t[key]; dup {
			return nil, fmt.Errorf("action %d: duplicate entry for %s", i, key)
		}

		effects := make([]Effect, 0, len(e.Effects))
		for j, d := range e.Effects {
			eff, err := d.Effect()
			if err != nil {
				return nil, fmt.Errorf("action %s effect %d: %w", key, j, err)
			}
			effects = append(effects, eff)
		}
		t[key] = effects
	}
	return t, nil
}
