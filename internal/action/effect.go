package action

import (
	"fmt"
	"time"
)

// Effect is one step of an action sequence. The concrete types are
// ShellEffect and SleepEffect.
type Effect interface {
	fmt.Stringer
	isEffect()
}

// ShellEffect runs a command line through the effect sink
type ShellEffect struct {
	Command string
}

func (ShellEffect) isEffect() {}

func (e ShellEffect) String() string { return e.Command }

// SleepEffect pauses the sequence
type SleepEffect struct {
	Duration time.Duration
}

func (SleepEffect) isEffect() {}

func (e SleepEffect) String() string { return "sleep " + e.Duration.String() }

// Shell is shorthand for a ShellEffect
func Shell(command string) Effect { return ShellEffect{Command: command} }

// Sleep is shorthand for a SleepEffect
func Sleep(d time.Duration) Effect { return SleepEffect{Duration: d} }

// Descriptor is the serialized form of an Effect, as it appears in the
// config file and in `mpdpanel actions --yaml`.
type Descriptor struct {
	Shell string        `yaml:"shell,omitempty" mapstructure:"shell"`
	Sleep time.Duration `yaml:"sleep,omitempty" mapstructure:"sleep"`
}

// Effect converts the descriptor. Exactly one field must be set.
func (d Descriptor) Effect() (Effect, error) {
	switch {
	case d.Shell != "" && d.Sleep != 0:
		return nil, fmt.Errorf("effect sets both shell and sleep")
	case d.Shell != "":
		return ShellEffect{Command: d.Shell}, nil
	case d.Sleep > 0:
		return SleepEffect{Duration: d.Sleep}, nil
	default:
		return nil, fmt.Errorf("effect must set shell or a positive sleep")
	}
}

// Describe converts an effect back to its descriptor
func Describe(e Effect) Descriptor {
	switch e := e.(type) {
	case ShellEffect:
		return Descriptor{Shell: e.Command}
	case SleepEffect:
		return Descriptor{Sleep: e.Duration}
	}
	return Descriptor{}
}
