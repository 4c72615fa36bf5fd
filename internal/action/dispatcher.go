package action

import (
	"context"
	"fmt"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/input"
	"github.com/rs/zerolog"
)

// Sink executes shell effects
type Sink interface {
	Execute(ctx context.Context, command string) error
}

// Outcome records how one effect of a sequence went. Outcomes are
// diagnostic only.
type Outcome struct {
	Index     int
	Effect    Effect
	Succeeded bool
	Detail    string
	Err       *EffectError // nil on success
}

// EffectError is the failure of one effect in a sequence
type EffectError struct {
	Key    Key
	Index  int
	Effect Effect
	Err    error
}

func (e *EffectError) Error() string {
	return fmt.Sprintf("%s effect %d (%s): %v", e.Key, e.Index, e.Effect, e.Err)
}

func (e *EffectError) Unwrap() error {
	return e.Err
}

// Dispatcher runs the effect sequence bound to each press
type Dispatcher struct {
	table  Table
	sink   Sink
	sleep  func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher for table, executing shell effects on sink
func NewDispatcher(table Table, sink Sink, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		table:  table,
		sink:   sink,
		sleep:  sleepContext,
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Table returns the dispatcher's action table
func (d *Dispatcher) Table() Table {
	return d.table
}

// Dispatch runs every effect bound to c in order. A failing effect is
// logged and recorded; the rest of the sequence still runs.
func (d *Dispatcher) Dispatch(ctx context.Context, c input.Classification) []Outcome {
	key := Key{Input: c.Input, Kind: c.Kind}
	effects := d.table.Lookup(c)
	if len(effects) == 0 {
		d.logger.Debug().Str("input", string(c.Input)).Str("kind", c.Kind.String()).Msg("No action bound")
		return nil
	}

	d.logger.Info().
		Str("input", string(c.Input)).
		Str("kind", c.Kind.String()).
		Int("effects", len(effects)).
		Msg("Dispatching action")

	outcomes := make([]Outcome, 0, len(effects))
	for i, eff := range effects {
		out := Outcome{Index: i, Effect: eff, Succeeded: true}

		if err := d.run(ctx, eff); err != nil {
			out.Succeeded = false
			out.Detail = err.Error()
			out.Err = &EffectError{Key: key, Index: i, Effect: eff, Err: err}
			d.logger.Warn().
				Err(err).
				Str("input", string(c.Input)).
				Str("kind", c.Kind.String()).
				Int("index", i).
				Str("command", eff.String()).
				Msg("Effect failed")
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// run executes one effect, turning a panic in the sink into an error
func (d *Dispatcher) run(ctx context.Context, eff Effect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch e := eff.(type) {
	case ShellEffect:
		return d.sink.Execute(ctx, e.Command)
	case SleepEffect:
		return d.sleep(ctx, e.Duration)
	default:
		return fmt.Errorf("unsupported effect %T", eff)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
