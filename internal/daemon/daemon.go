package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/action"
	"github.com/jfmyers9/mpdpanel/internal/display"
	"github.com/jfmyers9/mpdpanel/internal/input"
	"github.com/jfmyers9/mpdpanel/internal/player"
	"github.com/jfmyers9/mpdpanel/internal/render"
	"github.com/rs/zerolog"
)

// Defaults for the main loop
const (
	DefaultTick           = 20 * time.Millisecond
	DefaultSplash         = "V2.BS"
	DefaultSplashDuration = 2 * time.Second
	dispatchQueue         = 4
)

// Config holds daemon configuration
type Config struct {
	Tick           time.Duration  // Render loop period
	Splash         string         // Startup banner, empty to skip
	SplashDuration time.Duration  // How long the banner stays up
	LongPress      time.Duration  // Long press threshold
	Images         [][]byte       // Screensaver bitmaps in display order
	Display        display.Config // Engine cadences; ImageCount is set from Images
}

// App owns every resource of the running appliance. It is built once and
// the shutdown path releases exactly what it holds.
type App struct {
	config     Config
	input      input.Source
	dispatcher *action.Dispatcher
	player     player.Source
	poller     *Poller
	engine     *display.Engine
	renderer   render.Renderer
	indicator  render.Indicator
	scheduler  input.Scheduler
	logger     zerolog.Logger
	now        func() time.Time

	// mu guards the worker map and the hardware handles below it
	mu       sync.Mutex
	workers  map[input.ID]chan input.Classification
	draining bool
	released bool
	wg       sync.WaitGroup

	lastLED   display.Color
	ledOff    bool
	ledValid  bool
	cleanOnce sync.Once
}

// Deps are the collaborators an App drives
type Deps struct {
	Input      input.Source
	Dispatcher *action.Dispatcher
	Player     player.Source
	Poller     *Poller
	Renderer   render.Renderer
	Indicator  render.Indicator
	Measurer   display.Measurer
}

// New creates a new App
func New(cfg Config, deps Deps, logger zerolog.Logger) *App {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if deps.Input == nil {
		deps.Input = input.NopSource{}
	}
	cfg.Display.ImageCount = len(cfg.Images)

	return &App{
		config:     cfg,
		input:      deps.Input,
		dispatcher: deps.Dispatcher,
		player:     deps.Player,
		poller:     deps.Poller,
		engine:     display.NewEngine(cfg.Display, deps.Measurer),
		renderer:   deps.Renderer,
		indicator:  deps.Indicator,
		scheduler:  input.TimerScheduler{},
		logger:     logger.With().Str("component", "daemon").Logger(),
		now:        time.Now,
		workers:    make(map[input.ID]chan input.Classification),
	}
}

// Run starts the appliance and blocks until a shutdown signal is received
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	// Handle first signal gracefully, second signal forces exit
	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		a.logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if _, ok := <-sigChan; ok {
			a.logger.Warn().Msg("Second shutdown signal received, forcing exit")
			a.cleanup()
			os.Exit(1)
		}
	}()

	return a.RunContext(ctx)
}

// RunContext runs until ctx is cancelled, then cleans up
func (a *App) RunContext(ctx context.Context) error {
	defer a.cleanup()

	if err := a.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// run is the main loop
func (a *App) run(ctx context.Context) error {
	a.logger.Info().Dur("tick", a.config.Tick).Int("images", len(a.config.Images)).Msg("Starting daemon")

	if err := a.splash(ctx); err != nil {
		return err
	}

	inputCtx, stopInput := context.WithCancel(ctx)
	defer stopInput()

	edges := make(chan input.PressEvent, 16)
	classifier := input.NewClassifier(a.config.LongPress, a.scheduler, a.enqueue(inputCtx), a.logger)

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := a.input.Run(inputCtx, edges); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error().Err(err).Msg("Input source stopped")
		}
	}()
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-inputCtx.Done():
				return
			case ev := <-edges:
				classifier.Handle(ev)
			}
		}
	}()

	ticker := time.NewTicker(a.config.Tick)
	defer ticker.Stop()

	st := display.NewState(a.now())
	for {
		select {
		case <-ctx.Done():
			stopInput()
			a.mu.Lock()
			a.draining = true
			a.mu.Unlock()
			a.wg.Wait()
			a.logger.Info().Msg("Daemon stopped")
			return ctx.Err()
		case <-ticker.C:
			st = a.tick(ctx, a.now(), st)
		}
	}
}

// splash shows the startup banner
func (a *App) splash(ctx context.Context) error {
	if a.config.Splash == "" || a.config.SplashDuration <= 0 {
		return nil
	}
	a.present(display.Splash(a.config.Splash))

	t := time.NewTimer(a.config.SplashDuration)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tick polls the player once and draws one frame
func (a *App) tick(ctx context.Context, now time.Time, st display.State) display.State {
	obs := display.Observation{}
	status, err := a.poller.Poll(ctx, now)
	if err != nil {
		obs.Offline = true
	} else {
		obs.Status = status
	}

	intent, next := a.engine.Tick(obs, now, st)
	if intent.Screen != st.Screen {
		a.logger.Debug().
			Str("from", st.Screen.String()).
			Str("to", intent.Screen.String()).
			Msg("Screen changed")
	}
	a.present(intent)
	return next
}

// present draws intent and updates the LED when its colour changes
func (a *App) present(intent display.Intent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return
	}

	if err := render.Paint(a.renderer, intent, a.config.Images); err != nil {
		a.logger.Warn().Err(err).Str("screen", intent.Screen.String()).Msg("Failed to draw frame")
	}

	if a.ledValid && intent.LEDOff == a.ledOff && (intent.LEDOff || intent.LED == a.lastLED) {
		return
	}
	if err := render.Signal(a.indicator, intent); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to set LED")
		return
	}
	a.lastLED, a.ledOff, a.ledValid = intent.LED, intent.LEDOff, true
}

// enqueue returns the classifier's emit function. Each input gets its own
// worker so a long sequence on one button never blocks the others or the
// render loop.
func (a *App) enqueue(ctx context.Context) func(input.Classification) {
	return func(c input.Classification) {
		a.mu.Lock()
		if a.draining {
			a.mu.Unlock()
			return
		}
		ch, ok := a.workers[c.Input]
		if !ok {
			ch = make(chan input.Classification, dispatchQueue)
			a.workers[c.Input] = ch
			a.wg.Add(1)
			go a.work(ctx, c.Input, ch)
		}
		a.mu.Unlock()

		select {
		case ch <- c:
		default:
			a.logger.Warn().
				Str("input", string(c.Input)).
				Str("kind", c.Kind.String()).
				Msg("Dispatch queue full, dropping press")
		}
	}
}

func (a *App) work(ctx context.Context, id input.ID, ch <-chan input.Classification) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-ch:
			if a.dispatcher == nil {
				continue
			}
			failed := 0
			for _, out := range a.dispatcher.Dispatch(ctx, c) {
				if !out.Succeeded {
					failed++
				}
			}
			a.logger.Debug().
				Str("input", string(id)).
				Str("kind", c.Kind.String()).
				Int("failed", failed).
				Msg("Action finished")
		}
	}
}

// cleanup blanks the panel, turns off the LED and drops the player
// connection. It runs once no matter how shutdown was reached.
func (a *App) cleanup() {
	a.cleanOnce.Do(func() {
		a.logger.Info().Msg("Cleaning up")

		a.mu.Lock()
		defer a.mu.Unlock()
		a.released = true

		if a.renderer != nil {
			a.renderer.Clear()
			if err := a.renderer.Show(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to clear display")
			}
			if err := a.renderer.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to close display")
			}
		}
		if a.indicator != nil {
			if err := a.indicator.Off(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to turn off LED")
			}
			if err := a.indicator.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to close LED")
			}
		}
		if a.player != nil {
			if err := a.player.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to close player connection")
			}
		}
	})
}
