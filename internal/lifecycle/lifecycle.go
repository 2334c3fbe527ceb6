// Package lifecycle owns the one installed stylesheet fragment and decides
// when to rebuild it. Every triggering occasion rebuilds from the current
// settings and document context, never from a previous run's output, so
// overlapping triggers are harmless: the last run wins.
package lifecycle

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/propshade/propshade/internal/focus"
	"github.com/propshade/propshade/internal/host"
	"github.com/propshade/propshade/internal/models"
	"github.com/propshade/propshade/internal/reconcile"
	"github.com/propshade/propshade/internal/schedule"
	"github.com/propshade/propshade/internal/stylegen"
)

// Default timing. Tunables, not correctness contracts; the live debounce
// stays well under 300ms so typing feedback feels immediate.
const (
	DefaultFullDebounce = 250 * time.Millisecond
	DefaultLiveDebounce = 100 * time.Millisecond
	DefaultFocusGrace   = 150 * time.Millisecond
	DefaultSettleDelay  = 500 * time.Millisecond
)

// SettingsFunc supplies the current configuration. It is read afresh on
// every regeneration so settings-UI edits take effect without re-wiring.
type SettingsFunc func() models.Settings

// Options tunes the coordinator. Zero durations fall back to defaults.
type Options struct {
	Logger       *log.Logger
	FullDebounce time.Duration
	LiveDebounce time.Duration
	FocusGrace   time.Duration
	SettleDelay  time.Duration
}

// Coordinator wires the stylesheet generator and the live reconciler to
// the host's events. It is the only component that installs or removes the
// stylesheet fragment.
type Coordinator struct {
	host     host.Host
	settings SettingsFunc
	logger   *log.Logger

	tracker   *focus.Tracker
	fullDeb   *schedule.Debouncer
	liveDeb   *schedule.Debouncer
	settleDur time.Duration
	settle    *time.Timer

	mu      sync.Mutex
	unsubs  []host.UnsubscribeFunc
	started bool
	closed  bool
}

// New creates a coordinator. settings must not be nil.
func New(h host.Host, settings SettingsFunc, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Coordinator{
		host:     h,
		settings: settings,
		logger:   logger.With("component", "lifecycle"),
	}
	c.tracker = focus.New(orDefault(opts.FocusGrace, DefaultFocusGrace), c.onFocusChange)
	c.fullDeb = schedule.NewDebouncer(c.Regenerate, orDefault(opts.FullDebounce, DefaultFullDebounce), schedule.Trailing)
	c.liveDeb = schedule.NewDebouncer(c.livePass, orDefault(opts.LiveDebounce, DefaultLiveDebounce), schedule.Trailing)
	c.settleDur = orDefault(opts.SettleDelay, DefaultSettleDelay)
	return c
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Start subscribes to host events and schedules the initial regeneration
// after the settle delay.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.unsubs = []host.UnsubscribeFunc{
		c.host.OnDocumentOpen(c.onDocumentOpen),
		c.host.OnSurfaceChange(c.onSurfaceChange),
		c.host.OnContentChange(c.onContentChange),
		c.host.OnInput(c.onInput),
	}
	c.mu.Unlock()

	// First regeneration waits for the host to finish its own layout.
	c.settle = time.AfterFunc(c.settleDur, func() {
		c.logger.Debug("initial regeneration")
		c.Regenerate()
	})
}

// Regenerate discards the previous stylesheet fragment, installs a fresh
// one for the current document context, and runs a live pass. It is
// idempotent: with unchanged inputs the installed fragment is byte
// identical. Safe to call from the settings UI after any edit.
func (c *Coordinator) Regenerate() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	s := c.settings()
	doc := c.host.ActiveDocument()

	gen := stylegen.New()
	css := gen.Generate(s, doc)
	if err := c.host.InstallStyle(css); err != nil {
		c.logger.Error("install stylesheet", "err", err)
		c.mu.Unlock()
		return
	}
	stats := gen.Stats()
	c.mu.Unlock()

	c.logger.Debug("stylesheet regenerated",
		"emitted", stats.Emitted, "skipped", stats.Skipped)

	c.livePass()
}

// livePass runs the reconciler over the current surface snapshots. Table
// focus state comes from the coordinator's tracker.
func (c *Coordinator) livePass() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	s := c.settings()
	doc := c.host.ActiveDocument()
	surfaces := c.host.Surfaces()
	active := c.tracker.Active()
	c.mu.Unlock()

	for i := range surfaces {
		if surfaces[i].Kind == models.SurfaceTable {
			surfaces[i].Active = active
		}
	}

	marks := reconcile.Pass(s, doc, surfaces)
	if marks == nil {
		return
	}
	if err := c.host.ApplyMarks(marks); err != nil {
		c.logger.Error("apply live marks", "err", err)
	}
}

// FocusGained reports the property surface gaining input focus.
func (c *Coordinator) FocusGained() { c.tracker.FocusGained() }

// FocusLost reports focus leaving the property surface.
func (c *Coordinator) FocusLost() { c.tracker.FocusLost() }

func (c *Coordinator) onFocusChange(active bool) {
	c.logger.Debug("surface activity changed", "active", active)
	c.livePass()
}

func (c *Coordinator) onDocumentOpen(path string) {
	c.logger.Debug("document opened", "path", path)
	s := c.settings()
	if s.AutoFold && !c.host.Folded() {
		c.host.ToggleFold()
	}
	c.Regenerate()
}

func (c *Coordinator) onSurfaceChange(kind models.SurfaceKind) {
	c.logger.Debug("surface changed", "kind", kind)
	c.liveDeb.Trigger()
}

func (c *Coordinator) onContentChange(path string) {
	// Full regeneration re-walks empty-property detection; the live pass
	// keeps value conditions current while typing settles.
	c.fullDeb.Trigger()
	c.liveDeb.Trigger()
}

func (c *Coordinator) onInput() {
	c.liveDeb.Trigger()
}

// Close revokes every subscription exactly once and removes the installed
// stylesheet fragment. An already-absent fragment is not an error.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	if c.settle != nil {
		c.settle.Stop()
	}
	c.fullDeb.Stop()
	c.liveDeb.Stop()
	c.tracker.Stop()

	for _, u := range unsubs {
		u()
	}
	return c.host.RemoveStyle()
}
