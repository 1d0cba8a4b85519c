package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jmylchreest/toastd/internal/audio"
	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/input"
	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/render"
	"github.com/jmylchreest/toastd/internal/theme"
	"github.com/jmylchreest/toastd/internal/toast"
	"github.com/jmylchreest/toastd/internal/tui"
)

// Options configures a Daemon.
type Options struct {
	ConfigPath string    // Empty means the XDG default
	Headless   bool      // Print toasts instead of running the terminal board
	NoDBus     bool      // Do not claim org.freedesktop.Notifications
	Output     io.Writer // Headless output, may be nil
	Version    string
}

// player is the slice of *audio.Manager the daemon needs.
type player interface {
	render.Sounds
	UpdateConfig(cfg *config.Config)
	Stop()
}

// signaler emits the freedesktop signals. *dbus.NotificationServer
// implements it.
type signaler interface {
	EmitNotificationClosed(id uint32, reason dbus.CloseReason) error
	EmitActionInvoked(id uint32, actionKey string) error
}

// Daemon wires the toast controller to a renderer, the D-Bus server, audio
// and config hot reload.
type Daemon struct {
	opts   Options
	logger *slog.Logger
	clock  clock.Clock

	mu  sync.RWMutex
	cfg *config.Config

	hub        *input.Hub
	themes     *theme.Set
	audio      player
	board      *tui.Board
	headless   *render.Headless
	controller *toast.Controller
	ids        *IDMap
	notifier   *InternalNotifier
	server     *dbus.NotificationServer
	signals    signaler
	watcher    *config.Watcher
}

// New loads configuration and builds every component. Nothing is started
// until Run.
func New(opts Options, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.ConfigPath()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return newDaemon(opts, cfg, audio.NewManager(cfg, logger), clock.Real(), logger)
}

func newDaemon(opts Options, cfg *config.Config, sounds player, clk clock.Clock, logger *slog.Logger) (*Daemon, error) {
	d := &Daemon{
		opts:   opts,
		logger: logger,
		clock:  clk,
		cfg:    cfg,
		hub:    input.NewHub(logger),
		themes: theme.NewSet(config.ThemesDir(), logger),
		audio:  sounds,
		ids:    NewIDMap(),
	}

	defaults, err := d.options(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var renderer toast.Renderer
	if opts.Headless {
		d.headless = render.NewHeadless(opts.Output, sounds, logger)
		renderer = d.headless
	} else {
		d.board = tui.NewBoard(d.hub, logger,
			tui.WithThemes(d.themes),
			tui.WithClipboardCommand(cfg.Clipboard.Command),
		)
		renderer = d.board
	}

	d.controller = toast.New(renderer, defaults,
		toast.WithClock(clk),
		toast.WithLogger(logger),
		toast.WithKeySource(d.hub),
		toast.WithPointerSource(d.hub),
	)
	d.notifier = NewInternalNotifier(d.controller, clk, logger)

	if cfg.DBus.Enabled && !opts.NoDBus {
		d.server = dbus.NewNotificationServer(logger)
		d.server.SetServerInfo(dbus.ServerInfo{
			Name:        "toastd",
			Vendor:      "toastd",
			Version:     opts.Version,
			SpecVersion: "1.2",
		})
		d.server.SetNotifyHandler(d.handleNotify)
		d.server.SetCloseHandler(d.handleClose)
		d.server.SetCloseAllHandler(d.controller.CloseAll)
		d.server.SetActiveHandler(d.ActiveEntries)
		d.signals = d.server
	}

	return d, nil
}

// options builds controller defaults from cfg with the daemon hooks attached.
func (d *Daemon) options(cfg *config.Config) (model.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return model.Options{}, err
	}
	opts.OnShow = d.onShow
	opts.OnClose = d.onClose
	opts.OnClick = d.onClick
	return opts, nil
}

// Controller returns the toast controller.
func (d *Daemon) Controller() *toast.Controller {
	return d.controller
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Run starts the D-Bus server and config watcher, then blocks until ctx is
// cancelled or the terminal board exits.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer d.shutdown()

	if d.server != nil {
		d.mu.RLock()
		replace := d.cfg.DBus.ReplaceExisting
		d.mu.RUnlock()

		if err := d.server.Start(replace); err != nil {
			return fmt.Errorf("failed to start D-Bus server: %w", err)
		}
	}

	watcher, err := config.NewWatcher(d.opts.ConfigPath, d.Reload, d.logger)
	if err != nil {
		d.logger.Warn("config hot reload disabled", "error", err)
	} else {
		watcher.SetErrorCallback(d.notifier.NotifyConfigError)
		if err := watcher.Start(); err != nil {
			d.logger.Warn("config hot reload disabled", "path", d.opts.ConfigPath, "error", err)
			_ = watcher.Stop()
		} else {
			d.watcher = watcher
		}
	}

	d.logger.Info("toastd ready", "version", d.opts.Version, "headless", d.opts.Headless, "dbus", d.server != nil)
	d.notifier.NotifyStartup(d.opts.Version)

	if d.board != nil {
		return d.board.Run(ctx)
	}
	<-ctx.Done()
	return nil
}

func (d *Daemon) shutdown() {
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.logger.Warn("failed to stop config watcher", "error", err)
		}
	}
	// Dispose first so NotificationClosed still goes out for open toasts.
	d.controller.Dispose()
	if d.server != nil {
		_ = d.server.Stop()
	}
	if d.headless != nil {
		d.headless.Wait()
	}
	if d.audio != nil {
		d.audio.Stop()
	}
	d.logger.Info("toastd stopped")
}

// Reload applies a new configuration. Toasts already on screen keep the
// options they were shown with.
func (d *Daemon) Reload(cfg *config.Config) {
	defaults, err := d.options(cfg)
	if err != nil {
		d.logger.Warn("rejected configuration", "error", err)
		d.notifier.NotifyConfigError(err)
		return
	}

	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	d.controller.SetDefaults(defaults)
	if d.audio != nil {
		d.audio.UpdateConfig(cfg)
	}
	d.themes.Reload()
	if d.board != nil {
		d.board.SetClipboardCommand(cfg.Clipboard.Command)
	}

	d.logger.Info("configuration applied", "position", defaults.Position, "max_per_position", defaults.MaxPerPosition)
	d.notifier.NotifyConfigReloaded()
}

// handleNotify shows a D-Bus notification. The D-Bus id is linked to the
// toast id before the toast exists, so a close racing with Show still finds
// it. A replaced notification is unlinked before it is closed so that no
// NotificationClosed is emitted for an id that lives on.
func (d *Daemon) handleNotify(n *dbus.DBusNotification, id uint32) error {
	spec := n.ToSpec()
	if _, err := model.Resolve(d.controller.Defaults(), spec); err != nil {
		return err
	}

	now := d.clock.Now()
	toastID, err := model.NewID(now)
	if err != nil {
		return err
	}
	spec.ID = toastID

	if prev, replaced := d.ids.Register(id, toast.HandleFor(toastID), now); replaced {
		d.controller.CloseWithReason(prev, toast.CloseReasonClosed)
	}

	h, err := d.controller.Show(spec)
	if err != nil {
		d.ids.Remove(toastID)
		return err
	}

	d.logger.Debug("notification shown", "dbus_id", id, "toast_id", h.ID(), "app", n.AppName)
	return nil
}

func (d *Daemon) handleClose(id uint32) {
	h, ok := d.ids.Handle(id)
	if !ok {
		d.logger.Debug("close requested for unknown notification", "dbus_id", id)
		return
	}
	d.controller.CloseWithReason(h, toast.CloseReasonClosed)
}

// ActiveEntries lists the toasts on screen with their D-Bus ids. Toasts
// raised by the daemon itself have id 0.
func (d *Daemon) ActiveEntries() []dbus.ActiveEntry {
	snaps := d.controller.Snapshot()
	entries := make([]dbus.ActiveEntry, 0, len(snaps))
	for _, a := range snaps {
		dbusID, _ := d.ids.DBusID(a.ID)
		entries = append(entries, dbus.ActiveEntry{DBusID: dbusID, Active: a})
	}
	return entries
}

func (d *Daemon) onShow(a model.Active) {
	// The headless renderer plays its own sounds.
	if d.audio == nil || d.headless != nil {
		return
	}
	go func() {
		var err error
		if a.ContentType == model.ContentAudio {
			err = d.audio.PlayFile(a.Content)
		} else {
			err = d.audio.PlayFor(a.Type)
		}
		if err != nil {
			d.logger.Debug("failed to play sound", "id", a.ID, "error", err)
		}
	}()
}

func (d *Daemon) onClose(a model.Active) {
	dbusID, ok := d.ids.Remove(a.ID)
	if !ok || d.signals == nil {
		return
	}
	if err := d.signals.EmitNotificationClosed(dbusID, wireReason(a.CloseReason)); err != nil {
		d.logger.Debug("failed to emit NotificationClosed", "dbus_id", dbusID, "error", err)
	}
}

func (d *Daemon) onClick(_ model.ClickEvent, a model.Active) {
	dbusID, ok := d.ids.DBusID(a.ID)
	if !ok || d.signals == nil {
		return
	}
	if err := d.signals.EmitActionInvoked(dbusID, "default"); err != nil {
		d.logger.Debug("failed to emit ActionInvoked", "dbus_id", dbusID, "error", err)
	}
}

// wireReason maps a toast close reason onto the freedesktop codes. Eviction
// has no code of its own.
func wireReason(reason string) dbus.CloseReason {
	switch reason {
	case toast.CloseReasonExpired.String():
		return dbus.CloseReasonExpired
	case toast.CloseReasonDismissed.String():
		return dbus.CloseReasonDismissed
	case toast.CloseReasonClosed.String():
		return dbus.CloseReasonClosed
	default:
		return dbus.CloseReasonUndefined
	}
}

// IsNameTaken reports whether err means another notification daemon is
// already running.
func IsNameTaken(err error) bool {
	return errors.Is(err, dbus.ErrNameTaken)
}
