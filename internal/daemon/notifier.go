package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/toast"
)

// DefaultNotifyInterval is the minimum gap between two internal toasts
// with the same key.
const DefaultNotifyInterval = 5 * time.Second

// internalDuration is how long the daemon's own toasts stay up.
const internalDuration = 5 * time.Second

// Shower shows a toast. *toast.Controller implements it.
type Shower interface {
	Show(spec model.Spec) (toast.Handle, error)
}

// InternalNotifier raises toasts about the daemon's own events, rate
// limited per key so a flapping config file cannot flood the screen.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	clock  clock.Clock
	shower Shower

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	enabled        bool
}

// NewInternalNotifier creates a notifier showing toasts through shower.
func NewInternalNotifier(shower Shower, clk clock.Clock, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &InternalNotifier{
		logger:         logger,
		clock:          clk,
		shower:         shower,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    DefaultNotifyInterval,
		enabled:        true,
	}
}

// SetEnabled enables or disables internal toasts.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between toasts with the same key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify shows a toast unless one with the same key was shown recently.
// It reports whether a toast was shown.
func (n *InternalNotifier) Notify(key, title, content string, typ model.Type) bool {
	n.mu.Lock()
	if !n.enabled || n.shower == nil {
		n.mu.Unlock()
		return false
	}

	now := n.clock.Now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal toast rate-limited", "key", key, "title", title)
		return false
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	spec := model.Spec{
		Type:        typ,
		Title:       title,
		Content:     content,
		ContentType: model.ContentText,
	}.WithDuration(internalDuration)

	// Show may run hooks, so it is called without holding n.mu.
	if _, err := n.shower.Show(spec); err != nil {
		n.logger.Warn("failed to show internal toast", "key", key, "error", err)
		return false
	}
	return true
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration Reloaded",
		"toastd configuration has been reloaded.", model.TypeSuccess)
}

// NotifyConfigError reports a config file that failed to apply.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration Error",
		"Failed to apply configuration: "+err.Error(), model.TypeWarning)
}

// NotifyStartup reports that the daemon is ready.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify("startup", "toastd Started",
		"Notification daemon "+version+" is now running.", model.TypeInfo)
}
