package dbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/toastd/internal/model"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"

	// ControlInterface carries toastd-specific methods.
	ControlInterface = "io.github.jmylchreest.Toastd"
	// ControlPath is the object path of the control interface.
	ControlPath = "/io/github/jmylchreest/Toastd"
)

// ErrNameTaken is returned by Start when another daemon owns the bus name.
var ErrNameTaken = errors.New("bus name already taken")

// NotifyHandler shows a notification under the given D-Bus id.
type NotifyHandler func(notification *DBusNotification, id uint32) error

// CloseHandler closes the notification with the given D-Bus id.
type CloseHandler func(id uint32)

// ActiveEntry pairs a D-Bus id with a toast snapshot.
type ActiveEntry struct {
	DBusID uint32 `json:"dbus_id" yaml:"dbus_id"`
	model.Active `yaml:",inline"`
}

// NotificationServer implements the org.freedesktop.Notifications D-Bus interface.
type NotificationServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	nextID atomic.Uint32

	notifyHandler   NotifyHandler
	closeHandler    CloseHandler
	closeAllHandler func()
	activeHandler   func() []ActiveEntry

	mu         sync.RWMutex
	serverInfo ServerInfo
	running    bool
}

// NewNotificationServer creates a new NotificationServer.
func NewNotificationServer(logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger:     logger,
		serverInfo: DefaultServerInfo(),
	}
}

// SetNotifyHandler sets the handler called when a notification is received.
func (s *NotificationServer) SetNotifyHandler(handler NotifyHandler) {
	s.notifyHandler = handler
}

// SetCloseHandler sets the handler called when CloseNotification is requested.
func (s *NotificationServer) SetCloseHandler(handler CloseHandler) {
	s.closeHandler = handler
}

// SetCloseAllHandler sets the handler for the control CloseAll method.
func (s *NotificationServer) SetCloseAllHandler(handler func()) {
	s.closeAllHandler = handler
}

// SetActiveHandler sets the source for the control GetActive method.
func (s *NotificationServer) SetActiveHandler(handler func() []ActiveEntry) {
	s.activeHandler = handler
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	s.serverInfo = info
	s.mu.Unlock()
}

// Start connects to the session bus, exports both objects and claims the
// notification bus name.
func (s *NotificationServer) Start(replaceExisting bool) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}
	if err := conn.Export(&control{server: s}, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export control object: %w", err)
	}

	if err := exportIntrospection(conn, DBusPath, introspect.Interface{
		Name:    DBusInterface,
		Methods: notificationMethods(),
		Signals: notificationSignals(),
	}); err != nil {
		return err
	}
	if err := exportIntrospection(conn, ControlPath, introspect.Interface{
		Name:    ControlInterface,
		Methods: controlMethods(),
	}); err != nil {
		return err
	}

	flags := dbus.NameFlagDoNotQueue
	if replaceExisting {
		flags |= dbus.NameFlagReplaceExisting
	}
	reply, err := conn.RequestName(DBusBusName, flags)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%s: %w", DBusBusName, ErrNameTaken)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus notification server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

func exportIntrospection(conn *dbus.Conn, path dbus.ObjectPath, iface introspect.Interface) error {
	node := &introspect.Node{
		Name:       string(path),
		Interfaces: []introspect.Interface{introspect.IntrospectData, iface},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable for %s: %w", path, err)
	}
	return nil
}

// Stop releases the bus name.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// The session bus connection is shared; leave it open.
	}

	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	s.logger.Debug("GetCapabilities called")
	return ServerCapabilities, nil
}

// GetServerInformation returns information about the notification server.
// D-Bus method: GetServerInformation() -> (ssss)
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.mu.RLock()
	info := s.serverInfo
	s.mu.RUnlock()
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

// Notify handles incoming notification requests.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	id := replacesID
	if id == 0 {
		id = s.nextID.Add(1)
	}

	s.logger.Debug("Notify called",
		"app_name", appName,
		"replaces_id", replacesID,
		"summary", summary,
		"id", id,
	)

	notification := &DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}

	if s.notifyHandler != nil {
		if err := s.notifyHandler(notification, id); err != nil {
			s.logger.Warn("notification rejected", "id", id, "error", err)
			return 0, dbus.MakeFailedError(err)
		}
	}

	return id, nil
}

// CloseNotification closes a notification by ID. The NotificationClosed
// signal is emitted by the close hook, not here.
// D-Bus method: CloseNotification(u) -> nothing
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	s.logger.Debug("CloseNotification called", "id", id)
	if s.closeHandler != nil {
		s.closeHandler(id)
	}
	return nil
}

// control is exported on ControlPath so its methods do not leak into the
// freedesktop interface.
type control struct {
	server *NotificationServer
}

// CloseAll closes every active toast.
// D-Bus method: CloseAll() -> nothing
func (c *control) CloseAll() *dbus.Error {
	c.server.logger.Debug("CloseAll called")
	if c.server.closeAllHandler != nil {
		c.server.closeAllHandler()
	}
	return nil
}

// GetActive returns the active toasts as a JSON array.
// D-Bus method: GetActive() -> s
func (c *control) GetActive() (string, *dbus.Error) {
	entries := []ActiveEntry{}
	if c.server.activeHandler != nil {
		entries = append(entries, c.server.activeHandler()...)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", dbus.MakeFailedError(fmt.Errorf("failed to encode active toasts: %w", err))
	}
	return string(data), nil
}

func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}

func controlMethods() []introspect.Method {
	return []introspect.Method{
		{Name: "CloseAll"},
		{
			Name: "GetActive",
			Args: []introspect.Arg{
				{Name: "toasts", Type: "s", Direction: "out"},
			},
		},
	}
}
