package dbus

import (
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	callNotify               = DBusInterface + ".Notify"
	callCloseNotification    = DBusInterface + ".CloseNotification"
	callGetServerInformation = DBusInterface + ".GetServerInformation"
	callCloseAll             = ControlInterface + ".CloseAll"
	callGetActive            = ControlInterface + ".GetActive"
)

// Client talks to a running toastd over the session bus.
type Client struct {
	conn *dbus.Conn
}

// Dial connects a client to the session bus.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the private bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Notify sends a notification and returns its id.
func (c *Client) Notify(n DBusNotification) (uint32, error) {
	if len(n.Actions)%2 != 0 {
		return 0, fmt.Errorf("actions must be pairs of (key, label)")
	}
	if n.Hints == nil {
		n.Hints = map[string]dbus.Variant{}
	}
	if n.Actions == nil {
		n.Actions = []string{}
	}

	obj := c.conn.Object(DBusBusName, DBusPath)
	call := obj.Call(callNotify, 0,
		n.AppName,
		n.ReplacesID,
		n.AppIcon,
		n.Summary,
		n.Body,
		n.Actions,
		n.Hints,
		n.ExpireTimeout)
	if call.Err != nil {
		return 0, fmt.Errorf("failed to call Notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read Notify reply: %w", err)
	}
	return id, nil
}

// CloseNotification asks the server to close id.
func (c *Client) CloseNotification(id uint32) error {
	obj := c.conn.Object(DBusBusName, DBusPath)
	if call := obj.Call(callCloseNotification, 0, id); call.Err != nil {
		return fmt.Errorf("failed to call CloseNotification: %w", call.Err)
	}
	return nil
}

// GetServerInformation returns the server's identity.
func (c *Client) GetServerInformation() (ServerInfo, error) {
	obj := c.conn.Object(DBusBusName, DBusPath)
	call := obj.Call(callGetServerInformation, 0)
	if call.Err != nil {
		return ServerInfo{}, fmt.Errorf("failed to call GetServerInformation: %w", call.Err)
	}

	var info ServerInfo
	if err := call.Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion); err != nil {
		return ServerInfo{}, fmt.Errorf("failed to read GetServerInformation reply: %w", err)
	}
	return info, nil
}

// CloseAll closes every toast on a toastd server.
func (c *Client) CloseAll() error {
	obj := c.conn.Object(DBusBusName, ControlPath)
	if call := obj.Call(callCloseAll, 0); call.Err != nil {
		return fmt.Errorf("failed to call CloseAll: %w", call.Err)
	}
	return nil
}

// GetActive lists the toasts currently on screen.
func (c *Client) GetActive() ([]ActiveEntry, error) {
	obj := c.conn.Object(DBusBusName, ControlPath)
	call := obj.Call(callGetActive, 0)
	if call.Err != nil {
		return nil, fmt.Errorf("failed to call GetActive: %w", call.Err)
	}

	var raw string
	if err := call.Store(&raw); err != nil {
		return nil, fmt.Errorf("failed to read GetActive reply: %w", err)
	}

	var entries []ActiveEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode active toasts: %w", err)
	}
	return entries, nil
}
