// Package dbus implements the org.freedesktop.Notifications D-Bus interface
// on top of the toast controller, plus a small control interface used by the
// toast CLI to list and clear toasts.
package dbus
