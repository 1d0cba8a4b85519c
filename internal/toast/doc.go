// Package toast implements the notification lifecycle and stacking engine.
// It creates toasts, keeps at most a fixed number of them per screen
// position (evicting the oldest first), dismisses them on timeout, user
// action or capacity pressure, and creates and tears down the per-position
// containers they stack in. Drawing is delegated to a Renderer.
package toast
