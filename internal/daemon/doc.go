// Package daemon provides the main orchestration for toastd.
// It wires the toast controller to the terminal or headless renderer, the
// D-Bus notification server, audio and configuration hot reload.
package daemon
