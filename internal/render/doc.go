// Package render holds the content interpretation shared by renderers and
// a headless renderer that writes toasts to a log stream instead of a
// screen.
package render
