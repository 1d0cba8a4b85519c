// Package tui draws toasts in a terminal with BubbleTea.
//
// Board is a toast.Renderer: the controller hands it widgets, and the
// board stacks them at the five anchors of the terminal. Key presses and
// mouse clicks are published to an input.Hub so the controller can react
// to escape and click-outside, and each toast has a clickable close button.
package tui
