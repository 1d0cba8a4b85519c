// Package theme provides colour palettes for toasts.
// Bundled themes (light, dark) are embedded; users can add or override
// themes by placing <name>.toml files in $XDG_CONFIG_HOME/toastd/themes/.
package theme
