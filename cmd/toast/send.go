package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/model"
)

var sendOpts struct {
	typ         string
	title       string
	position    string
	duration    string
	contentType string
	theme       string
	noProgress  bool
	replaces    uint32
	appName     string
}

var sendCmd = &cobra.Command{
	Use:   "send [content]",
	Short: "Show a toast",
	Long: `Show a toast and print its id.

Content is read from stdin when no argument is given or the argument is "-".

Examples:
  toast send "Build finished"
  toast send --type error --title CI "tests failed"
  toast send --duration 0 --position center "stays until closed"
  make 2>&1 | tail -n 3 | toast send --type warning`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.typ, "type", "t", "info",
		"Toast type (info, success, warning, error)")
	sendCmd.Flags().StringVar(&sendOpts.title, "title", "",
		"Toast title")
	sendCmd.Flags().StringVarP(&sendOpts.position, "position", "p", "",
		"Position (top-right, top-left, bottom-right, bottom-left, center)")
	sendCmd.Flags().StringVarP(&sendOpts.duration, "duration", "d", "",
		"How long to show the toast, e.g. 5s or 5000; 0 keeps it until closed")
	sendCmd.Flags().StringVar(&sendOpts.contentType, "content-type", "text",
		"Content type (text, html, image, video, audio)")
	sendCmd.Flags().StringVar(&sendOpts.theme, "theme", "",
		"Theme name")
	sendCmd.Flags().BoolVar(&sendOpts.noProgress, "no-progress", false,
		"Hide the countdown bar")
	sendCmd.Flags().Uint32Var(&sendOpts.replaces, "replaces", 0,
		"Replace the toast with this id")
	sendCmd.Flags().StringVar(&sendOpts.appName, "app-name", "toast",
		"Application name sent with the notification")
}

func runSend(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !stdinIsPipe() {
		return fmt.Errorf("no content given")
	}
	content, err := readContent(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	n, err := buildNotification(content)
	if err != nil {
		return err
	}

	return withClient(func(c *dbus.Client) error {
		id, err := c.Notify(n)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
		return err
	})
}

func readContent(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")
	if content == "" {
		return "", fmt.Errorf("no content given")
	}
	return content, nil
}

// buildNotification validates the flags locally so mistakes are reported
// without a bus round trip.
func buildNotification(content string) (dbus.DBusNotification, error) {
	typ, err := model.ParseType(sendOpts.typ)
	if err != nil {
		return dbus.DBusNotification{}, err
	}
	contentType, err := model.ParseContentType(sendOpts.contentType)
	if err != nil {
		return dbus.DBusNotification{}, err
	}
	if contentType == model.ContentCustom {
		return dbus.DBusNotification{}, fmt.Errorf("custom content cannot be sent over D-Bus")
	}

	hints := map[string]godbus.Variant{
		dbus.HintType:        godbus.MakeVariant(string(typ)),
		dbus.HintContentType: godbus.MakeVariant(string(contentType)),
		"urgency":            godbus.MakeVariant(urgencyFor(typ)),
	}
	if sendOpts.position != "" {
		pos, err := model.ParsePosition(sendOpts.position)
		if err != nil {
			return dbus.DBusNotification{}, err
		}
		hints[dbus.HintPosition] = godbus.MakeVariant(string(pos))
	}
	if sendOpts.theme != "" {
		hints[dbus.HintTheme] = godbus.MakeVariant(sendOpts.theme)
	}
	if sendOpts.noProgress {
		hints[dbus.HintProgress] = godbus.MakeVariant(false)
	}
	if contentType == model.ContentImage {
		hints["image-path"] = godbus.MakeVariant(content)
	}

	expire := int32(-1)
	if sendOpts.duration != "" {
		var d config.Duration
		if err := d.UnmarshalText([]byte(sendOpts.duration)); err != nil {
			return dbus.DBusNotification{}, err
		}
		if d.Duration() < 0 {
			return dbus.DBusNotification{}, fmt.Errorf("duration must not be negative, got %s", d.Duration())
		}
		expire = int32(d.Duration().Milliseconds())
	}

	return dbus.DBusNotification{
		AppName:       sendOpts.appName,
		ReplacesID:    sendOpts.replaces,
		AppIcon:       "",
		Summary:       sendOpts.title,
		Body:          content,
		Hints:         hints,
		ExpireTimeout: expire,
	}, nil
}

func urgencyFor(typ model.Type) byte {
	switch typ {
	case model.TypeError:
		return dbus.UrgencyCritical
	case model.TypeInfo:
		return dbus.UrgencyLow
	default:
		return dbus.UrgencyNormal
	}
}

// stdinIsPipe reports whether stdin is redirected.
func stdinIsPipe() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}
