package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/model"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the toasts on screen in Waybar's custom module JSON format.

  "custom/toasts": {
    "exec": "toast status",
    "interval": 2,
    "return-type": "json",
    "on-click": "toast close-all"
  }

The class is the most severe type on screen (info, success, warning, error),
or "empty" when nothing is shown.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	var entries []dbus.ActiveEntry
	err := withClient(func(c *dbus.Client) error {
		var err error
		entries, err = c.GetActive()
		return err
	})
	if err != nil {
		logger.Debug("failed to query toastd", "error", err)
		return writeStatus(cmd.OutOrStdout(), WaybarStatus{Alt: "error", Class: "error"})
	}
	return writeStatus(cmd.OutOrStdout(), buildStatus(entries))
}

var severity = map[model.Type]int{
	model.TypeInfo:    1,
	model.TypeSuccess: 2,
	model.TypeWarning: 3,
	model.TypeError:   4,
}

func buildStatus(entries []dbus.ActiveEntry) WaybarStatus {
	counts := make(map[model.Type]int)
	worst := model.Type("")
	active := 0
	for _, e := range entries {
		if e.State != "active" {
			continue
		}
		active++
		counts[e.Type]++
		if severity[e.Type] > severity[worst] {
			worst = e.Type
		}
	}

	if active == 0 {
		return WaybarStatus{Text: "", Alt: "empty", Class: "empty", Tooltip: "No toasts"}
	}

	var tooltip []string
	for _, typ := range []model.Type{model.TypeError, model.TypeWarning, model.TypeSuccess, model.TypeInfo} {
		if n := counts[typ]; n > 0 {
			tooltip = append(tooltip, fmt.Sprintf("%s: %d", typ, n))
		}
	}

	return WaybarStatus{
		Text:    fmt.Sprintf("%d", active),
		Alt:     string(worst),
		Class:   string(worst),
		Tooltip: strings.Join(tooltip, "\n"),
	}
}

func writeStatus(w io.Writer, s WaybarStatus) error {
	return json.NewEncoder(w).Encode(s)
}
