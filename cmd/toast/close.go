package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/dbus"
)

var closeCmd = &cobra.Command{
	Use:   "close ID...",
	Short: "Close toasts by id",
	Long: `Close one or more toasts by the id "toast send" printed.

Examples:
  toast close 12
  toast list --format ids | xargs toast close`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClose,
}

var closeAllCmd = &cobra.Command{
	Use:   "close-all",
	Short: "Close every toast on screen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *dbus.Client) error {
			return c.CloseAll()
		})
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(closeAllCmd)
}

func runClose(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	return withClient(func(c *dbus.Client) error {
		for _, id := range ids {
			if err := c.CloseNotification(id); err != nil {
				return err
			}
			logger.Debug("closed toast", "id", id)
		}
		return nil
	})
}

func parseIDs(args []string) ([]uint32, error) {
	ids := make([]uint32, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, uint32(id))
	}
	return ids, nil
}
