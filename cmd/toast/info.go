package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/dbus"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show which notification server is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *dbus.Client) error {
			info, err := c.GetServerInformation()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (vendor: %s, spec: %s)\n",
				info.Name, info.Version, info.Vendor, info.SpecVersion)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
