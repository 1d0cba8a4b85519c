package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/adapter/output"
	"github.com/jmylchreest/toastd/internal/dbus"
)

var listOpts struct {
	format   string
	template string
	maxLen   int
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the toasts on screen",
	Long: `List the toasts toastd is currently showing, oldest first.

Examples:
  toast list
  toast list --format json
  toast list --format dmenu | fuzzel -d | cut -d' ' -f1 | xargs toast close`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", "plain",
		"Output format (plain, dmenu, json, yaml, ids)")
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Custom Go template for plain/dmenu output")
	listCmd.Flags().IntVar(&listOpts.maxLen, "max-len", 80,
		"Truncate content to this many bytes (0 = unlimited)")
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(listOpts.format)
	if err != nil {
		return err
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = listOpts.template
	opts.BodyMaxLen = listOpts.maxLen

	return withClient(func(c *dbus.Client) error {
		entries, err := c.GetActive()
		if err != nil {
			return err
		}
		return output.NewFormatter(format, opts).Format(cmd.OutOrStdout(), entries)
	})
}
