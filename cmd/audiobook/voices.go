package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/azhengyongqin/audiobook-hub/internal/logger"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices offered by the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			bundle := ctx.newConsole(cfg, logger.L)
			defer bundle.close()

			bundle.console.Init(cmd.Context())
			if banner := bundle.console.Errors().Current(); banner.Visible {
				return errors.New(banner.Text)
			}

			sel := bundle.console.Snapshot().Voices
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sel.Options)
			}

			rows := make([][]string, 0, len(sel.Options))
			for i, v := range sel.Options {
				def := ""
				if v == sel.Selected {
					def = "yes"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), v, def})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Voice", "Default"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the voice list as JSON")
	return cmd
}
