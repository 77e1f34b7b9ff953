package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/azhengyongqin/audiobook-hub/internal/apperr"
	"github.com/azhengyongqin/audiobook-hub/internal/logger"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var (
		voice  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "preview <text>...",
		Short: "Synthesize a short preview clip (played with PLAYER_CMD when set)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Player.Command == "" && output == "" {
				return errors.New("nothing to do: set PLAYER_CMD or pass --output")
			}

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			bundle := ctx.newConsole(cfg, logger.L)
			defer bundle.close()
			con := bundle.console

			if voice == "" {
				con.Init(runCtx)
				if banner := con.Errors().Current(); banner.Visible {
					return errors.New(banner.Text)
				}
			}

			audio, err := con.Preview(runCtx, strings.Join(args, " "), voice)
			if len(audio) == 0 {
				return errors.New(apperr.Message(err, apperr.MsgPreviewFailed))
			}
			if err != nil {
				logger.Warn().Err(err).Msg("试听播放失败")
			}

			if output != "" {
				if err := os.WriteFile(output, audio, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", output, len(audio))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&voice, "voice", "v", "", "Voice to use (default: first voice in the catalog)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also save the clip to this file")
	return cmd
}
