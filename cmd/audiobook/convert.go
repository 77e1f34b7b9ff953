package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/azhengyongqin/audiobook-hub/internal/apperr"
	"github.com/azhengyongqin/audiobook-hub/internal/logger"
	"github.com/azhengyongqin/audiobook-hub/internal/middleware"
	"github.com/azhengyongqin/audiobook-hub/internal/view"
	"github.com/azhengyongqin/audiobook-hub/sdk"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		voice      string
		output     string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "convert <file.pdf>",
		Short: "Convert a PDF into an audiobook and download the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path := args[0]
			if !middleware.ValidatePDFName(path) {
				return fmt.Errorf("%s: only PDF files are supported", path)
			}
			if _, err := os.Stat(path); err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".mp3"
			}

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			bundle := ctx.newConsole(cfg, logger.L)
			defer bundle.close()
			con := bundle.console

			con.Init(runCtx)
			if banner := con.Errors().Current(); banner.Visible {
				return errors.New(banner.Text)
			}
			if voice != "" {
				if err := con.SelectVoice(voice); err != nil {
					return err
				}
			}
			if err := con.SelectFile(sdk.FileDocument(path)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderer := newProgressRenderer(out, !noProgress)
			unsubscribe := con.View().Subscribe(renderer.Render)
			defer unsubscribe()

			fmt.Fprintf(out, "Submitting %s with voice %s\n", filepath.Base(path), con.Voice())
			taskID, err := con.Submit(runCtx)
			if err != nil {
				return errors.New(apperr.Message(err, apperr.MsgSubmissionFailed))
			}
			logger.Info().Str("task_id", taskID).Msg("等待转换完成")

			select {
			case <-con.Poller().Done():
			case <-runCtx.Done():
				return runCtx.Err()
			}

			snap := con.View().Snapshot()
			if !snap.State.Succeeded() {
				return errors.New(snap.Error.Text)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			n, err := con.FetchResult(runCtx, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(output)
				if errors.Is(err, sdk.ErrResultUnavailable) {
					return errors.New(apperr.MsgResultExpired)
				}
				return err
			}

			fmt.Fprintf(out, "Saved %s (%d bytes)\n", output, n)
			if snap.State == view.StateSucceededWithWarning {
				logger.Warn().Str("task_id", taskID).Msg(snap.Warning.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&voice, "voice", "v", "", "Voice to use (default: first voice in the catalog)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <file>.mp3)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Print progress lines instead of a progress bar")
	return cmd
}
