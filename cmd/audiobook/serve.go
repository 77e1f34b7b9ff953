package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	_ "github.com/azhengyongqin/audiobook-hub/docs" // Swagger docs
	"github.com/azhengyongqin/audiobook-hub/internal/healthcheck"
	"github.com/azhengyongqin/audiobook-hub/internal/logger"
	httpserver "github.com/azhengyongqin/audiobook-hub/internal/server"
	"github.com/azhengyongqin/audiobook-hub/internal/shutdown"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local conversion console (HTTP API)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			gin.SetMode(gin.ReleaseMode)

			bundle := ctx.newConsole(cfg, logger.L)
			bundle.console.Init(runCtx)

			// 只有真正连上 Redis 时才检查它
			var redis healthcheck.Pinger
			if bundle.redis != nil {
				redis = bundle.redis
			}

			httpSrv := &http.Server{
				Addr: cfg.HTTP.Addr,
				Handler: httpserver.NewRouter(httpserver.Deps{
					Console:        bundle.console,
					HealthChecker:  healthcheck.NewHealthChecker(bundle.client, redis),
					UploadMaxBytes: cfg.HTTP.UploadMaxBytes,
				}),
				ReadHeaderTimeout: 5 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return runCtx },
			}

			mgr := shutdown.NewManager(10*time.Second, logger.L)
			mgr.AddHook("console", func(context.Context) error {
				bundle.close()
				return nil
			})
			mgr.AddHook("http", httpSrv.Shutdown)

			logger.Info().
				Str("http", cfg.HTTP.Addr).
				Str("backend", cfg.Backend.URL).
				Dur("poll_interval", cfg.Poll.Interval).
				Msg("服务启动")

			errCh := make(chan error, 1)
			go func() {
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var serveErr error
			select {
			case <-runCtx.Done():
			case err, ok := <-errCh:
				if ok {
					serveErr = fmt.Errorf("http server: %w", err)
				}
			}

			if err := mgr.Shutdown(context.Background()); err != nil && serveErr == nil {
				serveErr = err
			}
			logger.Info().Msg("服务已优雅关闭")
			return serveErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	return cmd
}
