package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/sjc5/dispatch/pkg/colorlog"
	"github.com/sjc5/dispatch/pkg/config"
	"github.com/sjc5/dispatch/pkg/port"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	var addr string
	var findFreePort bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the endpoint map over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			log := colorlog.New("dispatchd")
			if findFreePort {
				free, err := port.FreeAddr(cfg.Addr)
				if err != nil {
					return err
				}
				if free != cfg.Addr {
					log.Warn("configured address is taken", "addr", cfg.Addr, "using", free)
				}
				cfg.Addr = free
			}

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}

			handler := a.handler()
			if cfg.H2C {
				handler = h2c.NewHandler(handler, &http2.Server{})
			}
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", cfg.Addr, "mountRoot", a.mux.MountRoot(), "h2c", cfg.H2C)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if a.tracer != nil {
				defer a.tracer.Shutdown(shutdownCtx)
			}
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overriding the config")
	cmd.Flags().BoolVar(&findFreePort, "find-free-port", false, "move to the next free port when the address is taken")
	return cmd
}
