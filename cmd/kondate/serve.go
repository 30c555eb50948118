package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/kondate/internal/fakeapi"
)

func serveFakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-fake",
		Short: "Run an in-memory plan API for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			settings := fakeapi.DefaultSettings()
			settings.Host = host
			settings.Port = port
			srv := fakeapi.NewServer(settings, fakeapi.WithLogger(env.apiLog))
			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving plan API on %s (Ctrl+C to stop)\n", srv.BaseURL())
			env.journal.Info("Fake plan API started on %s", srv.BaseURL())

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			env.journal.Info("Fake plan API stopped")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("host", fakeapi.DefaultHost, "interface to listen on")
	cmd.Flags().Int("port", 8080, "port to listen on (0 picks a free port)")
	return cmd
}
