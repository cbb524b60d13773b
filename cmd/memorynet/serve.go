package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unowned-ai/memorynet/pkg/api"
	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/mcp"
	"github.com/unowned-ai/memorynet/pkg/memories"
	"github.com/unowned-ai/memorynet/pkg/tui"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server on stdio for the configured user",
		Long: `Start a Model Context Protocol server that communicates over stdin and stdout.
Tools act on the user selected by --user; logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			b, err := a.openBackend()
			if err != nil {
				return err
			}
			defer a.closeDB(b.DB)

			synth := a.synthesizer(loc)
			s := mcp.NewMemoryNetMCPServer(mcp.Deps{
				Backend:  b,
				Gate:     a.gate(b, loc),
				Brain:    synth,
				Location: loc,
				Logger:   a.logger,
			})
			return s.Start()
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve legacy portals over HTTP",
		Long: `Serve the read-only legacy portal API:

  GET  /legacy/:token
  GET  /legacy/:token/memories?q=...&tag=...
  POST /legacy/:token/ask  {"question": "..."}

Unknown and inactive tokens both answer 404.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			b, err := a.openBackend()
			if err != nil {
				return err
			}
			defer a.closeDB(b.DB)

			server := api.NewServer(api.Config{ListenAddr: a.cfg.HTTP.Listen}, a.gate(b, loc), a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Run()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				a.logger.Info("received shutdown signal", zap.Error(context.Cause(ctx)))
				return server.Shutdown()
			}
		},
	}
	cmd.Flags().String("listen", "127.0.0.1:8480", "Address to listen on")
	cmd.Flags().Int("max-citations", 3, "Maximum number of memories cited in a reply")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse your timeline in an interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				return tui.ShowTUI(b, user, a.synthesizer(loc), loc)
			})
		},
	}
}
