package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storyweaver/internal/app"
	"storyweaver/internal/server"
	"storyweaver/pkg/config"
	"storyweaver/pkg/httputil"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the story API server",
	Long:  `Serve the story generation API until interrupted. SIGINT and SIGTERM trigger a graceful shutdown.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (overrides config and PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, pipeline, err := loadPipeline(ctx)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	proxy := httputil.NewRetryClient(httputil.NewPublicHTTPClient(cfg.Timeouts.Proxy), httputil.DefaultRetryConfig())
	srv := server.New(server.Config{
		Addr:        addr,
		Development: cfg.IsDevelopment(),
	}, pipeline, proxy)

	return srv.Run(ctx)
}

// loadPipeline loads and validates configuration and builds the pipeline.
func loadPipeline(ctx context.Context) (*config.Config, *app.Pipeline, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.NewPipeline(service), nil
}
