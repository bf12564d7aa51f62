package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/clipforge/engine/internal/config"
	"github.com/clipforge/engine/internal/diagnostics"
	"github.com/clipforge/engine/pkg/clipmodel"
)

// runCommand analyzes a single source video and prints its RunResult
// (scored segments, validated clips and stats) as JSON, following birdnet-go's cmd/file's single-input, signal-cancelled
// RunE shape.
func runCommand() *cobra.Command {
	var sizeHint int64

	cmd := &cobra.Command{
		Use:   "run [source video]",
		Short: "Run the clip pipeline against a single source video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := config.Load(configPath())
			if err != nil {
				return fmt.Errorf("clipforge: %w", err)
			}

			logger := newLogger(cfg.Run.LogLevel)

			shutdownMetrics, err := diagnostics.InitProvider(ctx, diagnostics.ProviderConfig{ServiceName: cfg.Diagnostics.ServiceName})
			if err != nil {
				return fmt.Errorf("clipforge: init metrics: %w", err)
			}
			defer shutdownMetrics(context.Background())

			if cfg.Diagnostics.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: cfg.Diagnostics.MetricsAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Error("metrics server stopped", "err", err)
					}
				}()
				defer srv.Shutdown(context.Background())
			}

			orchestrator, err := buildOrchestrator(*cfg, logger)
			if err != nil {
				return err
			}

			sourcePath := args[0]
			size := sizeHint
			if size == 0 {
				if info, statErr := os.Stat(sourcePath); statErr == nil {
					size = info.Size()
				}
			}

			result, err := orchestrator.Run(ctx, clipmodel.Source{Path: sourcePath, Size: size})
			if err != nil {
				return fmt.Errorf("clipforge: run failed: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().Int64Var(&sizeHint, "size-hint", 0, "source file size in bytes, to avoid an extra stat(2) call")
	cmd.SilenceUsage = true

	return cmd
}
