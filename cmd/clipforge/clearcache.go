package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clipforge/engine/internal/config"
	"github.com/clipforge/engine/pkg/clipmodel"
)

// clearCacheCommand discards a source's checkpointed pipeline state so the
// next run starts from audio extraction again.
func clearCacheCommand() *cobra.Command {
	var sizeHint int64

	cmd := &cobra.Command{
		Use:   "clear-cache [source video]",
		Short: "Discard checkpointed pipeline state for a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath())
			if err != nil {
				return fmt.Errorf("clipforge: %w", err)
			}

			logger := newLogger(cfg.Run.LogLevel)
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

			return orchestrator.ClearCache(context.Background(), clipmodel.Source{Path: sourcePath, Size: size})
		},
	}

	cmd.Flags().Int64Var(&sizeHint, "size-hint", 0, "source file size in bytes, to avoid an extra stat(2) call")
	cmd.SilenceUsage = true

	return cmd
}
