package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCommand builds the clipforge CLI, following birdnet-go's
// cmd/root.go shape: one persistent --config flag bound through viper,
// one subcommand file per verb.
func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipforge",
		Short: "Turn long-form video into ranked short-clip candidates",
	}

	root.PersistentFlags().String("config", "clipforge.yaml", "path to the YAML configuration file")
	if err := viper.BindPFlag("config", root.PersistentFlags().Lookup("config")); err != nil {
		// BindPFlag only fails on a nil flag, and the flag is defined just above.
		panic(fmt.Sprintf("clipforge: bind --config flag: %v", err))
	}

	root.AddCommand(runCommand())
	root.AddCommand(clearCacheCommand())

	return root
}

func configPath() string {
	return viper.GetString("config")
}
