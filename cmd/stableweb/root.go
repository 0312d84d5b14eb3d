package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stable-net/stableweb/pkg/config"
)

var (
	flagConfig string
	flagHost   string
	flagPort   int
)

var rootCmd = &cobra.Command{
	Use:   "stableweb",
	Short: "Multi-chain stablecoin development node",
	Long: `stableweb runs an in-process deployment of the stablecoin platform:
one token instance per configured chain, an EIP-712 approval pipeline,
deterministic dev accounts and a JSON-RPC API for driving it all.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a JSON config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration: the config file when
// given, defaults otherwise, then environment overrides on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
