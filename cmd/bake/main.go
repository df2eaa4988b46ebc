package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bake/internal/cli"
)

var exitStatus int

// Flag parsing stays disabled on the root command: the accepted surface
// uses single-dash long options (-f, -sub) that pflag cannot express, so
// argv is canonicalized by cli.ParseInvocation instead.
var rootCmd = &cobra.Command{
	Use:                "bake [-f FILE] [-sub DIR] [TARGET]",
	Short:              "Incremental build orchestrator driven by a Bakefile",
	Example:            "  bake\n  bake prog\n  bake -f build/Bakefile prog",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := cli.ParseInvocation(args, viper.GetString("bakefile"))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			exitStatus = 1
			return nil
		}
		inv.Verbose = inv.Verbose || viper.GetBool("verbose")
		inv.Debug = inv.Debug || viper.GetBool("debug")

		exitStatus = cli.Run(context.Background(), inv, os.Stdin, os.Stdout, os.Stderr)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig reads the optional .bake.yaml in the working directory and
// BAKE_* environment overrides.
func initConfig() {
	viper.SetEnvPrefix("bake")
	viper.AutomaticEnv()

	viper.SetConfigName(".bake")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("bakefile", cli.DefaultBakefile)
	viper.SetDefault("verbose", false)
	viper.SetDefault("debug", false)

	err := viper.ReadInConfig()

	// ReadInConfig errors when no config exists; only a config that was
	// found but could not be read is fatal.
	if viper.ConfigFileUsed() != "" && err != nil {
		fmt.Fprintf(os.Stderr, "error reading bake configuration: %s\n", err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitStatus)
}
