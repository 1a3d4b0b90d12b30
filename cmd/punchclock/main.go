// Package main provides the punchclock binary: the HTTP server and admin tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"axiapac.com/punchclock/app"
	"axiapac.com/punchclock/config"
)

const appName = "punchclock"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Employee attendance punch clock",
		Long: `Punchclock records employee punch ins and outs with a photo and location,
keeps the device session of the logged in employee and exports attendance reports.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(flags),
		seedCmd(flags),
		exportCmd(flags),
		clearCmd(flags),
		migrateCmd(flags),
		loginCmd(flags),
	)
	return cmd
}

// open loads the configuration and builds the application.
func open(ctx context.Context, flags *globalFlags) (*app.App, error) {
	cfg, err := config.Load(ctx, flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return app.New(ctx, cfg, cfg.Logger())
}
