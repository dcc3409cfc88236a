package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/artpar/brushkit/bootstrap"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brushkit",
	Short: "Brush channel presets, inheritance and stroke command lists",
	Long: `brushkit stores brush presets as typed channel sets, resolves them
through the tool and brush inheritance chain, and builds the stroke
command list a tool runs for each dab.

Quick start:
  brushkit channels list             # Show the channel registry
  brushkit presets import clay.yaml  # Store a preset document
  brushkit resolve "Clay Brush"      # Print the resolved channels
  brushkit serve                     # Start the HTTP API`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "brushkit.yaml", "config file path")
}

// openApp builds the application. A missing config file falls back to
// BRUSHKIT_* environment variables.
func openApp(logOut io.Writer) (*bootstrap.App, error) {
	path := cfgFile
	if _, err := os.Stat(path); err != nil {
		path = ""
	}
	a, err := bootstrap.New(bootstrap.Options{ConfigPath: path, Version: version, LogOutput: logOut})
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return a, nil
}

// withApp runs fn against a freshly opened application and shuts it down.
// Logs go to stderr so command output stays clean.
func withApp(fn func(ctx context.Context, a *bootstrap.App) error) error {
	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Shutdown()
	return fn(context.Background(), a)
}
