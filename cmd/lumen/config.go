package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lumenapp/lumen/pkg/lumen/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage lumen configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/lumen/config.yaml (if set)
  2. ~/.config/lumen/config.yaml

Environment variables can override config file settings using the LUMEN_ prefix:
  LUMEN_LIBRARY_PATH=~/Photos
  LUMEN_INDEX_REBUILD_DAYS=7`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by $VISUAL, then $EDITOR, then 'vi'.
If the config file doesn't exist, a default one is created first.`,
	RunE: runConfigEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("library:\n")
	fmt.Printf("  path: %s\n", cfg.Library.Path)
	fmt.Printf("  exclude: %v\n", cfg.Library.Exclude)
	fmt.Printf("index:\n")
	fmt.Printf("  rebuild_days: %d\n", cfg.Index.RebuildDays)
	fmt.Printf("  check_interval: %s\n", cfg.Index.CheckInterval)
	fmt.Printf("  query_limit: %d\n", cfg.Index.QueryLimit)
	fmt.Printf("logging:\n")
	fmt.Printf("  level: %s\n", cfg.Logging.Level)
	fmt.Printf("daemon:\n")
	fmt.Printf("  auto_start: %t\n", cfg.Daemon.AutoStart)
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if err := config.WriteDefault(); err != nil {
		return err
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	printInfo("Config file: %s", filepath.Join(dir, "config.yaml"))
	return nil
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	if err := config.WriteDefault(); err != nil {
		return err
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "config.yaml")

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.Command(editor, path) //nolint:gosec // editor comes from the user's environment
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(dir, "config.yaml"))
	return nil
}
