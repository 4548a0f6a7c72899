package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenapp/lumen/pkg/client"
	"github.com/lumenapp/lumen/pkg/daemon"
	"github.com/lumenapp/lumen/pkg/lumen/config"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the lumend daemon",
	Long: `Manage the lumend daemon that maintains the photo index.

The daemon builds the index, keeps it current as the library changes,
and serves queries over a local socket.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the lumend daemon",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the lumend daemon",
	RunE:  runDaemonStop,
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the lumend daemon",
	RunE:  runDaemonRestart,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Trigger a full index rebuild",
	Long:  `Ask the daemon to rebuild the index from scratch. A rebuild already in flight is not interrupted.`,
	RunE:  runRebuild,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonRestartCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(rebuildCmd)
}

func loadDaemonPaths() (client.DaemonPaths, error) {
	cfg, err := config.Load()
	if err != nil {
		return client.DaemonPaths{}, err
	}
	return daemonPaths(cfg), nil
}

func runDaemonStart(_ *cobra.Command, _ []string) error {
	paths, err := loadDaemonPaths()
	if err != nil {
		return err
	}

	printVerbose("starting daemon...")
	if err := client.StartDaemon(paths); err != nil {
		return err
	}
	printInfo("Daemon started")
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	paths, err := loadDaemonPaths()
	if err != nil {
		return err
	}

	if !daemon.IsDaemonRunning(paths.PID) {
		return errors.New("daemon is not running")
	}

	if err := client.StopDaemon(paths); err != nil {
		return err
	}
	printInfo("Daemon stopped")
	return nil
}

func runDaemonRestart(_ *cobra.Command, _ []string) error {
	paths, err := loadDaemonPaths()
	if err != nil {
		return err
	}

	if err := client.RestartDaemon(paths); err != nil {
		return err
	}
	printInfo("Daemon restarted")
	return nil
}

func runRebuild(_ *cobra.Command, _ []string) error {
	c, _, err := connectClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	started, err := c.TriggerRebuild(ctx)
	if err != nil {
		return err
	}
	if started {
		printInfo("Rebuild started")
	} else {
		printInfo("Rebuild already in progress")
	}
	return nil
}
