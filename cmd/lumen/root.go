package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lumenapp/lumen/pkg/client"
	"github.com/lumenapp/lumen/pkg/lumen/config"
)

var rootCmd = &cobra.Command{
	Use:   "lumen",
	Short: "Query your best photos by year, place, and person",
	Long: `Lumen keeps a scored index of your photo library and answers ranked
queries against it.

The lumend daemon maintains the index in the background; lumen talks
to it over a local socket and starts it on demand.

Examples:
  lumen top --year 2023          # Best photos of 2023
  lumen top --place Lisbon -l 5  # Five best photos from Lisbon
  lumen top --person Mara        # Best photos of Mara
  lumen years                    # Years with indexed photos
  lumen status                   # Daemon and index health`,
}

func init() {
	rootCmd.PersistentFlags().BoolP("json", "j", false, "output JSON format")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().Bool("no-daemon-start", false, "fail instead of starting the daemon on demand")

	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_daemon_start", rootCmd.PersistentFlags().Lookup("no-daemon-start"))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// connectClient loads the config, makes sure the daemon is up, and
// connects to it.
func connectClient() (*client.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	paths := daemonPaths(cfg)
	if !viper.GetBool("no_daemon_start") && cfg.Daemon.AutoStart {
		printVerbose("ensuring daemon is running...")
		if err := client.EnsureDaemon(paths); err != nil {
			return nil, nil, fmt.Errorf("start daemon: %w", err)
		}
	}

	c, err := client.Connect(paths.Socket)
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

func daemonPaths(cfg *config.Config) client.DaemonPaths {
	paths := client.DaemonPaths{
		Binary: cfg.Daemon.BinaryPath,
		Socket: cfg.Daemon.SocketPath,
		PID:    cfg.Daemon.PIDPath,
	}
	if paths.Socket == "" {
		paths.Socket = config.DefaultSocketPath()
	}
	if paths.PID == "" {
		paths.PID = config.DefaultPIDPath()
	}
	return paths
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
