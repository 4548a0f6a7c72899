package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and index status",
	Long:  `Show the lumend daemon state, index size, and when the index was last built.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	c, _, err := connectClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := c.Status(ctx)
	if err != nil {
		return err
	}

	if viper.GetBool("json") {
		return json.NewEncoder(os.Stdout).Encode(status)
	}

	printInfo("State:    %s", status.State)
	printInfo("Entries:  %s", humanize.Comma(int64(status.Entries)))
	if status.BuiltAt.IsZero() {
		printInfo("Built:    never (restored or building)")
	} else {
		printInfo("Built:    %s (%s)", status.BuiltAt.Format(time.RFC3339), humanize.Time(status.BuiltAt))
	}
	printInfo("Uptime:   %s", (time.Duration(status.UptimeSeconds) * time.Second).String())
	printInfo("Memory:   %s", humanize.Bytes(uint64(status.MemoryBytes))) //nolint:gosec // alloc is non-negative
	return nil
}
