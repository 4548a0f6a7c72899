package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lumenapp/lumen/pkg/api"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the best photos for a year, place, or person",
	Long: `Query the index for the highest scored photos along one dimension.

Exactly one of --year, --place, or --person must be given.

Examples:
  lumen top --year 2023
  lumen top --place Lisbon --limit 5
  lumen top --person Mara`,
	RunE: runTop,
}

func init() {
	topCmd.Flags().Int("year", 0, "creation year to query")
	topCmd.Flags().String("place", "", "place grouping to query")
	topCmd.Flags().String("person", "", "person grouping to query")
	topCmd.Flags().IntP("limit", "l", 0, "maximum results (default 10)")
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, _ []string) error {
	year, _ := cmd.Flags().GetInt("year")
	place, _ := cmd.Flags().GetString("place")
	person, _ := cmd.Flags().GetString("person")
	limit, _ := cmd.Flags().GetInt("limit")

	selectors := 0
	if year != 0 {
		selectors++
	}
	if place != "" {
		selectors++
	}
	if person != "" {
		selectors++
	}
	if selectors != 1 {
		return errors.New("exactly one of --year, --place, --person is required")
	}

	c, _, err := connectClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var items []api.Item
	switch {
	case year != 0:
		items, err = c.TopForYear(ctx, year, limit)
	case place != "":
		items, err = c.TopForPlace(ctx, place, limit)
	default:
		items, err = c.TopForPerson(ctx, person, limit)
	}
	if err != nil {
		return err
	}

	if viper.GetBool("json") {
		return json.NewEncoder(os.Stdout).Encode(items)
	}

	if len(items) == 0 {
		printInfo("No photos found")
		return nil
	}

	for i, item := range items {
		fmt.Printf("%2d. %s  (score %d, %s)\n",
			i+1, item.ID, item.Score, item.Asset.CreatedAt.Format("2006-01-02"))
	}
	return nil
}
