package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List years with indexed photos, newest first",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runBrowse(func(ctx context.Context) (any, []string, error) {
			c, _, err := connectClient()
			if err != nil {
				return nil, nil, err
			}
			defer c.Close()

			years, err := c.Years(ctx)
			if err != nil {
				return nil, nil, err
			}
			names := make([]string, 0, len(years))
			for _, y := range years {
				names = append(names, fmt.Sprintf("%d", y))
			}
			return years, names, nil
		})
	},
}

var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "List place groupings with photos",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runBrowse(func(ctx context.Context) (any, []string, error) {
			c, _, err := connectClient()
			if err != nil {
				return nil, nil, err
			}
			defer c.Close()

			names, err := c.Places(ctx)
			return names, names, err
		})
	},
}

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List person groupings with photos",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runBrowse(func(ctx context.Context) (any, []string, error) {
			c, _, err := connectClient()
			if err != nil {
				return nil, nil, err
			}
			defer c.Close()

			names, err := c.People(ctx)
			return names, names, err
		})
	},
}

func init() {
	rootCmd.AddCommand(yearsCmd)
	rootCmd.AddCommand(placesCmd)
	rootCmd.AddCommand(peopleCmd)
}

// runBrowse runs one list query and prints it as lines or JSON.
func runBrowse(fetch func(context.Context) (any, []string, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	raw, names, err := fetch(ctx)
	if err != nil {
		return err
	}

	if viper.GetBool("json") {
		return json.NewEncoder(os.Stdout).Encode(raw)
	}

	if len(names) == 0 {
		printInfo("Nothing indexed yet")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
