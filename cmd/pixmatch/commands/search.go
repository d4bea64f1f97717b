package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixmatch/pixmatch"
)

var searchCmd = &cobra.Command{
	Use:   "search <image>",
	Short: "Match one query image against the built cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		logger := newLogger(cfg)
		store, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}

		eng, err := pixmatch.Open(ctx, store, cfg.CachePath, engineOptions(cfg, logger)...)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		m, found, err := eng.FindMatch(ctx, data)
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("No match.")
			return nil
		}
		fmt.Printf("Match: %s (%d inliers)\n", m.Ref, m.Inliers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
