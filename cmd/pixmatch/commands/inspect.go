package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixmatch/pixmatch/cache"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print cache artifact statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}

		c, err := cache.Load(ctx, store, cfg.CachePath)
		if err != nil {
			return err
		}

		total := 0
		minKp, maxKp := -1, 0
		for i := 0; i < c.Len(); i++ {
			n := len(c.At(i).Keypoints)
			total += n
			if minKp < 0 || n < minKp {
				minKp = n
			}
			if n > maxKp {
				maxKp = n
			}
		}

		fmt.Printf("Artifact:  %s\n", cfg.CachePath)
		fmt.Printf("Entries:   %d\n", c.Len())
		fmt.Printf("Keypoints: %d total, %d min, %d max, %.1f avg\n",
			total, minKp, maxKp, float64(total)/float64(c.Len()))
		if verbose {
			for i, id := range c.IDs() {
				fmt.Printf("  [%d] %s: %d keypoints\n", i, id, len(c.At(i).Keypoints))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
