package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixmatch/pixmatch"
	"github.com/pixmatch/pixmatch/source"
)

var buildRefDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the descriptor cache from a reference directory",
	Long: `Scan the reference directory, extract features from every valid
image and write the descriptor cache artifact. Invalid images are
skipped with a warning; an empty reference directory fails the build.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if buildRefDir != "" {
			cfg.ReferenceDir = buildRefDir
		}
		if cfg.ReferenceDir == "" {
			return fmt.Errorf("no reference directory: use --refs or set reference_dir")
		}

		ctx := cmd.Context()
		logger := newLogger(cfg)
		store, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}

		src := source.NewDirSource(cfg.ReferenceDir, "", func(o *source.DirSourceOptions) {
			o.Logger = logger.Logger
		})
		refs, err := src.References(ctx)
		if err != nil {
			return err
		}

		if err := pixmatch.Build(ctx, store, cfg.CachePath, refs, engineOptions(cfg, logger)...); err != nil {
			return err
		}

		fmt.Printf("Cache built: %d reference images -> %s\n", len(refs), cfg.CachePath)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildRefDir, "refs", "", "reference image directory")
	rootCmd.AddCommand(buildCmd)
}
