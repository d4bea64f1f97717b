package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixmatch/pixmatch/pipeline"
	"github.com/pixmatch/pixmatch/source"
)

var (
	runRefDir        string
	runQueryDir      string
	runRedis         bool
	runChatID        string
	runKeepUnmatched bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: build, match, report",
	Long: `Build the descriptor cache from the reference set, match every
query in order and report the resulting identifier list.

Directory mode reads references and queries from two directories and
prints the result list. Redis mode reads one chat's exchange keys,
rewrites the CSV image links and sets the blob back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runRefDir != "" {
			cfg.ReferenceDir = runRefDir
		}
		if runQueryDir != "" {
			cfg.QueryDir = runQueryDir
		}
		if cmd.Flags().Changed("keep-unmatched") {
			cfg.KeepUnmatched = runKeepUnmatched
		}
		if runChatID != "" {
			cfg.Redis.ChatID = runChatID
		}

		ctx := cmd.Context()
		logger := newLogger(cfg)
		store, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}

		var (
			src  source.Source
			sink source.Sink
		)
		if runRedis {
			if cfg.Redis.ChatID == "" {
				return fmt.Errorf("redis mode needs a chat id: use --chat-id or set redis.chat_id")
			}
			rs := source.NewRedisSource(newRedisClient(cfg), cfg.Redis.ChatID, cfg.Redis.ImageColumn,
				func(o *source.RedisSourceOptions) {
					o.Logger = logger.Logger
				})
			src, sink = rs, rs
		} else {
			if cfg.ReferenceDir == "" || cfg.QueryDir == "" {
				return fmt.Errorf("directory mode needs --refs and --queries (or reference_dir/query_dir)")
			}
			ds := source.NewDirSource(cfg.ReferenceDir, cfg.QueryDir, func(o *source.DirSourceOptions) {
				o.Logger = logger.Logger
			})
			src, sink = ds, ds
		}

		p := pipeline.New(src, sink, func(o *pipeline.Options) {
			o.KeepUnmatched = cfg.KeepUnmatched
			o.Store = store
			o.ArtifactName = cfg.CachePath
			o.Logger = logger.Logger
			o.Engine = engineOptions(cfg, logger)
		})

		results, err := p.Run(ctx)
		if err != nil {
			return err
		}

		for _, r := range results {
			fmt.Println(r)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runRefDir, "refs", "", "reference image directory")
	runCmd.Flags().StringVar(&runQueryDir, "queries", "", "query image directory")
	runCmd.Flags().BoolVar(&runRedis, "redis", false, "read the Redis chat exchange instead of directories")
	runCmd.Flags().StringVar(&runChatID, "chat-id", "", "chat identifier for redis mode")
	runCmd.Flags().BoolVar(&runKeepUnmatched, "keep-unmatched", false, "keep unmatched queries in the result list")
	rootCmd.AddCommand(runCmd)
}
