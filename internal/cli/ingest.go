package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noesis-ai/noesis/internal/ingest"
	"github.com/noesis-ai/noesis/internal/util"
	"github.com/noesis-ai/noesis/internal/worker"
)

var ingestFiles []string

var ingestCmd = &cobra.Command{
	Use:   "ingest [url...]",
	Short: "Index documents into the knowledge base",
	Long: `Fetch web pages or read local files, extract their text, and index
the embedded chunks so they become searchable.

Examples:
  noesis ingest https://example.com/doc.html
  noesis ingest --file notes.txt --file report.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && len(ingestFiles) == 0 {
			return fmt.Errorf("nothing to ingest: pass URLs or --file paths")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		deps, err := buildDeps(ctx, cfg)
		if err != nil {
			return err
		}
		defer deps.Close()

		timeout := time.Duration(cfg.Ingest.Timeout) * time.Second
		var robots *util.RobotsChecker
		if cfg.Ingest.RespectRobots {
			robots = util.NewRobotsChecker(cfg.Ingest.UserAgent, timeout)
		}
		fetcher := ingest.NewFetcher(ingest.FetcherOptions{
			Timeout:   timeout,
			UserAgent: cfg.Ingest.UserAgent,
			MaxBytes:  cfg.Ingest.MaxBodyBytes,
			Robots:    robots,
			Limiter:   worker.NewHostLimiter(cfg.Ingest.RatePerHost, 2),
			Cache:     deps.Cache,
			CacheTTL:  time.Duration(cfg.Cache.TTL) * time.Second,
			Logger:    deps.Logger,
		})

		ing := ingest.New(fetcher, deps.Embedder, deps.Store, cfg.Ingest, deps.Logger)

		totalChunks := 0
		if len(args) > 0 {
			report, err := ing.IngestURLs(ctx, args)
			if err != nil {
				return err
			}
			totalChunks += report.Chunks
			for _, failed := range report.Failed {
				fmt.Printf("failed: %s\n", failed)
			}
		}
		for _, path := range ingestFiles {
			report, err := ing.IngestFile(ctx, path)
			if err != nil {
				return err
			}
			totalChunks += report.Chunks
		}

		count, err := deps.Store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("indexed %d chunks (%d total in store)\n", totalChunks, count)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringArrayVar(&ingestFiles, "file", nil, "local file to ingest (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}
