package cmd

import (
	"context"
	"log"

	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/retrieval"
	"github.com/spigell/interviewer/internal/retrieval/blevestore"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index lecture transcripts into the knowledge store",
	Run: func(cmd *cobra.Command, _ []string) {
		ingest(cmd)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("dir", "D", "transcripts", "directory with .txt lecture transcripts")
	ingestCmd.Flags().IntP("chunk-size", "c", retrieval.DefaultChunkSize, "chunk size in characters")
	ingestCmd.Flags().StringP("index-path", "i", "", "knowledge index location (default is knowledge.bleve)")

	viper.BindPFlag("knowledge.index-path", ingestCmd.Flags().Lookup("index-path"))
}

func ingest(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	dir, _ := cmd.Flags().GetString("dir")
	size, _ := cmd.Flags().GetInt("chunk-size")

	chunks, err := retrieval.LoadCorpus(dir, size)
	if err != nil {
		logger.Fatal("loading transcripts", zap.Error(err))
	}

	if len(chunks) == 0 {
		logger.Info("exiting", zap.String("reason", "no transcripts found"), zap.String("dir", dir))
		return
	}

	logger.Info("loaded transcripts", zap.String("dir", dir), zap.Int("chunks", len(chunks)))

	store, err := blevestore.Open(config.Knowledge.IndexPath)
	if err != nil {
		logger.Fatal("opening knowledge index", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing knowledge index", zap.Error(err))
		}
	}()

	if err := store.Index(ctx, chunks); err != nil {
		logger.Error("indexing transcripts", zap.Error(err))
		return
	}

	count, err := store.Count()
	if err != nil {
		logger.Warn("counting indexed documents", zap.Error(err))
	}

	logger.Info("knowledge index updated",
		zap.String("index_path", config.Knowledge.IndexPath),
		zap.Uint64("documents", count),
	)
}
