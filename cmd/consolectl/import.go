package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/repositories"
	"operator-console/internal/services"
)

var importBatchTag string

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Загрузить выгрузку абонентов в локальную базу",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		var cache repositories.CacheRepositoryInterface
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis недоступен, резервная копия останется только в памяти", zap.Error(err))
			cache = repositories.NewMemoryCacheRepository()
		} else {
			cache = repositories.NewRedisCacheRepository(redisClient)
		}

		importer := services.NewImporterService(
			repositories.NewImportedRecordRepository(pool, logger),
			cache, nil, nil, cfg.Console, logger,
		)
		res, err := importer.Import(ctx, filepath.Base(args[0]), info.Size(), f, dto.ImportOptionsDTO{BatchTag: importBatchTag})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Пакет %s: %d строк, колонки: %v\n", res.BatchID, res.Rows, res.Columns)
		for _, w := range res.Warnings {
			fmt.Fprintln(out, "Предупреждение:", w)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importBatchTag, "batch-tag", "", "метка пакета")
}
