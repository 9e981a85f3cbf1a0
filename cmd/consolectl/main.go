// consolectl - служебные команды консоли оператора: миграции, импорт, статистика.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"operator-console/pkg/config"
	"operator-console/pkg/database/postgresql"
	applogger "operator-console/pkg/logger"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "consolectl",
	Short:         "Служебные команды консоли оператора",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.New()
		// в консоль только предупреждения, подробности в файл
		logger = applogger.NewLogger("warn", cfg.Log.File)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, importCmd, statsCmd)
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	return postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		os.Exit(1)
	}
}
