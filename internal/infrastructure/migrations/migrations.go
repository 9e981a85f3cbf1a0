package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var files embed.FS

// Up применяет все новые миграции локального состояния.
func Up(ctx context.Context, pool *pgxpool.Pool) error {
	return run(ctx, pool, func(p *goose.Provider) error {
		_, err := p.Up(ctx)
		return err
	})
}

// Down откатывает последнюю миграцию.
func Down(ctx context.Context, pool *pgxpool.Pool) error {
	return run(ctx, pool, func(p *goose.Provider) error {
		_, err := p.Down(ctx)
		return err
	})
}

// Status возвращает пары "версия - применена ли".
func Status(ctx context.Context, pool *pgxpool.Pool) (map[int64]bool, error) {
	out := map[int64]bool{}
	err := run(ctx, pool, func(p *goose.Provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			out[s.Source.Version] = s.State == goose.StateApplied
		}
		return nil
	})
	return out, err
}

func run(_ context.Context, pool *pgxpool.Pool, fn func(p *goose.Provider) error) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	sqlFiles, err := fs.Sub(files, "sql")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, sqlFiles)
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	if err := fn(provider); err != nil {
		return fmt.Errorf("миграции: %w", err)
	}
	return nil
}
