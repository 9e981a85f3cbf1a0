package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"operator-console/internal/entities"
	db "operator-console/internal/infrastructure/bd"
	"operator-console/pkg/utils"
)

const (
	importedRecordTable = "imported_records"
	insertChunk         = 500
)

type ImportedRecordRepositoryInterface interface {
	// Replace заменяет весь импортированный набор новым.
	Replace(ctx context.Context, batchID string, records []entities.Record) (int, error)
	List(ctx context.Context, params utils.QueryParams) ([]entities.ImportedRecord, uint64, error)
	Clear(ctx context.Context) error
}

type ImportedRecordRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewImportedRecordRepository(pool *pgxpool.Pool, logger *zap.Logger) ImportedRecordRepositoryInterface {
	return &ImportedRecordRepository{pool: pool, logger: logger}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *ImportedRecordRepository) Replace(ctx context.Context, batchID string, records []entities.Record) (int, error) {
	err := WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM "+importedRecordTable); err != nil {
			return fmt.Errorf("очистка импортированных записей: %w", err)
		}
		for start := 0; start < len(records); start += insertChunk {
			end := min(start+insertChunk, len(records))
			if err := r.insert(ctx, tx, batchID, start, records[start:end]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logger.Info("Импортированный набор заменён", zap.String("batch", batchID), zap.Int("rows", len(records)))
	return len(records), nil
}

func (r *ImportedRecordRepository) insert(ctx context.Context, q querier, batchID string, offset int, chunk []entities.Record) error {
	builder := psql.Insert(importedRecordTable).Columns("batch_id", "row_index", "data")
	for i, rec := range chunk {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("сериализация строки %d: %w", offset+i+1, err)
		}
		builder = builder.Values(batchID, offset+i, raw)
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("вставка импортированных записей: %w", err)
	}
	return nil
}

// columnMap строит выражения data->>'col' для запрошенных колонок.
// Имена колонок приходят из заголовков файла, поэтому экранируются как литералы.
func columnMap(columns []string) map[string]string {
	out := make(map[string]string, len(columns))
	for _, col := range columns {
		out[col] = "data->>'" + strings.ReplaceAll(col, "'", "''") + "'"
	}
	return out
}

func (r *ImportedRecordRepository) List(ctx context.Context, params utils.QueryParams) ([]entities.ImportedRecord, uint64, error) {
	if len(params.Columns) == 0 {
		// без выбранных колонок ищем по всей строке
		params.Columns = []string{"*"}
	}
	allowed := columnMap(params.Columns)
	if _, ok := allowed["*"]; ok {
		allowed["*"] = "data::text"
	}
	allowed["row_index"] = "row_index"
	if params.SortBy == "" {
		params.SortBy, params.SortOrder = "row_index", "asc"
	}

	countQ := db.ApplySearch(psql.Select("count(*)").From(importedRecordTable), params, allowed)
	sql, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт импортированных записей: %w", err)
	}

	listQ := db.ApplyListParams(
		psql.Select("id", "batch_id", "row_index", "data", "imported_at").From(importedRecordTable),
		params, allowed,
	)
	sql, args, err = listQ.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка импортированных записей: %w", err)
	}
	defer rows.Close()

	out := make([]entities.ImportedRecord, 0)
	for rows.Next() {
		var item entities.ImportedRecord
		var raw []byte
		if err := rows.Scan(&item.ID, &item.BatchID, &item.RowIndex, &raw, &item.Imported); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(raw, &item.Data); err != nil {
			return nil, 0, fmt.Errorf("разбор строки %d: %w", item.RowIndex, err)
		}
		out = append(out, item)
	}
	return out, total, rows.Err()
}

func (r *ImportedRecordRepository) Clear(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM "+importedRecordTable)
	return err
}
