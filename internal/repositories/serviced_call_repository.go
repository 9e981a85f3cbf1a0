package repositories

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"operator-console/internal/entities"
	db "operator-console/internal/infrastructure/bd"
	"operator-console/pkg/utils"
)

const servicedCallTable = "serviced_calls"

var servicedCallColumns = []string{
	"id", "record_id", "origin", "msisdn", "phone", "client", "account",
	"call_status", "call_result", "abonent_answer", "note", "operator", "serviced_at",
}

// servicedCallAllowed - колонки для поиска и сортировки (имена как в JSON).
var servicedCallAllowed = map[string]string{
	"record_id":      "record_id",
	"origin":         "origin",
	"msisdn":         "msisdn",
	"phone":          "phone",
	"client":         "client",
	"account":        "account",
	"status_call":    "call_status",
	"call_result":    "call_result",
	"abonent_answer": "abonent_answer",
	"note":           "note",
	"operator":       "operator",
	"serviced_at":    "serviced_at",
}

type ServicedCallRepositoryInterface interface {
	Create(ctx context.Context, call entities.ServicedCall) (uint64, error)
	List(ctx context.Context, params utils.QueryParams) ([]entities.ServicedCall, uint64, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	Daily(ctx context.Context, since time.Time) ([]entities.DailyCount, error)
	// GroupCount считает записи с since по значениям колонки (status_call, call_result, abonent_answer).
	GroupCount(ctx context.Context, column string, since time.Time) (map[string]int, error)
}

type ServicedCallRepository struct {
	pool *pgxpool.Pool
}

func NewServicedCallRepository(pool *pgxpool.Pool) ServicedCallRepositoryInterface {
	return &ServicedCallRepository{pool: pool}
}

func (r *ServicedCallRepository) Create(ctx context.Context, call entities.ServicedCall) (uint64, error) {
	if call.ServicedAt.IsZero() {
		call.ServicedAt = time.Now()
	}
	sql, args, err := psql.Insert(servicedCallTable).
		Columns(servicedCallColumns[1:]...).
		Values(call.RecordID, string(call.Origin), call.MSISDN, call.Phone, call.Client, call.Account,
			call.CallStatus, call.CallResult, call.AbonentAnswer, call.Note, call.Operator, call.ServicedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}
	var id uint64
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("запись в журнал: %w", err)
	}
	return id, nil
}

func (r *ServicedCallRepository) List(ctx context.Context, params utils.QueryParams) ([]entities.ServicedCall, uint64, error) {
	if params.SortBy == "" {
		params.SortBy, params.SortOrder = "serviced_at", "desc"
	}

	sql, args, err := db.ApplySearch(psql.Select("count(*)").From(servicedCallTable), params, servicedCallAllowed).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт журнала: %w", err)
	}

	sql, args, err = db.ApplyListParams(psql.Select(servicedCallColumns...).From(servicedCallTable), params, servicedCallAllowed).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка журнала: %w", err)
	}
	calls, err := pgx.CollectRows(rows, pgx.RowToStructByName[entities.ServicedCall])
	if err != nil {
		return nil, 0, err
	}
	return calls, total, nil
}

func (r *ServicedCallRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	sql, args, err := psql.Select("count(*)").From(servicedCallTable).
		Where(sq.GtOrEq{"serviced_at": since}).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.pool.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}

// Daily считает звонки по дням в часовом поясе since, а не в поясе сессии БД.
func (r *ServicedCallRepository) Daily(ctx context.Context, since time.Time) ([]entities.DailyCount, error) {
	sql, args, err := psql.Select("serviced_at").From(servicedCallTable).
		Where(sq.GtOrEq{"serviced_at": since}).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	times, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, err
	}
	return CountByDay(times, since.Location()), nil
}

// CountByDay группирует моменты по календарным дням в loc, дни по возрастанию.
func CountByDay(times []time.Time, loc *time.Location) []entities.DailyCount {
	byDay := make(map[string]int)
	for _, t := range times {
		byDay[t.In(loc).Format(time.DateOnly)]++
	}
	out := make([]entities.DailyCount, 0, len(byDay))
	for day, n := range byDay {
		out = append(out, entities.DailyCount{Day: day, Count: n})
	}
	slices.SortFunc(out, func(a, b entities.DailyCount) int { return strings.Compare(a.Day, b.Day) })
	return out
}

func (r *ServicedCallRepository) GroupCount(ctx context.Context, column string, since time.Time) (map[string]int, error) {
	dbCol, ok := servicedCallAllowed[column]
	if !ok {
		return nil, fmt.Errorf("группировка по '%s' не поддерживается", column)
	}
	sql, args, err := psql.Select(dbCol, "count(*)").From(servicedCallTable).
		Where(sq.GtOrEq{"serviced_at": since}).
		GroupBy(dbCol).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
