package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"operator-console/internal/entities"
	"operator-console/internal/events"
	"operator-console/pkg/utils"
)

type fakeServicedRepo struct {
	calls      []entities.ServicedCall
	lastParams utils.QueryParams
	counts     map[time.Time]int
	daily      []entities.DailyCount
	dailySince time.Time
	groups     map[string]map[string]int
	err        error
}

func (r *fakeServicedRepo) Create(_ context.Context, call entities.ServicedCall) (uint64, error) {
	call.ID = uint64(len(r.calls) + 1)
	r.calls = append(r.calls, call)
	return call.ID, nil
}

func (r *fakeServicedRepo) List(_ context.Context, params utils.QueryParams) ([]entities.ServicedCall, uint64, error) {
	r.lastParams = params
	return r.calls, uint64(len(r.calls)), nil
}

func (r *fakeServicedRepo) CountSince(_ context.Context, since time.Time) (int, error) {
	return r.counts[since], r.err
}

func (r *fakeServicedRepo) Daily(_ context.Context, since time.Time) ([]entities.DailyCount, error) {
	r.dailySince = since
	return r.daily, nil
}

func (r *fakeServicedRepo) GroupCount(_ context.Context, column string, _ time.Time) (map[string]int, error) {
	return r.groups[column], nil
}

func TestJournalAppend(t *testing.T) {
	repo := &fakeServicedRepo{}
	svc := NewJournalService(repo, zap.NewNop())
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	id, err := svc.Append(context.Background(), events.DispositionSavedEvent{
		Record:      entities.Record{"id": "7", "msisdn": "992900", "client": "Иванов"},
		Origin:      entities.OriginSuspends,
		Disposition: entities.Disposition{CallStatus: entities.CallStatusReached, CallResult: "Ответили на вопрос", AbonentAnswer: "Переезд", Note: "перезвонить"},
		Operator:    "ivan",
		At:          at,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	call := repo.calls[0]
	assert.Equal(t, "7", call.RecordID)
	assert.Equal(t, entities.OriginSuspends, call.Origin)
	assert.Equal(t, "992900", call.MSISDN)
	assert.Equal(t, "Переезд", call.AbonentAnswer)
	assert.Equal(t, "ivan", call.Operator)
	assert.Equal(t, at, call.ServicedAt)
}

func TestJournalListDefaultsSearchColumns(t *testing.T) {
	repo := &fakeServicedRepo{}
	svc := NewJournalService(repo, zap.NewNop())

	_, _, err := svc.List(context.Background(), utils.QueryParams{Search: "992"})
	require.NoError(t, err)
	assert.Equal(t, DefaultJournalSearchColumns, repo.lastParams.Columns)

	_, _, err = svc.List(context.Background(), utils.QueryParams{Search: "992", Columns: []string{"phone"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"phone"}, repo.lastParams.Columns)
}

func TestJournalStats(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)
	today := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	repo := &fakeServicedRepo{
		counts: map[time.Time]int{
			today:                         3,
			now.Add(-7 * 24 * time.Hour):  10,
			now.Add(-30 * 24 * time.Hour): 40,
		},
		daily: []entities.DailyCount{{Day: "2026-10-15", Count: 2}, {Day: "2026-10-17", Count: 3}},
		groups: map[string]map[string]int{
			entities.FieldStatusCall: {entities.CallStatusReached: 30, entities.CallStatusNotReached: 10},
		},
	}
	svc := &JournalService{repo: repo, now: func() time.Time { return now }, logger: zap.NewNop()}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Today)
	assert.Equal(t, 10, stats.Week)
	assert.Equal(t, 40, stats.Month)
	assert.Equal(t, 30, stats.ByStatus[entities.CallStatusReached])

	require.Len(t, stats.Daily, 30)
	assert.Equal(t, time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC), repo.dailySince)
	assert.Equal(t, entities.DailyCount{Day: "2026-09-18", Count: 0}, stats.Daily[0])
	assert.Equal(t, entities.DailyCount{Day: "2026-10-15", Count: 2}, stats.Daily[27])
	assert.Equal(t, entities.DailyCount{Day: "2026-10-17", Count: 3}, stats.Daily[29])
}

func TestJournalStatsError(t *testing.T) {
	repo := &fakeServicedRepo{err: errors.New("db down")}
	svc := NewJournalService(repo, zap.NewNop())

	_, err := svc.Stats(context.Background())
	assert.Error(t, err)
}

func TestJournalExport(t *testing.T) {
	repo := &fakeServicedRepo{calls: []entities.ServicedCall{
		{RecordID: "7", Origin: entities.OriginFixeds, Phone: "992900", CallStatus: entities.CallStatusReached, Operator: "ivan",
			ServicedAt: time.Date(2026, 10, 1, 9, 5, 0, 0, time.UTC)},
	}}
	svc := NewJournalService(repo, zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), utils.QueryParams{Limit: 10, Offset: 20}, &buf))
	assert.Zero(t, repo.lastParams.Limit)
	assert.Zero(t, repo.lastParams.Offset)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Обслуженные")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID записи", rows[0][0])
	assert.Equal(t, "7", rows[1][0])
	assert.Equal(t, "fixeds", rows[1][1])
	assert.Equal(t, "01.10.2026 09:05", rows[1][11])
}
