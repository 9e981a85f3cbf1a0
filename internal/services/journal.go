package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"operator-console/internal/entities"
	"operator-console/internal/events"
	"operator-console/internal/repositories"
	"operator-console/pkg/utils"
)

const statsDays = 30

// DefaultJournalSearchColumns - колонки поиска по журналу, если клиент их не передал.
var DefaultJournalSearchColumns = []string{"client", "account", "msisdn", "phone", "status_call"}

var journalHeaders = []interface{}{
	"ID записи", "Коллекция", "MSISDN", "Телефон", "Клиент", "Лицевой счёт",
	"Статус звонка", "Результат звонка", "Ответ абонента", "Примечание", "Оператор", "Обслужен",
}

type JournalServiceInterface interface {
	// Append записывает сохранённую диспозицию в журнал.
	Append(ctx context.Context, event events.DispositionSavedEvent) (uint64, error)
	List(ctx context.Context, params utils.QueryParams) ([]entities.ServicedCall, uint64, error)
	Stats(ctx context.Context) (*entities.CallStats, error)
	Export(ctx context.Context, params utils.QueryParams, w io.Writer) error
}

type JournalService struct {
	repo   repositories.ServicedCallRepositoryInterface
	now    func() time.Time
	logger *zap.Logger
}

func NewJournalService(repo repositories.ServicedCallRepositoryInterface, logger *zap.Logger) JournalServiceInterface {
	return &JournalService{repo: repo, now: time.Now, logger: logger}
}

func (s *JournalService) Append(ctx context.Context, event events.DispositionSavedEvent) (uint64, error) {
	rec := event.Record
	call := entities.ServicedCall{
		RecordID:      rec.ID(),
		Origin:        event.Origin,
		MSISDN:        rec.String(entities.FieldMSISDN),
		Phone:         rec.String(entities.FieldPhone),
		Client:        rec.String(entities.FieldClient),
		Account:       rec.String(entities.FieldAccount),
		CallStatus:    event.Disposition.CallStatus,
		CallResult:    event.Disposition.CallResult,
		AbonentAnswer: event.Disposition.AbonentAnswer,
		Note:          event.Disposition.Note,
		Operator:      event.Operator,
		ServicedAt:    event.At,
	}
	return s.repo.Create(ctx, call)
}

func (s *JournalService) List(ctx context.Context, params utils.QueryParams) ([]entities.ServicedCall, uint64, error) {
	if params.Search != "" && len(params.Columns) == 0 {
		params.Columns = DefaultJournalSearchColumns
	}
	return s.repo.List(ctx, params)
}

// Stats: сегодня с начала суток, неделя и месяц - скользящие 7 и 30 дней,
// по дням - 30 последних дней включая сегодняшний, пустые дни с нулём.
func (s *JournalService) Stats(ctx context.Context) (*entities.CallStats, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-statsDays * 24 * time.Hour)
	firstDay := today.AddDate(0, 0, -(statsDays - 1))

	stats := &entities.CallStats{}
	var daily []entities.DailyCount

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { stats.Today, err = s.repo.CountSince(gctx, today); return })
	g.Go(func() (err error) { stats.Week, err = s.repo.CountSince(gctx, weekAgo); return })
	g.Go(func() (err error) { stats.Month, err = s.repo.CountSince(gctx, monthAgo); return })
	g.Go(func() (err error) { daily, err = s.repo.Daily(gctx, firstDay); return })
	g.Go(func() (err error) { stats.ByStatus, err = s.repo.GroupCount(gctx, entities.FieldStatusCall, monthAgo); return })
	g.Go(func() (err error) { stats.ByResult, err = s.repo.GroupCount(gctx, entities.FieldCallResult, monthAgo); return })
	g.Go(func() (err error) { stats.ByAnswer, err = s.repo.GroupCount(gctx, entities.FieldAbonentAnswer, monthAgo); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("статистика журнала: %w", err)
	}

	stats.Daily = FillDays(daily, firstDay, statsDays)
	return stats, nil
}

// FillDays раскладывает счётчики по дням начиная с first, дни без звонков получают 0.
func FillDays(counts []entities.DailyCount, first time.Time, days int) []entities.DailyCount {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Day] = c.Count
	}
	out := make([]entities.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i).Format(time.DateOnly)
		out = append(out, entities.DailyCount{Day: day, Count: byDay[day]})
	}
	return out
}

// Export пишет журнал в xlsx. Пагинация из params не применяется.
func (s *JournalService) Export(ctx context.Context, params utils.QueryParams, w io.Writer) error {
	params.Limit, params.Offset = 0, 0
	calls, _, err := s.List(ctx, params)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Обслуженные"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &journalHeaders); err != nil {
		return err
	}
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheet, "A1", "L1", style)

	for i, call := range calls {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			call.RecordID, string(call.Origin), call.MSISDN, call.Phone, call.Client, call.Account,
			call.CallStatus, call.CallResult, call.AbonentAnswer, call.Note, call.Operator,
			call.ServicedAt.Format("02.01.2006 15:04"),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "E", "E", 30)
	_ = f.SetColWidth(sheet, "G", "J", 25)

	s.logger.Info("Журнал выгружен", zap.Int("rows", len(calls)))
	_, err = f.WriteTo(w)
	return err
}
