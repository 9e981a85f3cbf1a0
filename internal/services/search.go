package services

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"operator-console/internal/dto"
	"operator-console/internal/entities"
	"operator-console/internal/integrations"
	bdto "operator-console/internal/integrations/dto"
	"operator-console/internal/repositories"
	"operator-console/pkg/config"
	"operator-console/pkg/utils"
)

const (
	staleFlagKey        = "stale"
	searchGenerationKey = "search_gen"
)

type SearchServiceInterface interface {
	Search(ctx context.Context, query dto.SearchQueryDTO) (*dto.SearchResultDTO, error)
	// ConsumeStale возвращает и сбрасывает флаг "список устарел".
	ConsumeStale(ctx context.Context) (bool, error)
}

type SearchService struct {
	searcher integrations.Searcher
	suspends integrations.Collection
	fixeds   integrations.Collection
	cache    repositories.CacheRepositoryInterface
	cfg      config.ConsoleConfig
	logger   *zap.Logger
}

func NewSearchService(
	searcher integrations.Searcher,
	registry integrations.RegistryInterface,
	cache repositories.CacheRepositoryInterface,
	cfg config.ConsoleConfig,
	logger *zap.Logger,
) (SearchServiceInterface, error) {
	suspends, err := registry.Get(entities.OriginSuspends)
	if err != nil {
		return nil, err
	}
	fixeds, err := registry.Get(entities.OriginFixeds)
	if err != nil {
		return nil, err
	}
	return &SearchService{
		searcher: searcher,
		suspends: suspends,
		fixeds:   fixeds,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (s *SearchService) Search(ctx context.Context, query dto.SearchQueryDTO) (*dto.SearchResultDTO, error) {
	params := s.params(query)
	if len([]rune(params.Query)) < s.cfg.MinQueryLength || len(params.Fields) == 0 {
		return &dto.SearchResultDTO{Records: []entities.Record{}}, nil
	}

	generation := s.nextGeneration(ctx)

	result, err := s.search(ctx, params)
	if err != nil {
		return nil, err
	}

	if generation > 0 {
		if current, ok := s.currentGeneration(ctx); ok && current != generation {
			result.Superseded = true
		}
	}
	return result, nil
}

func (s *SearchService) params(query dto.SearchQueryDTO) bdto.ListParams {
	params := bdto.ListParams{
		Query:    strings.TrimSpace(query.Query),
		Fields:   query.Fields,
		Page:     query.Page,
		PageSize: query.PageSize,
		Ordering: query.Ordering,
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = s.cfg.DefaultPageSize
	}
	if params.Ordering == "" {
		params.Ordering = s.cfg.DefaultOrdering
	}
	return params
}

// search - сначала /search-all/, при 404 или 500 - слияние suspends и fixeds.
func (s *SearchService) search(ctx context.Context, params bdto.ListParams) (*dto.SearchResultDTO, error) {
	page, err := s.searcher.SearchAll(ctx, params)
	if err == nil {
		return &dto.SearchResultDTO{Records: page.Results, Total: page.Count}, nil
	}

	status := integrations.StatusOf(err)
	if status != http.StatusNotFound && status != http.StatusInternalServerError {
		return nil, err
	}
	s.logger.Info("search-all недоступен, ищем по коллекциям", zap.Int("status", status))

	var suspended, fixed *bdto.Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.suspends.List(gctx, params)
		suspended = p
		return err
	})
	g.Go(func() error {
		p, err := s.fixeds.List(gctx, params)
		fixed = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]entities.Record, 0, len(suspended.Results)+len(fixed.Results))
	records = append(records, tagOrigin(suspended.Results, entities.OriginSuspends)...)
	records = append(records, tagOrigin(fixed.Results, entities.OriginFixeds)...)
	SortRecords(records, params.Ordering)

	return &dto.SearchResultDTO{
		Records:  records,
		Total:    suspended.Count + fixed.Count,
		Fallback: true,
	}, nil
}

func tagOrigin(records []entities.Record, origin entities.Origin) []entities.Record {
	for _, r := range records {
		r[entities.FieldSource] = string(origin)
	}
	return records
}

// SortRecords сортирует по ключу ordering ("-" в начале - по убыванию).
// Значения сравниваются как строки, отсутствующее поле - пустая строка.
func SortRecords(records []entities.Record, ordering string) {
	key := strings.TrimPrefix(ordering, "-")
	if key == "" {
		return
	}
	desc := strings.HasPrefix(ordering, "-")
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].String(key), records[j].String(key)
		if desc {
			return a > b
		}
		return a < b
	})
}

// nextGeneration возвращает 0, если фенсинг недоступен (нет сессии или кеша).
func (s *SearchService) nextGeneration(ctx context.Context) int64 {
	sid, err := utils.GetSessionIDFromCtx(ctx)
	if err != nil {
		return 0
	}
	key := repositories.SessionKey(sid, searchGenerationKey)
	gen, err := s.cache.Incr(ctx, key)
	if err != nil {
		s.logger.Warn("Не удалось получить номер поиска", zap.Error(err))
		return 0
	}
	if s.cfg.SessionTTL > 0 {
		_, _ = s.cache.Expire(ctx, key, s.cfg.SessionTTL)
	}
	return gen
}

func (s *SearchService) currentGeneration(ctx context.Context) (int64, bool) {
	sid, err := utils.GetSessionIDFromCtx(ctx)
	if err != nil {
		return 0, false
	}
	raw, err := s.cache.Get(ctx, repositories.SessionKey(sid, searchGenerationKey))
	if err != nil {
		return 0, false
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	return gen, err == nil
}

func (s *SearchService) ConsumeStale(ctx context.Context) (bool, error) {
	sid, err := utils.GetSessionIDFromCtx(ctx)
	if err != nil {
		return false, err
	}
	_, err = s.cache.GetDel(ctx, repositories.SessionKey(sid, staleFlagKey))
	if errors.Is(err, repositories.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
