package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/entities"
	"operator-console/internal/repositories"
	"operator-console/pkg/config"
	"operator-console/pkg/utils"
)

const (
	columnsKey    = "visible_columns_v1"
	lastSearchKey = "last_search_v1"

	servicedColumnsKey    = "serviced_columns_v1"
	servicedLastSearchKey = "serviced_last_v1"
	servicedOrdering      = "-fixed_at"

	// lastLoginKey - имя последнего вошедшего оператора, запасной вариант префикса настроек.
	lastLoginKey = "console:last_login"
)

var (
	DefaultColumns      = []string{"msisdn", "branches", "client", "account", "status", "phone", "status_call"}
	SearchFields        = []string{entities.FieldClient, entities.FieldAccount, entities.FieldMSISDN, entities.FieldPhone}
	DefaultSearchFields = []string{entities.FieldPhone}

	ServicedColumns = []string{
		"branches", "rate_plan", "client", "subscription_fee", "msisdn", "phone",
		"status_call", "call_result", "abonent_answer", "note", "called_by", "called_at",
	}
)

// view - набор ключей и значений по умолчанию одного экрана консоли.
type view struct {
	columnsKey    string
	lastSearchKey string
	columns       []string
	fields        []string
	ordering      string
	// minQuery: последний поиск хранится только при q не короче минимума.
	minQuery      bool
}

type PreferencesServiceInterface interface {
	Columns(ctx context.Context) ([]string, error)
	SetColumns(ctx context.Context, columns []string) ([]string, error)
	ResetColumns(ctx context.Context) ([]string, error)
	// SetAllColumns показывает все доступные колонки; без списка - колонки по умолчанию.
	SetAllColumns(ctx context.Context, available []string) ([]string, error)
	ClearColumns(ctx context.Context) error
	// ReconcileColumns оставляет только колонки, которые есть в текущей выдаче, сохраняя порядок.
	ReconcileColumns(ctx context.Context, present []string) ([]string, error)

	SaveSearch(ctx context.Context, state dto.SearchStateDTO) error
	// RestoreSearch: URL, затем сохранённое, затем значения по умолчанию.
	RestoreSearch(ctx context.Context, query url.Values) (dto.SearchStateDTO, error)
	DefaultState() dto.SearchStateDTO
}

type PreferencesService struct {
	cache  repositories.CacheRepositoryInterface
	cfg    config.ConsoleConfig
	view   view
	logger *zap.Logger
}

// NewPreferencesService - настройки рабочего списка.
func NewPreferencesService(cache repositories.CacheRepositoryInterface, cfg config.ConsoleConfig, logger *zap.Logger) PreferencesServiceInterface {
	return &PreferencesService{cache: cache, cfg: cfg, logger: logger, view: view{
		columnsKey:    columnsKey,
		lastSearchKey: lastSearchKey,
		columns:       DefaultColumns,
		fields:        DefaultSearchFields,
		ordering:      cfg.DefaultOrdering,
		minQuery:      true,
	}}
}

// NewServicedPreferencesService - настройки таблицы обслуженных (коллекция fixeds).
func NewServicedPreferencesService(cache repositories.CacheRepositoryInterface, cfg config.ConsoleConfig, logger *zap.Logger) PreferencesServiceInterface {
	return &PreferencesService{cache: cache, cfg: cfg, logger: logger, view: view{
		columnsKey:    servicedColumnsKey,
		lastSearchKey: servicedLastSearchKey,
		columns:       ServicedColumns,
		fields:        SearchFields,
		ordering:      servicedOrdering,
	}}
}

// UserPrefix - пространство ключей настроек пользователя:
// id, затем имя, затем последний вошедший, затем guest.
func UserPrefix(p utils.Principal, lastLogin string) string {
	switch {
	case p.UserID > 0:
		return fmt.Sprintf("cccrm:u:%d", p.UserID)
	case p.Username != "":
		return "cccrm:uname:" + p.Username
	case lastLogin != "":
		return "cccrm:uname:" + lastLogin
	}
	return "cccrm:uname:guest"
}

func (s *PreferencesService) key(ctx context.Context, name string) string {
	p := utils.GetPrincipalFromCtx(ctx)
	var lastLogin string
	if p.UserID <= 0 && p.Username == "" {
		lastLogin, _ = s.cache.Get(ctx, lastLoginKey)
	}
	return UserPrefix(p, lastLogin) + ":" + name
}

func (s *PreferencesService) Columns(ctx context.Context) ([]string, error) {
	raw, err := s.cache.Get(ctx, s.key(ctx, s.view.columnsKey))
	if errors.Is(err, repositories.ErrCacheMiss) {
		return s.SetColumns(ctx, s.view.columns)
	}
	if err != nil {
		return nil, err
	}

	var cols []string
	if err := json.Unmarshal([]byte(raw), &cols); err != nil || len(cols) == 0 {
		return s.SetColumns(ctx, s.view.columns)
	}
	return cols, nil
}

func (s *PreferencesService) SetColumns(ctx context.Context, columns []string) ([]string, error) {
	cols := uniqueNonEmpty(columns)
	raw, err := json.Marshal(cols)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, s.key(ctx, s.view.columnsKey), raw, 0); err != nil {
		return nil, err
	}
	return cols, nil
}

func (s *PreferencesService) ResetColumns(ctx context.Context) ([]string, error) {
	return s.SetColumns(ctx, s.view.columns)
}

func (s *PreferencesService) SetAllColumns(ctx context.Context, available []string) ([]string, error) {
	if len(available) == 0 {
		return s.SetColumns(ctx, s.view.columns)
	}
	return s.SetColumns(ctx, available)
}

// ClearColumns сохраняет пустой список; следующий Columns вернёт колонки по умолчанию.
func (s *PreferencesService) ClearColumns(ctx context.Context) error {
	_, err := s.SetColumns(ctx, nil)
	return err
}

func (s *PreferencesService) ReconcileColumns(ctx context.Context, present []string) ([]string, error) {
	current, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	if len(present) == 0 {
		return current, nil
	}
	kept := make([]string, 0, len(current))
	for _, c := range current {
		if slices.Contains(present, c) {
			kept = append(kept, c)
		}
	}
	if slices.Equal(kept, current) {
		return current, nil
	}
	return s.SetColumns(ctx, kept)
}

func (s *PreferencesService) SaveSearch(ctx context.Context, state dto.SearchStateDTO) error {
	key := s.key(ctx, s.view.lastSearchKey)
	state.Query = strings.TrimSpace(state.Query)
	if s.view.minQuery && len([]rune(state.Query)) < s.cfg.MinQueryLength {
		return s.cache.Del(ctx, key)
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, raw, 0)
}

func (s *PreferencesService) RestoreSearch(ctx context.Context, query url.Values) (dto.SearchStateDTO, error) {
	fromURL := ParseSearchState(query, s.DefaultState())
	if s.urlWins(fromURL, query) {
		return fromURL, nil
	}

	// q из URL не восстанавливается, но поля поиска из URL учитываются
	state := s.DefaultState()
	state.Fields = fromURL.Fields

	raw, err := s.cache.Get(ctx, s.key(ctx, s.view.lastSearchKey))
	if err != nil && !errors.Is(err, repositories.ErrCacheMiss) {
		return state, err
	}
	if err == nil {
		var saved dto.SearchStateDTO
		if jsonErr := json.Unmarshal([]byte(raw), &saved); jsonErr == nil && s.usable(saved) {
			if len(saved.Fields) == 0 {
				saved.Fields = fromURL.Fields
			}
			return s.withDefaults(saved), nil
		}
		s.logger.Debug("Сохранённый поиск пропущен", zap.String("raw", raw))
	}
	return state, nil
}

// urlWins: рабочий список берёт URL при достаточно длинном q,
// таблица обслуженных - при любом q или явной странице.
func (s *PreferencesService) urlWins(fromURL dto.SearchStateDTO, query url.Values) bool {
	if s.view.minQuery {
		return len([]rune(fromURL.Query)) >= s.cfg.MinQueryLength
	}
	return fromURL.Query != "" || query.Get("page") != ""
}

func (s *PreferencesService) usable(saved dto.SearchStateDTO) bool {
	return !s.view.minQuery || len([]rune(saved.Query)) >= s.cfg.MinQueryLength
}

func (s *PreferencesService) DefaultState() dto.SearchStateDTO {
	ordering := s.view.ordering
	if ordering == "" {
		ordering = s.cfg.DefaultOrdering
	}
	return dto.SearchStateDTO{
		Page:     1,
		PageSize: s.cfg.DefaultPageSize,
		Ordering: ordering,
		Fields:   slices.Clone(s.view.fields),
	}
}

func (s *PreferencesService) withDefaults(state dto.SearchStateDTO) dto.SearchStateDTO {
	def := s.DefaultState()
	if state.Page < 1 {
		state.Page = def.Page
	}
	if state.PageSize < 1 {
		state.PageSize = def.PageSize
	}
	if state.Ordering == "" {
		state.Ordering = def.Ordering
	}
	if fields := validSearchFields(state.Fields); len(fields) > 0 {
		state.Fields = fields
	} else {
		state.Fields = def.Fields
	}
	return state
}

// ParseSearchState читает q, by, page, ps, ord; нечисловые page и ps заменяются значениями из def.
func ParseSearchState(query url.Values, def dto.SearchStateDTO) dto.SearchStateDTO {
	state := def
	state.Query = strings.TrimSpace(query.Get("q"))
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		state.Page = p
	}
	if ps, err := strconv.Atoi(query.Get("ps")); err == nil && ps > 0 {
		state.PageSize = ps
	}
	if ord := strings.TrimSpace(query.Get("ord")); ord != "" {
		state.Ordering = ord
	}
	if fields := validSearchFields(SplitFields(query.Get("by"))); len(fields) > 0 {
		state.Fields = fields
	}
	return state
}

// SearchStateValues - обратное преобразование для ссылки на текущий поиск.
func SearchStateValues(state dto.SearchStateDTO) url.Values {
	v := url.Values{}
	v.Set("q", state.Query)
	v.Set("page", strconv.Itoa(state.Page))
	v.Set("ps", strconv.Itoa(state.PageSize))
	v.Set("ord", state.Ordering)
	v.Set("by", strings.Join(state.Fields, ","))
	return v
}

// SplitFields разбирает список полей через запятую: пробелы обрезаются, пустые и повторы отбрасываются.
func SplitFields(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return uniqueNonEmpty(strings.Split(raw, ","))
}

func validSearchFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if slices.Contains(SearchFields, f) && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func uniqueNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
