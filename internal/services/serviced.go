package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/entities"
	"operator-console/internal/integrations"
	bdto "operator-console/internal/integrations/dto"
)

// ServicedServiceInterface - таблица обслуженных абонентов: постраничный просмотр коллекции fixeds.
type ServicedServiceInterface interface {
	List(ctx context.Context, state dto.SearchStateDTO) (*dto.SearchResultDTO, error)
}

type ServicedService struct {
	fixeds      integrations.Collection
	preferences PreferencesServiceInterface
	logger      *zap.Logger
}

func NewServicedService(registry integrations.RegistryInterface, preferences PreferencesServiceInterface, logger *zap.Logger) (ServicedServiceInterface, error) {
	fixeds, err := registry.Get(entities.OriginFixeds)
	if err != nil {
		return nil, err
	}
	return &ServicedService{fixeds: fixeds, preferences: preferences, logger: logger}, nil
}

// List не требует минимальной длины запроса: без q отдаётся вся коллекция постранично.
// Поля поиска передаются бэкенду только вместе с q.
func (s *ServicedService) List(ctx context.Context, state dto.SearchStateDTO) (*dto.SearchResultDTO, error) {
	def := s.preferences.DefaultState()
	state.Query = strings.TrimSpace(state.Query)
	if state.Page < 1 {
		state.Page = def.Page
	}
	if state.PageSize < 1 {
		state.PageSize = def.PageSize
	}
	if state.Ordering == "" {
		state.Ordering = def.Ordering
	}
	if len(state.Fields) == 0 {
		state.Fields = def.Fields
	}

	params := bdto.ListParams{Page: state.Page, PageSize: state.PageSize, Ordering: state.Ordering}
	if state.Query != "" {
		params.Query = state.Query
		params.Fields = state.Fields
	}

	page, err := s.fixeds.List(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := s.preferences.SaveSearch(ctx, state); err != nil {
		s.logger.Warn("Не удалось запомнить поиск по обслуженным", zap.Error(err))
	}

	// карточка открывается с подсказкой src=fixeds
	return &dto.SearchResultDTO{
		Records: tagOrigin(page.Results, entities.OriginFixeds),
		Total:   page.Count,
	}, nil
}
