package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/entities"
	"operator-console/internal/events"
	"operator-console/internal/integrations"
	"operator-console/internal/repositories"
	apperrors "operator-console/pkg/errors"
	"operator-console/pkg/eventbus"
	"operator-console/pkg/utils"
)

var (
	ErrRecordNotFound = fmt.Errorf("запись не найдена ни в одной коллекции: %w", apperrors.ErrNotFound)
	ErrReadOnlyCard   = apperrors.NewHttpError(http.StatusConflict, "Карточка открыта только для просмотра", nil, nil)
)

// EventPublisher - то, что нужно карточке от шины событий.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type CardServiceInterface interface {
	Resolve(ctx context.Context, id string, hint entities.Origin) (*dto.CardDTO, error)
	// Save фиксирует диспозицию. Повторный вызов для той же карточки, пока идёт
	// сохранение или не истекла пауза после него, ничего не отправляет и возвращает Skipped.
	Save(ctx context.Context, card *dto.CardDTO, disposition entities.Disposition) (*dto.SaveResultDTO, error)
}

type CardService struct {
	registry integrations.RegistryInterface
	cache    repositories.CacheRepositoryInterface
	bus      EventPublisher
	guard    *saveGuard
	ttl      time.Duration
	logger   *zap.Logger
}

func NewCardService(
	registry integrations.RegistryInterface,
	cache repositories.CacheRepositoryInterface,
	bus EventPublisher,
	cooldown time.Duration,
	sessionTTL time.Duration,
	logger *zap.Logger,
) CardServiceInterface {
	return &CardService{
		registry: registry,
		cache:    cache,
		bus:      bus,
		guard:    newSaveGuard(cooldown),
		ttl:      sessionTTL,
		logger:   logger,
	}
}

// priority - подсказка первой, затем остальные в порядке по умолчанию.
func priority(hint entities.Origin) []entities.Origin {
	if !hint.Valid() {
		return entities.Origins
	}
	out := []entities.Origin{hint}
	for _, o := range entities.Origins {
		if o != hint {
			out = append(out, o)
		}
	}
	return out
}

func (s *CardService) Resolve(ctx context.Context, id string, hint entities.Origin) (*dto.CardDTO, error) {
	var lastErr error
	for _, origin := range priority(hint) {
		coll, err := s.registry.Get(origin)
		if err != nil {
			return nil, err
		}

		rec, err := coll.Retrieve(ctx, id)
		if err != nil {
			if integrations.IsNotFound(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		if rec == nil {
			lastErr = fmt.Errorf("пустой ответ %s", origin)
			continue
		}

		return buildCard(rec, origin), nil
	}

	if lastErr == nil {
		return nil, ErrRecordNotFound
	}
	return nil, fmt.Errorf("%w: %w", ErrRecordNotFound, lastErr)
}

func buildCard(rec entities.Record, origin entities.Origin) *dto.CardDTO {
	rec = rec.Clone()
	rec[entities.FieldSource] = string(origin)
	if origin == entities.OriginFixeds {
		rec[entities.FieldCalledBy] = rec.String(entities.FieldFixedByLabel)
		rec[entities.FieldCalledAt] = rec[entities.FieldFixedAt]
	}

	current := entities.DispositionFromRecord(rec)
	return &dto.CardDTO{
		Record: rec,
		Origin: origin,
		Mode:   ModeFor(origin, current.CallStatus),
		Options: dto.OptionsDTO{
			CallStatuses:   entities.OptionsWith(entities.CallStatuses, current.CallStatus),
			CallResults:    entities.OptionsWith(entities.CallResults, current.CallResult),
			AbonentAnswers: entities.OptionsWith(entities.AbonentAnswers, current.AbonentAnswer),
		},
	}
}

// ModeFor: suspends всегда редактируется, fixeds - только после недозвона.
func ModeFor(origin entities.Origin, callStatus string) entities.CardMode {
	switch {
	case origin == entities.OriginSuspends:
		return entities.ModeEdit
	case origin == entities.OriginFixeds && callStatus == entities.CallStatusNotReached:
		return entities.ModeEdit
	}
	return entities.ModeView
}

func (s *CardService) Save(ctx context.Context, card *dto.CardDTO, disposition entities.Disposition) (*dto.SaveResultDTO, error) {
	if card.Mode != entities.ModeEdit {
		return nil, ErrReadOnlyCard
	}

	id := card.Record.ID()
	key := string(card.Origin) + ":" + id
	if !s.guard.acquire(key) {
		s.logger.Debug("Повторное сохранение карточки пропущено", zap.String("card", key))
		return &dto.SaveResultDTO{Skipped: true}, nil
	}
	defer s.guard.release(key)

	coll, err := s.registry.Get(card.Origin)
	if err != nil {
		return nil, err
	}

	payload := savePayload(disposition)
	var saved entities.Record
	if card.Origin == entities.OriginFixeds {
		saved, err = coll.Update(ctx, id, payload, true)
	} else {
		saved, err = coll.Fixation(ctx, id, payload)
	}
	if err != nil {
		s.logger.Warn("Ошибка сохранения карточки", zap.String("card", key), zap.Error(err))
		return nil, err
	}

	if saved == nil {
		saved = card.Record.Clone()
		for k, v := range payload {
			saved[k] = v
		}
	}

	s.markStale(ctx)

	principal := utils.GetPrincipalFromCtx(ctx)
	s.bus.Publish(ctx, events.DispositionSavedEvent{
		Record:      saved,
		Origin:      card.Origin,
		Disposition: entities.DispositionFromRecord(entities.Record(payload)),
		Operator:    principal.Username,
		At:          time.Now(),
	})

	s.logger.Info("Диспозиция сохранена", zap.String("card", key), zap.String("operator", principal.Username))
	return &dto.SaveResultDTO{Record: saved}, nil
}

// markStale поднимает флаг "список устарел" для сессии; ошибка кеша не отменяет сохранение.
func (s *CardService) markStale(ctx context.Context) {
	sid, err := utils.GetSessionIDFromCtx(ctx)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, repositories.SessionKey(sid, staleFlagKey), "1", s.ttl); err != nil {
		s.logger.Warn("Не удалось отметить список как устаревший", zap.Error(err))
	}
}

// saveGuard - блокировка на карточку с паузой после завершения сохранения.
type saveGuard struct {
	mu       sync.Mutex
	locked   map[string]struct{}
	cooldown time.Duration
}

func newSaveGuard(cooldown time.Duration) *saveGuard {
	return &saveGuard{locked: make(map[string]struct{}), cooldown: cooldown}
}

func (g *saveGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.locked[key]; busy {
		return false
	}
	g.locked[key] = struct{}{}
	return true
}

func (g *saveGuard) release(key string) {
	unlock := func() {
		g.mu.Lock()
		delete(g.locked, key)
		g.mu.Unlock()
	}
	if g.cooldown <= 0 {
		unlock()
		return
	}
	time.AfterFunc(g.cooldown, unlock)
}
