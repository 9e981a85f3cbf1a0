package mock

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"operator-console/internal/entities"
	"operator-console/internal/integrations"
	"operator-console/internal/integrations/dto"
)

// Collection - коллекция в памяти для тестов сервисов.
// Ошибки задаются через поля *Err; счётчики вызовов читаются через Calls.
type Collection struct {
	name entities.Origin

	mu      sync.Mutex
	records map[string]entities.Record
	order   []string
	calls   map[string]int

	ListErr     error
	RetrieveErr error
	UpdateErr   error
	FixationErr error
	// ListCount переопределяет count в ответе List, если не ноль.
	ListCount int

	// LastParams и LastPayload - аргументы последнего вызова.
	LastParams  dto.ListParams
	LastPayload map[string]any
	LastPartial bool
}

func NewCollection(name entities.Origin, records ...entities.Record) *Collection {
	c := &Collection{
		name:    name,
		records: make(map[string]entities.Record),
		calls:   make(map[string]int),
	}
	for _, r := range records {
		c.Put(r)
	}
	return c
}

func (c *Collection) Name() entities.Origin { return c.name }

// Put добавляет или заменяет запись.
func (c *Collection) Put(r entities.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := r.ID()
	if _, exists := c.records[id]; !exists {
		c.order = append(c.order, id)
	}
	c.records[id] = r.Clone()
}

// Calls возвращает число вызовов операции ("list", "retrieve", "update", "fixation").
func (c *Collection) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *Collection) List(_ context.Context, params dto.ListParams) (*dto.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["list"]++
	c.LastParams = params
	if c.ListErr != nil {
		return nil, c.ListErr
	}
	out := make([]entities.Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id].Clone())
	}
	count := len(out)
	if c.ListCount != 0 {
		count = c.ListCount
	}
	return &dto.Page{Results: out, Count: count}, nil
}

func (c *Collection) Retrieve(_ context.Context, id string) (entities.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["retrieve"]++
	if c.RetrieveErr != nil {
		return nil, c.RetrieveErr
	}
	r, ok := c.records[id]
	if !ok {
		return nil, integrations.NewAPIError(http.StatusNotFound, map[string]any{"detail": "Not found."})
	}
	return r.Clone(), nil
}

func (c *Collection) Update(_ context.Context, id string, payload map[string]any, partial bool) (entities.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["update"]++
	c.LastPayload = payload
	c.LastPartial = partial
	if c.UpdateErr != nil {
		return nil, c.UpdateErr
	}
	return c.apply(id, payload)
}

func (c *Collection) Fixation(_ context.Context, id string, payload map[string]any) (entities.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["fixation"]++
	c.LastPayload = payload
	if c.name == entities.OriginFixeds {
		return nil, fmt.Errorf("коллекция '%s' не поддерживает фиксацию", c.name)
	}
	if c.FixationErr != nil {
		return nil, c.FixationErr
	}
	return c.apply(id, payload)
}

func (c *Collection) apply(id string, payload map[string]any) (entities.Record, error) {
	r, ok := c.records[id]
	if !ok {
		return nil, integrations.NewAPIError(http.StatusNotFound, map[string]any{"detail": "Not found."})
	}
	for k, v := range payload {
		r[k] = v
	}
	return r.Clone(), nil
}

// Searcher - сквозной поиск в памяти.
type Searcher struct {
	mu    sync.Mutex
	calls int

	Page *dto.Page
	Err  error
}

func (s *Searcher) SearchAll(_ context.Context, _ dto.ListParams) (*dto.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Page == nil {
		return &dto.Page{Results: []entities.Record{}}, nil
	}
	return s.Page, nil
}

func (s *Searcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
