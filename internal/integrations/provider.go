package integrations

import (
	"context"

	"operator-console/internal/entities"
	"operator-console/internal/integrations/dto"
)

// Collection - одна REST-коллекция бэкенда (actives, suspends, fixeds).
type Collection interface {
	Name() entities.Origin
	List(ctx context.Context, params dto.ListParams) (*dto.Page, error)
	Retrieve(ctx context.Context, id string) (entities.Record, error)
	Update(ctx context.Context, id string, payload map[string]any, partial bool) (entities.Record, error)
	// Fixation - отдельная операция фиксации; есть только у actives и suspends.
	Fixation(ctx context.Context, id string, payload map[string]any) (entities.Record, error)
}

// Searcher - сквозной поиск по всем коллекциям (/search-all/).
type Searcher interface {
	SearchAll(ctx context.Context, params dto.ListParams) (*dto.Page, error)
}
