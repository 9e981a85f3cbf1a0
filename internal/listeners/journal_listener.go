package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"operator-console/internal/events"
	"operator-console/internal/services"
	"operator-console/pkg/eventbus"
)

// JournalListener пишет каждую сохранённую диспозицию в журнал обслуженных звонков.
type JournalListener struct {
	journal services.JournalServiceInterface
	logger  *zap.Logger
}

func NewJournalListener(journal services.JournalServiceInterface, logger *zap.Logger) *JournalListener {
	return &JournalListener{journal: journal, logger: logger}
}

func (l *JournalListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.DispositionSavedEvent{}.Name(), l.handleDispositionSaved)
	l.logger.Info("JournalListener подписан на событие", zap.String("event", events.DispositionSavedEvent{}.Name()))
}

func (l *JournalListener) handleDispositionSaved(ctx context.Context, e eventbus.Event) error {
	event, ok := e.(events.DispositionSavedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", e)
	}
	id, err := l.journal.Append(ctx, event)
	if err != nil {
		return fmt.Errorf("журнал, запись %s: %w", event.Record.ID(), err)
	}
	l.logger.Debug("Звонок записан в журнал",
		zap.Uint64("journal_id", id),
		zap.String("record", event.Record.ID()),
		zap.String("operator", event.Operator))
	return nil
}
