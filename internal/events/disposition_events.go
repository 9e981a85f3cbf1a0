package events

import (
	"time"

	"operator-console/internal/entities"
)

// DispositionSavedEvent - оператор зафиксировал результат звонка.
type DispositionSavedEvent struct {
	Record      entities.Record
	Origin      entities.Origin
	Disposition entities.Disposition
	Operator    string
	At          time.Time
}

// Name - реализуем интерфейс eventbus.Event
func (e DispositionSavedEvent) Name() string {
	return "card.disposition.saved"
}
