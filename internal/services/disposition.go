package services

import (
	"operator-console/internal/dto"
	"operator-console/internal/entities"
)

// OnStatusChanged - что подставить в форму при смене статуса звонка.
// "Не дозвонился" заполняет пустые результат и ответ значением "Нет ответа";
// выбранные оператором значения не трогаются.
func OnStatusChanged(current entities.Disposition, newStatus string) dto.DispositionPatchDTO {
	patch := dto.DispositionPatchDTO{}
	if newStatus != entities.CallStatusNotReached {
		return patch
	}
	noAnswer := entities.NoAnswer
	if current.CallResult == "" {
		patch.CallResult = &noAnswer
	}
	if current.AbonentAnswer == "" {
		patch.AbonentAnswer = &noAnswer
	}
	return patch
}

// ApplyPatch возвращает диспозицию с применённым патчем.
func ApplyPatch(d entities.Disposition, patch dto.DispositionPatchDTO) entities.Disposition {
	if patch.CallResult != nil {
		d.CallResult = *patch.CallResult
	}
	if patch.AbonentAnswer != nil {
		d.AbonentAnswer = *patch.AbonentAnswer
	}
	return d
}

// savePayload - тело fixation/PATCH. Пустой ответ абонента заменяется значением по умолчанию.
func savePayload(d entities.Disposition) map[string]any {
	if d.AbonentAnswer == "" {
		d.AbonentAnswer = entities.DefaultAbonentAnswer
	}
	return d.Payload()
}
