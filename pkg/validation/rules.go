package validation

import (
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"operator-console/internal/entities"
)

// MaxNoteRunes - предел длины примечания к звонку.
const MaxNoteRunes = 1000

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"call_status":    oneOf(entities.IsCallStatus),
		"call_result":    oneOf(entities.IsCallResult),
		"abonent_answer": oneOf(entities.IsAbonentAnswer),
		"note_length":    isNoteLengthValid,
		"search_field":   isSearchField,
		"origin":         isOrigin,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// oneOf - значение из закрытого списка. Пустая строка проходит, обязательность задаёт required.
func oneOf(allowed func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || allowed(s)
	}
}

// isNoteLengthValid считает символы, а не байты: примечания пишут кириллицей.
func isNoteLengthValid(fl validator.FieldLevel) bool {
	return utf8.RuneCountInString(fl.Field().String()) <= MaxNoteRunes
}

func isSearchField(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case entities.FieldClient, entities.FieldAccount, entities.FieldMSISDN, entities.FieldPhone:
		return true
	}
	return false
}

func isOrigin(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || entities.ParseOrigin(s) != ""
}
