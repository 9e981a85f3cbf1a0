package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator - обертка для использования в Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate реализует интерфейс echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New создает и настраивает валидатор
func New() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)

	// 1. Подключаем поддержку null-типов (из файла types_adapter.go)
	registerNullTypes(v)

	// 2. Регистрируем кастомные правила (из файла rules.go)
	// Если правило критично и не зарегистрировалось, паникуем: сервер не стартует
	if err := registerRules(v); err != nil {
		panic("ошибка регистрации валидаторов: " + err.Error())
	}

	return &CustomValidator{validator: v}
}

// FieldErrors превращает ошибки валидатора в сообщения по полям (имена из json-тегов).
// Для прочих ошибок возвращает nil.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "call_status":
		return "недопустимый статус звонка"
	case "call_result":
		return "недопустимый результат звонка"
	case "abonent_answer":
		return "недопустимый ответ абонента"
	case "note_length":
		return fmt.Sprintf("не более %d символов", MaxNoteRunes)
	case "search_field":
		return "поиск возможен только по client, account, msisdn, phone"
	case "origin":
		return "неизвестная коллекция"
	case "min":
		return "значение меньше допустимого: " + fe.Param()
	case "max":
		return "значение больше допустимого: " + fe.Param()
	}
	return "некорректное значение"
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
