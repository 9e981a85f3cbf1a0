package validation

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"operator-console/config"
)

// ValidateFile проверяет расширение, размер и тип содержимого файла.
// contextName - ключ из config.UploadContexts (например, "spreadsheet").
func ValidateFile(filename string, size int64, file io.ReadSeeker, contextName string) error {
	// 1. Получаем правила из конфига
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return fmt.Errorf("внутренняя ошибка: неизвестный контекст загрузки '%s'", contextName)
	}

	// 2. Расширение
	ext := strings.ToLower(filepath.Ext(filename))
	if len(rules.AllowedExtensions) > 0 && !slices.Contains(rules.AllowedExtensions, ext) {
		return fmt.Errorf("поддерживаются только файлы %s", strings.Join(rules.AllowedExtensions, ", "))
	}

	// 3. Проверка размера (если ограничение > 0)
	if rules.MaxSizeMB > 0 {
		maxSizeBytes := rules.MaxSizeMB * 1024 * 1024
		if size > maxSizeBytes {
			return fmt.Errorf("размер файла (%.2f MB) превышает лимит в %d MB", float64(size)/1024/1024, rules.MaxSizeMB)
		}
	}

	// 4. Проверка содержимого (Magic Numbers)
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("ошибка чтения файла")
	}

	// Важно: Возвращаем курсор чтения в начало!
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("ошибка обработки файла")
	}

	mimeType := http.DetectContentType(buffer[:n])
	if !slices.Contains(rules.AllowedMimeTypes, mimeType) {
		return fmt.Errorf("недопустимый формат файла: %s", mimeType)
	}

	return nil
}
