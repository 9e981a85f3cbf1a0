package filestorage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStorageInterface хранит загруженные файлы на диске. Пути относительные, через "/".
type FileStorageInterface interface {
	Save(file io.Reader, originalFileName string, prefix string) (filePath string, err error)
	Delete(filePath string) error
}

type LocalFileStorage struct {
	basePath string
	now      func() time.Time
}

func NewLocalFileStorage(basePath string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию: %w", err)
	}
	return &LocalFileStorage{basePath: basePath, now: time.Now}, nil
}

// Save кладёт файл в prefix/ГГГГ/ММ/ДД/ под уникальным именем с исходным расширением.
func (s *LocalFileStorage) Save(file io.Reader, originalFileName string, prefix string) (string, error) {
	now := s.now()
	ext := strings.ToLower(filepath.Ext(originalFileName))
	uniqueFileName := fmt.Sprintf("%s-%s%s", now.Format("2006-01-02"), uuid.NewString(), ext)

	rel := filepath.Join(prefix, now.Format("2006/01/02"), uniqueFileName)
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(dst, file); err != nil {
		dst.Close()
		_ = os.Remove(full)
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Delete удаляет файл; отсутствующий файл ошибкой не считается.
func (s *LocalFileStorage) Delete(filePath string) error {
	full, err := s.resolve(filepath.FromSlash(filePath))
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve не выпускает путь за пределы basePath.
func (s *LocalFileStorage) resolve(rel string) (string, error) {
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("недопустимый путь к файлу: %s", rel)
	}
	return filepath.Join(s.basePath, rel), nil
}
