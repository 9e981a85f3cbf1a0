package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/entities"
	bdto "operator-console/internal/integrations/dto"
	"operator-console/internal/repositories"
	"operator-console/pkg/config"
	"operator-console/pkg/filestorage"
	apperrors "operator-console/pkg/errors"
	"operator-console/pkg/utils"
	"operator-console/pkg/validation"
)

const (
	backupKey     = "excel-backup"
	backupInfoKey = "excel-backup-info"
	emptyHeader   = "__EMPTY"
	archivePrefix = "imports"
)

var ErrEmptyWorkbook = errors.New("Excel файл не содержит данных")

// ExcelUploader пересылает исходный файл на бэкенд.
type ExcelUploader interface {
	UploadExcel(ctx context.Context, filename string, file io.Reader, extras bdto.UploadExtras) (map[string]any, error)
}

type ImporterServiceInterface interface {
	Import(ctx context.Context, filename string, size int64, file io.ReadSeeker, opts dto.ImportOptionsDTO) (*dto.ImportResultDTO, error)
	Browse(ctx context.Context, params utils.QueryParams) ([]entities.ImportedRecord, uint64, error)
	Clear(ctx context.Context) error
}

type ImporterService struct {
	repo     repositories.ImportedRecordRepositoryInterface
	cache    repositories.CacheRepositoryInterface
	uploader ExcelUploader
	archive  filestorage.FileStorageInterface
	cfg      config.ConsoleConfig
	logger   *zap.Logger
}

func NewImporterService(
	repo repositories.ImportedRecordRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	uploader ExcelUploader,
	archive filestorage.FileStorageInterface,
	cfg config.ConsoleConfig,
	logger *zap.Logger,
) ImporterServiceInterface {
	return &ImporterService{repo: repo, cache: cache, uploader: uploader, archive: archive, cfg: cfg, logger: logger}
}

func (s *ImporterService) Import(ctx context.Context, filename string, size int64, file io.ReadSeeker, opts dto.ImportOptionsDTO) (*dto.ImportResultDTO, error) {
	if err := validation.ValidateFile(filename, size, file, "spreadsheet"); err != nil {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "Файл не принят", err, map[string]string{"file": err.Error()})
	}

	columns, records, err := ReadWorkbook(file)
	if err != nil {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "Не удалось прочитать файл", err, map[string]string{"file": err.Error()})
	}
	if len(records) == 0 {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "Файл не принят", ErrEmptyWorkbook,
			map[string]string{"file": ErrEmptyWorkbook.Error()})
	}

	batchID := uuid.NewString()
	rows, err := s.repo.Replace(ctx, batchID, records)
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResultDTO{BatchID: batchID, Rows: rows, Columns: columns}

	info, err := s.backup(ctx, records)
	if err != nil {
		s.logger.Warn("Резервная копия импорта не сохранена", zap.Error(err))
		result.Warnings = append(result.Warnings, "Резервная копия не сохранена: "+err.Error())
	} else {
		result.Backup = info
		if info.DataTooLarge {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Данные слишком большие (%.2f MB), в резервную копию сохранены первые %d записей",
				info.OriginalSizeMB, info.SampleSize))
		}
	}

	if s.archive != nil {
		path, err := s.store(filename, file)
		if err != nil {
			s.logger.Warn("Файл импорта не сохранён в архив", zap.String("file", filename), zap.Error(err))
			result.Warnings = append(result.Warnings, "Файл не сохранён в архив: "+err.Error())
		} else {
			result.ArchivePath = path
		}
	}

	if opts.Forward && s.uploader != nil {
		upload, err := s.forward(ctx, filename, file, opts.BatchTag)
		if err != nil {
			s.logger.Warn("Файл не отправлен на бэкенд", zap.String("file", filename), zap.Error(err))
			result.Warnings = append(result.Warnings, "Файл не отправлен на сервер: "+err.Error())
		} else {
			result.Upload = upload
		}
	}

	s.logger.Info("Импорт завершён",
		zap.String("file", filename),
		zap.String("batch", batchID),
		zap.Int("rows", rows),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

func (s *ImporterService) store(filename string, file io.ReadSeeker) (string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return s.archive.Save(file, filename, archivePrefix)
}

func (s *ImporterService) forward(ctx context.Context, filename string, file io.ReadSeeker, tag string) (map[string]any, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return s.uploader.UploadExcel(ctx, filename, file, bdto.UploadExtras{OriginalName: filename, BatchTag: tag})
}

// backup кладёт копию набора в кэш. Слишком большой набор сохраняется выборкой.
func (s *ImporterService) backup(ctx context.Context, records []entities.Record) (*dto.BackupInfoDTO, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}

	info := &dto.BackupInfoDTO{
		TotalRecords:   len(records),
		SampleSize:     len(records),
		OriginalSizeMB: BackupSizeMB(raw),
	}
	if info.OriginalSizeMB > s.cfg.ImportBackupLimitMB {
		info.DataTooLarge = true
		info.SampleSize = min(s.cfg.ImportSampleSize, len(records))
		if raw, err = json.Marshal(records[:info.SampleSize]); err != nil {
			return nil, err
		}
	}

	rawInfo, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, backupKey, raw, 0); err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, backupInfoKey, rawInfo, 0); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *ImporterService) Browse(ctx context.Context, params utils.QueryParams) ([]entities.ImportedRecord, uint64, error) {
	return s.repo.List(ctx, params)
}

func (s *ImporterService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	if err := s.cache.Del(ctx, backupKey, backupInfoKey); err != nil && !errors.Is(err, repositories.ErrCacheMiss) {
		return err
	}
	s.logger.Info("Импортированные записи удалены")
	return nil
}

// BackupSizeMB - размер JSON в мегабайтах при хранении строкой UTF-16 (2 байта на единицу).
func BackupSizeMB(raw []byte) float64 {
	units := 0
	for _, r := range string(raw) {
		units += utf16.RuneLen(r)
	}
	return float64(units*2) / 1024 / 1024
}

// ReadWorkbook читает первый лист: первая строка - заголовки, остальные - записи.
// Пустые строки пропускаются, у записи без id он становится record_<n>.
func ReadWorkbook(r io.Reader) ([]string, []entities.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("в файле нет листов")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка чтения листа '%s': %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("лист пуст")
	}

	headers := Headers(rows[0])
	records := make([]entities.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec := make(entities.Record, len(headers)+1)
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		if strings.TrimSpace(rec.ID()) == "" {
			rec[entities.FieldID] = fmt.Sprintf("record_%d", len(records)+1)
		}
		records = append(records, rec)
	}

	columns := headers
	if !slices.Contains(headers, entities.FieldID) {
		columns = append([]string{entities.FieldID}, headers...)
	}
	return columns, records, nil
}

// Headers: пустые заголовки становятся __EMPTY, __EMPTY_1, ..., повторы получают суффикс _1, _2.
// Суффикс подбирается так, чтобы имя не совпало ни с одним уже занятым.
func Headers(row []string) []string {
	next := make(map[string]int, len(row))
	used := make(map[string]bool, len(row))
	out := make([]string, 0, len(row))
	for _, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = emptyHeader
		}
		name := h
		if used[h] {
			n := max(next[h], 1)
			for used[fmt.Sprintf("%s_%d", h, n)] {
				n++
			}
			name = fmt.Sprintf("%s_%d", h, n)
			next[h] = n + 1
		}
		used[name] = true
		out = append(out, name)
	}
	return out
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
