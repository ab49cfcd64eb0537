// Package storage — утилиты надёжной записи локальных файлов.
// Применяется для файла MTProto-сессии и прочих данных, для которых частично
// записанный файл недопустим: либо старое содержимое остаётся целым, либо
// новое записано полностью.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"telegram-copier/internal/infra/logger"
)

// filePerm — права итогового файла: только владелец процесса.
// Файл сессии содержит авторизационный ключ, поэтому 0o600 обязателен.
const filePerm = 0o600

// EnsureDir создаёт каталог для указанного пути файла, если его ещё нет.
// Пустая директория или "." пропускаются. Каталог создаётся с правами 0o700.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// AtomicWriteFile атомарно записывает data в path.
//
// Последовательность: temp-файл в каталоге назначения → write → fsync →
// chmod(filePerm) → close → rename → fsync каталога. os.Rename атомарен только
// в пределах одного тома, поэтому temp создаётся рядом с целевым файлом.
// fsync каталога — best-effort: часть ОС/ФС его игнорирует.
func AtomicWriteFile(path string, data []byte) error {
	clean := filepath.Clean(path)
	if err := EnsureDir(clean); err != nil {
		return err
	}
	dir := filepath.Dir(clean)

	tmp, err := os.CreateTemp(dir, ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, clean); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	if dirFile, err := os.Open(dir); err == nil {
		if errSync := dirFile.Sync(); errSync != nil {
			logger.Warnf("AtomicWriteFile: dir sync error: %v", errSync)
		}
		_ = dirFile.Close()
	}
	return nil
}
