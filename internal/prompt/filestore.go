package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// FilePersister хранит пресеты в JSON-файле на диске.
// Формат файла: JSON-объект map[string]Preset, где ключ — идентификатор.
type FilePersister struct {
	path string
}

// NewFilePersister создает FilePersister для указанного файла.
func NewFilePersister(path string) (*FilePersister, error) {
	if path == "" {
		return nil, fmt.Errorf("filestore path is empty")
	}
	return &FilePersister{path: path}, nil
}

// Path возвращает путь к файлу хранилища.
func (f *FilePersister) Path() string {
	return f.path
}

// Load читает пресеты с диска. Отсутствующий или поврежденный файл
// не считается фатальной ошибкой: логируется предупреждение и
// возвращается пустая карта.
func (f *FilePersister) Load() (map[string]Preset, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		log.Printf("filestore: read file %s: %v", f.path, err)
		return nil, nil
	}
	if len(data) == 0 {
		return nil, nil
	}

	var raw map[string]Preset
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("filestore: unmarshal %s: %v", f.path, err)
		return nil, nil
	}
	return raw, nil
}

// Save атомарно записывает состояние на диск через временный файл.
func (f *FilePersister) Save(presets map[string]Preset) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	data, err := json.MarshalIndent(presets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal presets: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmpFile.Name()
	if err := os.Chmod(tmpName, 0o600); err != nil && !errors.Is(err, os.ErrPermission) {
		tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
