package prompt

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"
)

var (
	// ErrNotFound возвращается, когда пресет с таким ключом отсутствует.
	ErrNotFound = errors.New("system prompt not found")
	// ErrExists возвращается при попытке создать пресет с занятым ключом.
	ErrExists = errors.New("system prompt id already exists")
	// ErrDefaultProtected возвращается при попытке удалить пресет "default".
	ErrDefaultProtected = errors.New("cannot delete the default system prompt")
	// ErrValidation помечает ошибки входных данных.
	ErrValidation = errors.New("validation failed")
)

// Persister — внешний механизм долговременного хранения пресетов.
// Store каждый раз записывает карту целиком.
type Persister interface {
	Load() (map[string]Preset, error)
	Save(presets map[string]Preset) error
}

// Store потокобезопасное хранилище пресетов поверх Persister.
// Мутации применяются в памяти и затем сохраняются целиком; ошибка
// сохранения логируется, но мутацию не откатывает.
type Store struct {
	mu        sync.RWMutex
	presets   map[string]Preset
	persister Persister
	logger    *slog.Logger
	now       func() time.Time
}

// NewStore загружает пресеты из persister. Если пресет "default"
// отсутствует, хранилище засевается стартовым набором.
func NewStore(persister Persister, logger *slog.Logger) (*Store, error) {
	loaded, err := persister.Load()
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}

	s := &Store{
		presets:   loaded,
		persister: persister,
		logger:    logger,
		now:       time.Now,
	}
	if s.presets == nil {
		s.presets = make(map[string]Preset)
	}
	if _, ok := s.presets[DefaultKey]; !ok {
		for key, preset := range defaultPresets() {
			s.presets[key] = preset
		}
		s.persistLocked()
	}
	return s, nil
}

// List возвращает копию всех пресетов.
func (s *Store) List() map[string]Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Preset, len(s.presets))
	for key, preset := range s.presets {
		out[key] = preset.clone()
	}
	return out
}

// Get возвращает пресет по ключу.
func (s *Store) Get(key string) (Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	preset, ok := s.presets[key]
	if !ok {
		return Preset{}, ErrNotFound
	}
	return preset.clone(), nil
}

// Count возвращает количество пресетов.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.presets)
}

// CreateInput входные данные для создания пресета.
type CreateInput struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Modules     map[string]string `json:"modules"`
	Order       []string          `json:"order"`
	Description string            `json:"description"`
}

// Create нормализует идентификатор, валидирует входные данные и
// сохраняет новый пресет. Возвращает итоговый ключ и сохраненную запись.
func (s *Store) Create(in CreateInput) (string, Preset, error) {
	if strings.TrimSpace(in.ID) == "" {
		return "", Preset{}, fmt.Errorf("%w: field 'id' is required", ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return "", Preset{}, fmt.Errorf("%w: field 'name' is required", ErrValidation)
	}
	if len(in.Modules) == 0 {
		return "", Preset{}, fmt.Errorf("%w: field 'modules' is required", ErrValidation)
	}
	if len(in.Order) == 0 {
		return "", Preset{}, fmt.Errorf("%w: field 'order' is required", ErrValidation)
	}

	key := NormalizeID(in.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.presets[key]; ok {
		return "", Preset{}, ErrExists
	}

	preset := Preset{
		Name:        strings.TrimSpace(in.Name),
		Modules:     in.Modules,
		Order:       in.Order,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   s.now().UTC(),
	}
	s.presets[key] = preset.clone()
	s.persistLocked()
	return key, preset.clone(), nil
}

// Patch частичное обновление пресета: применяются только заданные поля.
// Карта модулей и порядок заменяются целиком, а не сливаются.
type Patch struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Modules     map[string]string `json:"modules"`
	Order       []string          `json:"order"`
}

// Update применяет patch к существующему пресету.
func (s *Store) Update(key string, patch Patch) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preset, ok := s.presets[key]
	if !ok {
		return Preset{}, ErrNotFound
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		preset.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		preset.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Modules != nil {
		preset.Modules = patch.Modules
	}
	if patch.Order != nil {
		preset.Order = patch.Order
	}

	s.presets[key] = preset.clone()
	s.persistLocked()
	return preset.clone(), nil
}

// Delete удаляет пресет. Пресет "default" удалить нельзя.
func (s *Store) Delete(key string) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preset, ok := s.presets[key]
	if !ok {
		return Preset{}, ErrNotFound
	}
	if key == DefaultKey {
		return Preset{}, ErrDefaultProtected
	}

	delete(s.presets, key)
	s.persistLocked()
	return preset, nil
}

// persistLocked записывает снимок текущего состояния; вызывается под mu.
// Ошибка записи логируется и не откатывает мутацию в памяти.
func (s *Store) persistLocked() {
	snapshot := make(map[string]Preset, len(s.presets))
	for key, preset := range s.presets {
		snapshot[key] = preset.clone()
	}
	if err := s.persister.Save(snapshot); err != nil {
		s.logger.Error("persist presets failed", slog.String("error", err.Error()))
	}
}
