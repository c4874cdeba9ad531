package prompt

import "sync"

// MemoryPersister хранит пресеты только в памяти процесса.
// Используется в тестах и при STORE_TYPE=memory.
type MemoryPersister struct {
	mu      sync.Mutex
	presets map[string]Preset
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load() (map[string]Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.presets == nil {
		return nil, nil
	}
	out := make(map[string]Preset, len(m.presets))
	for key, preset := range m.presets {
		out[key] = preset.clone()
	}
	return out, nil
}

func (m *MemoryPersister) Save(presets map[string]Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.presets = make(map[string]Preset, len(presets))
	for key, preset := range presets {
		m.presets[key] = preset.clone()
	}
	return nil
}
