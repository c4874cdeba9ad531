package prompt

import (
	"strings"
	"time"
)

// DefaultKey ключ пресета по умолчанию. Он существует всегда
// и не может быть удален.
const DefaultKey = "default"

// Preset описывает именованный системный промпт, собранный из модулей.
// Ключ пресета хранится отдельно (см. Store): формат файла хранилища —
// JSON-объект map[ключ]Preset.
type Preset struct {
	Name        string            `json:"name"`
	Modules     map[string]string `json:"modules"`
	Order       []string          `json:"order"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NormalizeID приводит идентификатор пресета к каноническому виду:
// нижний регистр, пробелы и дефисы заменяются подчеркиванием.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, "-", "_")
	return id
}

// clone возвращает глубокую копию пресета, чтобы вызывающий не мог
// изменить данные внутри хранилища.
func (p Preset) clone() Preset {
	out := p
	if p.Modules != nil {
		out.Modules = make(map[string]string, len(p.Modules))
		for name, text := range p.Modules {
			out.Modules[name] = text
		}
	}
	if p.Order != nil {
		out.Order = append([]string(nil), p.Order...)
	}
	return out
}

// defaultPresets возвращает стартовый набор для пустого хранилища.
func defaultPresets() map[string]Preset {
	return map[string]Preset{
		DefaultKey: {
			Name: "Default Assistant",
			Modules: map[string]string{
				"DEFAULT": "You are a helpful AI assistant. Provide clear, accurate, and concise responses.",
			},
			Order:       []string{"DEFAULT"},
			Description: "General purpose helpful assistant",
			CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}
