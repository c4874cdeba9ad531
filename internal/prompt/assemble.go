package prompt

import "strings"

// Assemble склеивает модули пресета в один системный промпт.
// Порядок берется из orderOverride, если он задан, иначе из самого пресета.
// Имена, отсутствующие в Modules, и модули с пустым текстом пропускаются;
// непустые сегменты разделяются пустой строкой.
func Assemble(p Preset, orderOverride []string) string {
	order := p.Order
	if len(orderOverride) > 0 {
		order = orderOverride
	}

	segments := make([]string, 0, len(order))
	for _, name := range order {
		text, ok := p.Modules[name]
		if !ok || text == "" {
			continue
		}
		segments = append(segments, text)
	}
	return strings.Join(segments, "\n\n")
}
