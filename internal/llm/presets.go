package llm

// ParamPreset именованный набор параметров генерации.
type ParamPreset struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// ParamPresets содержит готовые наборы параметров генерации,
// от максимально разнообразных ответов к детерминированным.
var ParamPresets = []ParamPreset{
	{
		Name:        "creative",
		Description: "High variance answers for brainstorming and writing",
		Temperature: 1.2,
		MaxTokens:   2048,
	},
	{
		Name:        "balanced",
		Description: "Sensible default for general questions",
		Temperature: 0.7,
		MaxTokens:   1024,
	},
	{
		Name:        "focused",
		Description: "Lower variance, stays close to the prompt",
		Temperature: 0.4,
		MaxTokens:   1024,
	},
	{
		Name:        "precise",
		Description: "Near-deterministic short answers",
		Temperature: 0.1,
		MaxTokens:   512,
	},
}

// GetParamPreset возвращает набор параметров по имени.
// Если набор не найден, возвращает nil.
func GetParamPreset(name string) *ParamPreset {
	for _, p := range ParamPresets {
		if p.Name == name {
			return &p
		}
	}
	return nil
}
