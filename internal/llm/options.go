package llm

// Options параметры генерации, переданные клиентом.
// Указатели отличают "не задано" от нулевого значения.
type Options struct {
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
	Seed        *int     `json:"seed"`
}

// Defaults значения параметров по умолчанию конкретного бэкенда.
type Defaults struct {
	Temperature float64
	MaxTokens   int
}

// Params итоговые параметры после подстановки значений по умолчанию.
// Seed по умолчанию не подставляется никогда: он либо задан клиентом,
// либо отсутствует. Нулевой seed — валидное явное значение.
type Params struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Seed        *int    `json:"seed,omitempty"`
}

// Normalize накладывает параметры клиента на значения по умолчанию бэкенда.
func Normalize(opts Options, def Defaults) Params {
	params := Params{
		Temperature: def.Temperature,
		MaxTokens:   def.MaxTokens,
	}
	if opts.Temperature != nil {
		params.Temperature = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		params.MaxTokens = *opts.MaxTokens
	}
	if opts.Seed != nil {
		seed := *opts.Seed
		params.Seed = &seed
	}
	return params
}
