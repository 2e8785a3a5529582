package domain

// Role представляет роль автора сообщения.
// Для структурированного экспорта значение переносится из файла как есть,
// поэтому помимо констант ниже возможны и другие значения (например, "system").
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleUnknown   Role = "unknown"
)

// Message представляет одно нормализованное сообщение переписки.
// Живет только в рамках одного вызова анализа.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Timestamp — время создания в секундах эпохи. nil, если формат его не содержит.
	Timestamp *float64 `json:"timestamp,omitempty"`
}

// HasTimestamp сообщает, известно ли время создания сообщения.
func (m Message) HasTimestamp() bool {
	return m.Timestamp != nil
}

// WordCount — пара "слово — количество" в рейтинге ключевых слов.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// ChatStats содержит агрегированную статистику переписки.
type ChatStats struct {
	TotalMessages    int         `json:"totalMessages"`
	UserMessageCount int         `json:"userMessageCount"`
	AIMessageCount   int         `json:"aiMessageCount"`
	WordCount        int         `json:"wordCount"`
	TopWords         []WordCount `json:"topWords"`
	// ActiveHours отображает час суток ("0".."23") в количество сообщений.
	ActiveHours    map[string]int `json:"activeHours"`
	MostActiveHour int            `json:"mostActiveHour"`
	HoursSpent     float64        `json:"hoursSpent"`
}

// IsInsufficient сообщает, что данных слишком мало для генерации персоны.
func (s ChatStats) IsInsufficient() bool {
	return s.TotalMessages < 2 && s.WordCount < 10
}

// AnalysisResult — единственный результат работы анализатора.
type AnalysisResult struct {
	Stats      ChatStats `json:"stats"`
	SampleText string    `json:"sampleText"`
}

// WrappedReport объединяет статистику и сгенерированную персону.
// Именно его потребляет слой презентации.
type WrappedReport struct {
	Stats   ChatStats `json:"stats"`
	Persona *Persona  `json:"persona,omitempty"`
}
