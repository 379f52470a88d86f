package models

// FallbackFactText подставляется, когда API ответил, но поле text пустое или отсутствует.
const FallbackFactText = "Could not retrieve a fact at this time."

// Fact представляет один факт из API случайных фактов.
// Публикуется только Text, остальные поля идут в журнал запусков.
type Fact struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Language  string `json:"language,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	// Fallback выставляется, если в Text подставлен FallbackFactText, а не ответ API.
	Fallback bool `json:"fallback,omitempty"`
}
