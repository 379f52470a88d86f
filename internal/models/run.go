package models

import "time"

type RunStatus string

const (
	RunPublished RunStatus = "published"
	RunNoFact    RunStatus = "no_fact"
	RunFailed    RunStatus = "failed"
)

// Run описывает итог одного запуска: какой факт получен, что опубликовано и где упало.
type Run struct {
	ID         int64     `json:"id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     RunStatus `json:"status"`
	Fact       Fact      `json:"fact"`
	Post       Post      `json:"post"`
	FailedStep string    `json:"failed_step,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// PublishedEvent отправляется в очередь после успешной публикации.
type PublishedEvent struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Fact        string    `json:"fact"`
	PublishedAt time.Time `json:"published_at"`
}

// Event строит событие публикации из записи о запуске.
func (r Run) Event() PublishedEvent {
	return PublishedEvent{
		Title:       r.Post.Title,
		URL:         r.Post.URL,
		Fact:        r.Post.Body,
		PublishedAt: r.FinishedAt,
	}
}
