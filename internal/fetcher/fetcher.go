package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"factposter/internal/logger"
	"factposter/internal/models"

	"github.com/go-resty/resty/v2"
)

var (
	ErrBadStatus = errors.New("unexpected HTTP status")
	ErrMalformed = errors.New("malformed fact response")
)

// Client получает случайный факт из API. На каждый вызов ровно один GET без повторов.
type Client struct {
	http *resty.Client
	url  string
	log  *logger.Entry
}

// New создаёт Client для адреса url с таймаутом запроса timeout.
func New(url string, timeout time.Duration) *Client {
	http := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	log := logger.Component("fetcher").WithField("url", url)
	instrument(http, log)

	return &Client{
		http: http,
		url:  url,
		log:  log,
	}
}

// Fact возвращает факт или ok=false. Причина ошибки пишется в лог и дальше не уходит.
func (c *Client) Fact(ctx context.Context) (models.Fact, bool) {
	c.log.Info("Fetching a new fact")

	fact, err := c.FetchFact(ctx)
	if err != nil {
		c.log.Errorf("Error fetching fact: %v", err)
		return models.Fact{}, false
	}

	if fact.Fallback {
		c.log.Warn("Fact API returned no text, using fallback fact")
	} else {
		c.log.WithField("fact_id", fact.ID).Debug("Fact fetched")
	}
	return fact, true
}

// FetchFact выполняет GET и декодирует JSON-объект ответа.
// Пустое или отсутствующее поле text даёт models.FallbackFactText без ошибки.
func (c *Client) FetchFact(ctx context.Context) (models.Fact, error) {
	res, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return models.Fact{}, fmt.Errorf("get %s: %w", c.url, err)
	}
	if !res.IsSuccess() {
		return models.Fact{}, fmt.Errorf("%w: %s", ErrBadStatus, res.Status())
	}
	return DecodeFact(res.Body())
}

// DecodeFact разбирает тело ответа API.
func DecodeFact(body []byte) (models.Fact, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.Fact{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if payload == nil {
		return models.Fact{}, fmt.Errorf("%w: body is not a JSON object", ErrMalformed)
	}

	text, err := stringField(payload, "text")
	if err != nil {
		return models.Fact{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	fact := models.Fact{
		Text:      text,
		ID:        optionalField(payload, "id"),
		Source:    optionalField(payload, "source"),
		SourceURL: optionalField(payload, "source_url"),
		Language:  optionalField(payload, "language"),
		Permalink: optionalField(payload, "permalink"),
	}
	if fact.Text == "" {
		fact.Text = models.FallbackFactText
		fact.Fallback = true
	}
	return fact, nil
}

// stringField возвращает "" для отсутствующего ключа и null, ошибку для не-строки.
func stringField(payload map[string]json.RawMessage, key string) (string, error) {
	raw, ok := payload[key]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return s, nil
}

func optionalField(payload map[string]json.RawMessage, key string) string {
	s, _ := stringField(payload, key)
	return s
}
