package publisher

import (
	"context"
	"time"
)

// Field — логическое имя поля формы на сайте.
type Field string

const (
	FieldUsername Field = "username"
	FieldPassword Field = "password"
	FieldTitle    Field = "title"
	FieldBody     Field = "body"
)

// Control — логическое имя кнопки или ссылки.
type Control string

const (
	ControlLogin   Control = "login"
	ControlPublish Control = "publish"
)

// Session представляет одну открытую сессию браузера на сайте. Конкретные селекторы живут в реализации.
type Session interface {
	Navigate(ctx context.Context, path string) error
	Fill(ctx context.Context, field Field, value string) error
	Click(ctx context.Context, control Control) error
	// WaitURL ждёт, пока адрес страницы не удовлетворит match, и возвращает этот адрес.
	WaitURL(ctx context.Context, match URLMatcher, timeout time.Duration) (string, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Opener открывает новую сессию браузера.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc позволяет использовать функцию как Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) {
	return f(ctx)
}
