package browser

import (
	"fmt"

	"factposter/internal/publisher"
)

// Target описывает элемент страницы: CSS-селектор и, при необходимости, регулярное выражение по тексту.
type Target struct {
	CSS  string
	Text string
}

// Selectors хранит селекторы сайта по логическим именам.
type Selectors struct {
	Fields   map[publisher.Field]string
	Controls map[publisher.Control]Target
}

// DefaultSelectors возвращает селекторы для текущей разметки globardiary.com.
func DefaultSelectors() Selectors {
	return Selectors{
		Fields: map[publisher.Field]string{
			publisher.FieldUsername: `input[name="username"]`,
			publisher.FieldPassword: `input[name="password"]`,
			publisher.FieldTitle:    `input[name="title"]`,
			publisher.FieldBody:     `#content`,
		},
		Controls: map[publisher.Control]Target{
			publisher.ControlLogin:   {CSS: `button[type="submit"]`},
			publisher.ControlPublish: {CSS: `button`, Text: `/Publish/i`},
		},
	}
}

// Override заменяет селекторы по именам из конфигурации. Для кнопок заменяется только CSS,
// текстовый фильтр сбрасывается. Неизвестное имя возвращает ошибку.
func (s Selectors) Override(overrides map[string]string) (Selectors, error) {
	out := Selectors{
		Fields:   make(map[publisher.Field]string, len(s.Fields)),
		Controls: make(map[publisher.Control]Target, len(s.Controls)),
	}
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	for k, v := range s.Controls {
		out.Controls[k] = v
	}

	for name, css := range overrides {
		if css == "" {
			return s, fmt.Errorf("empty selector for %q", name)
		}
		if _, ok := out.Fields[publisher.Field(name)]; ok {
			out.Fields[publisher.Field(name)] = css
			continue
		}
		if _, ok := out.Controls[publisher.Control(name)]; ok {
			out.Controls[publisher.Control(name)] = Target{CSS: css}
			continue
		}
		return s, fmt.Errorf("unknown selector name %q", name)
	}
	return out, nil
}

func (s Selectors) field(f publisher.Field) (string, error) {
	css, ok := s.Fields[f]
	if !ok {
		return "", fmt.Errorf("no selector for field %q", f)
	}
	return css, nil
}

func (s Selectors) control(c publisher.Control) (Target, error) {
	t, ok := s.Controls[c]
	if !ok {
		return Target{}, fmt.Errorf("no selector for control %q", c)
	}
	return t, nil
}
