package models

import "time"

// TitleLayout — формат времени в заголовке поста.
const TitleLayout = "2006-01-02 15:04"

// TitlePrefix — неизменная часть заголовка поста.
const TitlePrefix = "Did You Know? - "

// Post описывает запись в блоге, которую заполняет Publisher.
// URL известен только после успешной публикации.
type Post struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// PostTitle строит заголовок поста по времени публикации.
func PostTitle(t time.Time) string {
	return TitlePrefix + t.Format(TitleLayout)
}
