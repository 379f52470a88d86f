package publisher

import (
	"regexp"
	"strings"
)

// URLMatcher проверяет адрес страницы.
type URLMatcher interface {
	Match(url string) bool
	String() string
}

type globMatcher struct {
	pattern string
	re      *regexp.Regexp
}

// Glob компилирует шаблон адреса: "**" совпадает с любыми символами, "*" с любыми кроме "/",
// "?" с одним символом кроме "/". Шаблон применяется ко всему адресу без query и fragment.
func Glob(pattern string) URLMatcher {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return globMatcher{pattern: pattern, re: regexp.MustCompile(b.String())}
}

func (g globMatcher) Match(url string) bool {
	return g.re.MatchString(stripQuery(url))
}

func (g globMatcher) String() string {
	return g.pattern
}

type exceptMatcher struct {
	match, except URLMatcher
}

// Except совпадает с адресами из match, которые не совпали с except.
func Except(match, except URLMatcher) URLMatcher {
	return exceptMatcher{match: match, except: except}
}

func (e exceptMatcher) Match(url string) bool {
	return e.match.Match(url) && !e.except.Match(url)
}

func (e exceptMatcher) String() string {
	return e.match.String() + " except " + e.except.String()
}

func stripQuery(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		return url[:i]
	}
	return url
}
