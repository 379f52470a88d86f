package browser_test

import (
	"testing"

	"factposter/internal/browser"
	"factposter/internal/publisher"

	"github.com/stretchr/testify/require"
)

var _ publisher.Opener = (*browser.Launcher)(nil)
var _ publisher.Session = (*browser.Session)(nil)

func TestJoinURL(t *testing.T) {
	require.Equal(t, "https://www.globardiary.com/login", browser.JoinURL("https://www.globardiary.com", "/login"))
	require.Equal(t, "https://www.globardiary.com/login", browser.JoinURL("https://www.globardiary.com/", "/login"))
	require.Equal(t, "https://www.globardiary.com/post/new", browser.JoinURL("https://www.globardiary.com//", "post/new"))
	require.Equal(t, "http://localhost:8081/blog/login", browser.JoinURL("http://localhost:8081/blog", "/login"))
}

func TestDefaultSelectors(t *testing.T) {
	s := browser.DefaultSelectors()

	for _, f := range []publisher.Field{
		publisher.FieldUsername,
		publisher.FieldPassword,
		publisher.FieldTitle,
		publisher.FieldBody,
	} {
		require.NotEmpty(t, s.Fields[f], f)
	}
	require.Equal(t, browser.Target{CSS: `button[type="submit"]`}, s.Controls[publisher.ControlLogin])
	require.Equal(t, browser.Target{CSS: "button", Text: "/Publish/i"}, s.Controls[publisher.ControlPublish])
}

func TestSelectorsOverride(t *testing.T) {
	base := browser.DefaultSelectors()

	t.Run("field and control", func(t *testing.T) {
		s, err := base.Override(map[string]string{
			"body":    `textarea[name="content"]`,
			"publish": `#publish-button`,
		})
		require.NoError(t, err)
		require.Equal(t, `textarea[name="content"]`, s.Fields[publisher.FieldBody])
		require.Equal(t, browser.Target{CSS: "#publish-button"}, s.Controls[publisher.ControlPublish])

		require.Equal(t, "#content", base.Fields[publisher.FieldBody], "base must stay untouched")
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := base.Override(map[string]string{"avatar": "img"})
		require.ErrorContains(t, err, `unknown selector name "avatar"`)
	})

	t.Run("empty selector", func(t *testing.T) {
		_, err := base.Override(map[string]string{"title": ""})
		require.Error(t, err)
	})

	t.Run("nil overrides", func(t *testing.T) {
		s, err := base.Override(nil)
		require.NoError(t, err)
		require.Equal(t, base, s)
	})
}
