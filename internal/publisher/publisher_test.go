package publisher_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"factposter/internal/config"
	"factposter/internal/models"
	"factposter/internal/publisher"

	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// fakeSession имитирует сайт: записывает вызовы и падает на вызове с номером failAt.
type fakeSession struct {
	calls       []string
	fields      map[publisher.Field]string
	failAt      int
	panicAt     int
	url         string
	closes      int
	screenshots []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		fields:  map[publisher.Field]string{},
		failAt:  -1,
		panicAt: -1,
		url:     "about:blank",
	}
}

func (f *fakeSession) record(call string) error {
	n := len(f.calls)
	f.calls = append(f.calls, call)
	if n == f.panicAt {
		panic("selector engine crashed")
	}
	if n == f.failAt {
		return errInjected
	}
	return nil
}

func (f *fakeSession) Navigate(ctx context.Context, path string) error {
	if err := f.record("navigate " + path); err != nil {
		return err
	}
	f.url = "https://www.globardiary.com" + path
	return nil
}

func (f *fakeSession) Fill(ctx context.Context, field publisher.Field, value string) error {
	if err := f.record("fill " + string(field)); err != nil {
		return err
	}
	f.fields[field] = value
	return nil
}

func (f *fakeSession) Click(ctx context.Context, control publisher.Control) error {
	if err := f.record("click " + string(control)); err != nil {
		return err
	}
	switch control {
	case publisher.ControlLogin:
		f.url = "https://www.globardiary.com/dashboard"
	case publisher.ControlPublish:
		f.url = "https://www.globardiary.com/post/9001"
	}
	return nil
}

func (f *fakeSession) WaitURL(ctx context.Context, match publisher.URLMatcher, timeout time.Duration) (string, error) {
	if err := f.record("wait " + match.String()); err != nil {
		return "", err
	}
	if !match.Match(f.url) {
		return "", fmt.Errorf("timed out after %s waiting for %s", timeout, match)
	}
	return f.url, nil
}

func (f *fakeSession) Screenshot(ctx context.Context, path string) error {
	f.screenshots = append(f.screenshots, path)
	return os.WriteFile(path, []byte("png"), 0o644)
}

func (f *fakeSession) Close() error {
	f.closes++
	return nil
}

func (f *fakeSession) opener() publisher.Opener {
	return publisher.OpenerFunc(func(ctx context.Context) (publisher.Session, error) {
		return f, nil
	})
}

var creds = config.Credentials{Username: "alice", Password: "s3cret"}

var fixedNow = func() time.Time {
	return time.Date(2024, time.March, 7, 9, 5, 0, 0, time.Local)
}

type stepRecord struct {
	step string
	err  error
}

type recordingObserver struct {
	steps []stepRecord
}

func (o *recordingObserver) ObserveStep(step string, d time.Duration, err error) {
	o.steps = append(o.steps, stepRecord{step: step, err: err})
}

func newPublisher(t *testing.T, s *fakeSession, obs publisher.StepObserver) (*publisher.Publisher, string) {
	t.Helper()
	shot := filepath.Join(t.TempDir(), "error_screenshot.png")
	return publisher.New(s.opener(), creds, publisher.Options{
		ScreenshotPath: shot,
		Now:            fixedNow,
		Observer:       obs,
	}), shot
}

var fullSequence = []string{
	"navigate /login",
	"fill username",
	"fill password",
	"click login",
	"wait **/dashboard",
	"navigate /post/new",
	"fill title",
	"fill body",
	"click publish",
	"wait **/post/** except **/post/new",
}

func TestPublish_Success(t *testing.T) {
	session := newFakeSession()
	obs := &recordingObserver{}
	p, shot := newPublisher(t, session, obs)

	post, err := p.Publish(context.Background(), models.Fact{Text: "Bananas are berries."})
	require.NoError(t, err)

	require.Equal(t, fullSequence, session.calls)
	require.Equal(t, 1, session.closes)
	require.Empty(t, session.screenshots)
	require.NoFileExists(t, shot)

	require.Regexp(t, regexp.MustCompile(`^Did You Know\? - \d{4}-\d{2}-\d{2} \d{2}:\d{2}$`), post.Title)
	require.Equal(t, "Did You Know? - 2024-03-07 09:05", post.Title)
	require.Equal(t, "Bananas are berries.", post.Body)
	require.Equal(t, "https://www.globardiary.com/post/9001", post.URL)

	require.Equal(t, "alice", session.fields[publisher.FieldUsername])
	require.Equal(t, "s3cret", session.fields[publisher.FieldPassword])
	require.Equal(t, post.Title, session.fields[publisher.FieldTitle])
	require.Equal(t, "Bananas are berries.", session.fields[publisher.FieldBody])

	require.Len(t, obs.steps, len(fullSequence))
	for _, s := range obs.steps {
		require.NoError(t, s.err, s.step)
	}
}

func TestPublish_BodyIsByteIdentical(t *testing.T) {
	session := newFakeSession()
	p, _ := newPublisher(t, session, nil)

	text := "  <b>Tabs\tand\nnewlines</b> & \"quotes\" — ünïcödé \n"
	post, err := p.Publish(context.Background(), models.Fact{Text: text})
	require.NoError(t, err)
	require.Equal(t, text, post.Body)
	require.Equal(t, text, session.fields[publisher.FieldBody])
}

func TestPublish_FailureAtEveryStep(t *testing.T) {
	for i, call := range fullSequence {
		t.Run(call, func(t *testing.T) {
			session := newFakeSession()
			session.failAt = i
			obs := &recordingObserver{}
			p, shot := newPublisher(t, session, obs)

			_, err := p.Publish(context.Background(), models.Fact{Text: "Bananas are berries."})
			require.Error(t, err)
			require.ErrorIs(t, err, errInjected)

			var stepErr *publisher.StepError
			require.ErrorAs(t, err, &stepErr)
			require.NotEmpty(t, stepErr.Step)

			require.Equal(t, 1, session.closes)
			require.Equal(t, fullSequence[:i+1], session.calls)
			require.Equal(t, []string{shot}, session.screenshots)
			require.FileExists(t, shot)

			require.Len(t, obs.steps, i+1)
			require.Error(t, obs.steps[i].err)
		})
	}
}

func TestPublish_LoginSubmitFailure(t *testing.T) {
	session := newFakeSession()
	session.failAt = 3
	p, shot := newPublisher(t, session, nil)

	_, err := p.Publish(context.Background(), models.Fact{Text: "Bananas are berries."})

	var stepErr *publisher.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "submit login", stepErr.Step)
	require.FileExists(t, shot)
	require.Equal(t, 1, session.closes)
	for _, call := range session.calls {
		require.False(t, strings.Contains(call, publisher.NewPostPath), "unexpected call %q", call)
	}
}

func TestPublish_LoginRedirectTimeout(t *testing.T) {
	session := &stuckSession{fakeSession: newFakeSession()}
	shot := filepath.Join(t.TempDir(), "error_screenshot.png")
	p := publisher.New(publisher.OpenerFunc(func(ctx context.Context) (publisher.Session, error) {
		return session, nil
	}), creds, publisher.Options{ScreenshotPath: shot, Now: fixedNow})

	_, err := p.Publish(context.Background(), models.Fact{Text: "Bananas are berries."})

	var stepErr *publisher.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "wait for dashboard", stepErr.Step)
	require.Equal(t, 1, session.closes)
	require.FileExists(t, shot)
}

// stuckSession остаётся на странице входа после нажатия кнопки.
type stuckSession struct {
	*fakeSession
}

func (s *stuckSession) Click(ctx context.Context, control publisher.Control) error {
	return s.record("click " + string(control))
}

func TestPublish_PanicInStep(t *testing.T) {
	session := newFakeSession()
	session.panicAt = 7
	p, shot := newPublisher(t, session, nil)

	_, err := p.Publish(context.Background(), models.Fact{Text: "Bananas are berries."})
	require.Error(t, err)
	require.Contains(t, err.Error(), "panic: selector engine crashed")
	require.Equal(t, 1, session.closes)
	require.FileExists(t, shot)
}

func TestPublish_OpenFailure(t *testing.T) {
	opened := 0
	p := publisher.New(publisher.OpenerFunc(func(ctx context.Context) (publisher.Session, error) {
		opened++
		return nil, errors.New("chromium not found")
	}), creds, publisher.Options{})

	_, err := p.Publish(context.Background(), models.Fact{Text: "Bananas are berries."})
	var stepErr *publisher.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "open browser", stepErr.Step)
	require.Equal(t, 1, opened)
}

func TestPublish_CancelledContext(t *testing.T) {
	session := newFakeSession()
	p, _ := newPublisher(t, session, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Publish(ctx, models.Fact{Text: "Bananas are berries."})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, session.calls)
	require.Equal(t, 1, session.closes)
}

func TestPublish_RejectsEmptyFact(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		session := newFakeSession()
		p, _ := newPublisher(t, session, nil)

		_, err := p.Publish(context.Background(), models.Fact{Text: text})
		require.ErrorIs(t, err, publisher.ErrEmptyFact)
		require.Empty(t, session.calls)
		require.Zero(t, session.closes)
	}
}

func TestPublish_RequiresCredentials(t *testing.T) {
	session := newFakeSession()
	p := publisher.New(session.opener(), config.Credentials{Username: "alice"}, publisher.Options{})

	_, err := p.Publish(context.Background(), models.Fact{Text: "Bananas are berries."})
	require.ErrorIs(t, err, publisher.ErrMissingCredentials)
	require.Empty(t, session.calls)
}

func TestStepError(t *testing.T) {
	err := &publisher.StepError{Step: "fill title", Err: errInjected}
	require.Equal(t, `step "fill title": injected failure`, err.Error())
	require.ErrorIs(t, err, errInjected)
}
