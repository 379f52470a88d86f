package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"factposter/internal/config"
	"factposter/internal/logger"
	"factposter/internal/models"
)

const (
	LoginPath   = "/login"
	NewPostPath = "/post/new"

	DefaultLoginTimeout   = 15 * time.Second
	DefaultPublishTimeout = 10 * time.Second
)

var (
	DashboardMatcher  = Glob("**/dashboard")
	PostDetailMatcher = Except(Glob("**/post/**"), Glob("**"+NewPostPath))
)

var (
	ErrEmptyFact          = errors.New("fact is empty")
	ErrMissingCredentials = errors.New("credentials are not set")
)

// StepError описывает ошибку шага публикации. Step совпадает с именем шага в логах и метриках.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepObserver получает длительность и результат каждого шага.
type StepObserver interface {
	ObserveStep(step string, d time.Duration, err error)
}

// Options задаёт необязательные настройки Publisher. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	ScreenshotPath string
	LoginTimeout   time.Duration
	PublishTimeout time.Duration
	Now            func() time.Time
	Observer       StepObserver
}

// Publisher входит на сайт и публикует факт новым постом.
type Publisher struct {
	opener Opener
	creds  config.Credentials
	opts   Options
	log    *logger.Entry
}

// New создаёт Publisher. Учётные данные передаются явно и больше нигде не читаются.
func New(opener Opener, creds config.Credentials, opts Options) *Publisher {
	if opts.ScreenshotPath == "" {
		opts.ScreenshotPath = config.DefaultScreenshot
	}
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = DefaultLoginTimeout
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Publisher{
		opener: opener,
		creds:  creds,
		opts:   opts,
		log:    logger.Component("publisher"),
	}
}

type step struct {
	name string
	run  func(ctx context.Context, s Session) error
}

// Publish проходит шаги от входа до публикации. Первая ошибка прерывает цепочку,
// сохраняет скриншот и возвращается как *StepError. Сессия закрывается ровно один раз на любом пути.
func (p *Publisher) Publish(ctx context.Context, fact models.Fact) (models.Post, error) {
	if strings.TrimSpace(fact.Text) == "" {
		return models.Post{}, ErrEmptyFact
	}
	if !p.creds.Complete() {
		return models.Post{}, ErrMissingCredentials
	}

	post := models.Post{
		Title: models.PostTitle(p.opts.Now()),
		Body:  fact.Text,
	}

	p.log.Info("Starting browser to publish the fact")
	session, err := p.opener.Open(ctx)
	if err != nil {
		p.log.Errorf("Failed to open browser session: %v", err)
		return post, &StepError{Step: "open browser", Err: err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			p.log.Warnf("Failed to close browser session: %v", err)
		}
	}()

	for _, st := range p.steps(&post) {
		log := p.log.WithField("step", st.name)
		log.Info("Running step")

		start := time.Now()
		err := runStep(ctx, session, st)
		if p.opts.Observer != nil {
			p.opts.Observer.ObserveStep(st.name, time.Since(start), err)
		}
		if err != nil {
			log.Errorf("An error occurred during the posting process: %v", err)
			p.capture(ctx, session)
			return post, &StepError{Step: st.name, Err: err}
		}
	}

	p.log.WithField("url", post.URL).Info("Post published successfully")
	return post, nil
}

func (p *Publisher) steps(post *models.Post) []step {
	return []step{
		{"open login page", func(ctx context.Context, s Session) error {
			return s.Navigate(ctx, LoginPath)
		}},
		{"fill username", func(ctx context.Context, s Session) error {
			return s.Fill(ctx, FieldUsername, p.creds.Username)
		}},
		{"fill password", func(ctx context.Context, s Session) error {
			return s.Fill(ctx, FieldPassword, p.creds.Password)
		}},
		{"submit login", func(ctx context.Context, s Session) error {
			return s.Click(ctx, ControlLogin)
		}},
		{"wait for dashboard", func(ctx context.Context, s Session) error {
			_, err := s.WaitURL(ctx, DashboardMatcher, p.opts.LoginTimeout)
			return err
		}},
		{"open new post page", func(ctx context.Context, s Session) error {
			return s.Navigate(ctx, NewPostPath)
		}},
		{"fill title", func(ctx context.Context, s Session) error {
			return s.Fill(ctx, FieldTitle, post.Title)
		}},
		{"fill body", func(ctx context.Context, s Session) error {
			return s.Fill(ctx, FieldBody, post.Body)
		}},
		{"submit post", func(ctx context.Context, s Session) error {
			return s.Click(ctx, ControlPublish)
		}},
		{"wait for post page", func(ctx context.Context, s Session) error {
			url, err := s.WaitURL(ctx, PostDetailMatcher, p.opts.PublishTimeout)
			if err != nil {
				return err
			}
			post.URL = url
			return nil
		}},
	}
}

// runStep превращает панику внутри шага в обычную ошибку шага.
func runStep(ctx context.Context, s Session, st step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return st.run(ctx, s)
}

func (p *Publisher) capture(ctx context.Context, s Session) {
	// Снимок делается даже если ctx уже отменён.
	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.Screenshot(shotCtx, p.opts.ScreenshotPath); err != nil {
		p.log.Warnf("Failed to save error screenshot: %v", err)
		return
	}
	p.log.WithField("path", p.opts.ScreenshotPath).Info("Saved error screenshot")
}
