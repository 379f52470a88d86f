package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"factposter/internal/logger"
	"factposter/internal/publisher"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const (
	pageStableDur   = 500 * time.Millisecond
	urlPollInterval = 100 * time.Millisecond

	DefaultNavigationTimeout = 30 * time.Second
)

// Launcher открывает сессии headless Chromium через Rod.
type Launcher struct {
	baseURL           string
	headless          bool
	selectors         Selectors
	elementTimeout    time.Duration
	navigationTimeout time.Duration
}

// NewLauncher создаёт Launcher для сайта baseURL. elementTimeout ограничивает поиск каждого элемента,
// navigationTimeout ограничивает каждый переход вместе с ожиданием загрузки. Ноль означает DefaultNavigationTimeout.
func NewLauncher(baseURL string, headless bool, selectors Selectors, elementTimeout, navigationTimeout time.Duration) *Launcher {
	if navigationTimeout <= 0 {
		navigationTimeout = DefaultNavigationTimeout
	}
	return &Launcher{
		baseURL:           strings.TrimRight(baseURL, "/"),
		headless:          headless,
		selectors:         selectors,
		elementTimeout:    elementTimeout,
		navigationTimeout: navigationTimeout,
	}
}

// Open запускает браузер и открывает одну вкладку. Если что-то не поднялось, уже запущенное гасится.
func (l *Launcher) Open(ctx context.Context) (publisher.Session, error) {
	lch := launcher.New().
		Context(ctx).
		Headless(l.headless).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage")

	u, err := lch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch headless browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lch.Kill()
		lch.Cleanup()
		return nil, fmt.Errorf("connect to headless browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		lch.Kill()
		lch.Cleanup()
		return nil, fmt.Errorf("create tab: %w", err)
	}

	return &Session{
		launcher:          lch,
		browser:           browser,
		page:              page,
		baseURL:           l.baseURL,
		selectors:         l.selectors,
		elementTimeout:    l.elementTimeout,
		navigationTimeout: l.navigationTimeout,
		log:               logger.Component("browser"),
	}, nil
}

// Session управляет одной вкладкой браузера на одном сайте.
type Session struct {
	launcher          *launcher.Launcher
	browser           *rod.Browser
	page              *rod.Page
	baseURL           string
	selectors         Selectors
	elementTimeout    time.Duration
	navigationTimeout time.Duration
	log               *logger.Entry

	closeOnce sync.Once
	closeErr  error
}

// Navigate открывает path относительно адреса сайта и ждёт, пока страница загрузится и успокоится.
// Весь переход укладывается в navigationTimeout.
func (s *Session) Navigate(ctx context.Context, path string) error {
	target := JoinURL(s.baseURL, path)
	s.log.WithField("url", target).Debug("Navigating")

	page := s.page.Context(ctx).Timeout(s.navigationTimeout)
	defer page.CancelTimeout()

	if err := page.Navigate(target); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s to load: %w", target, err)
	}
	if err := page.WaitStable(pageStableDur); err != nil {
		return fmt.Errorf("wait for %s to settle: %w", target, err)
	}
	return nil
}

// Fill заменяет содержимое поля field на value.
func (s *Session) Fill(ctx context.Context, field publisher.Field, value string) error {
	css, err := s.selectors.field(field)
	if err != nil {
		return err
	}

	page := s.page.Context(ctx).Timeout(s.elementTimeout)
	defer page.CancelTimeout()

	el, err := page.Element(css)
	if err != nil {
		return fmt.Errorf("find %s field %s: %w", field, css, err)
	}
	// contenteditable не поддерживает select(), тогда ввод просто дописывается в пустой блок.
	if err := el.SelectAllText(); err != nil {
		s.log.WithField("field", string(field)).Debugf("Select all text failed: %v", err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("fill %s field: %w", field, err)
	}
	return nil
}

// Click нажимает на кнопку control.
func (s *Session) Click(ctx context.Context, control publisher.Control) error {
	target, err := s.selectors.control(control)
	if err != nil {
		return err
	}

	page := s.page.Context(ctx).Timeout(s.elementTimeout)
	defer page.CancelTimeout()

	var el *rod.Element
	if target.Text != "" {
		el, err = page.ElementR(target.CSS, target.Text)
	} else {
		el, err = page.Element(target.CSS)
	}
	if err != nil {
		return fmt.Errorf("find %s control %s: %w", control, target.CSS, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", control, err)
	}
	return nil
}

// WaitURL опрашивает адрес вкладки, пока он не совпадёт с match или не выйдет timeout.
func (s *Session) WaitURL(ctx context.Context, match publisher.URLMatcher, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(urlPollInterval)
	defer ticker.Stop()

	last := ""
	for {
		info, err := s.page.Context(ctx).Info()
		if err == nil {
			last = info.URL
			if match.Match(last) {
				return last, nil
			}
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for URL %s (last %q) after %s: %w", match, last, timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Screenshot сохраняет PNG всей страницы в path, перезаписывая старый файл.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	data, err := s.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Close закрывает браузер и убирает временный профиль. Повторные вызовы ничего не делают.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return s.closeErr
}

// JoinURL склеивает адрес сайта и путь ровно с одним "/" между ними.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
