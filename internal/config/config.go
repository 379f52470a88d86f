package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultFactAPIURL = "https://uselessfacts.jsph.pl/api/v2/facts/random"
	DefaultSiteURL    = "https://www.globardiary.com"
	DefaultScreenshot = "error_screenshot.png"
	DefaultAMQPQueue  = "fact_posts"
)

// Credentials хранит логин и пароль от сайта. Значение никогда не пишется в лог.
type Credentials struct {
	Username string
	Password string
}

// Complete сообщает, заданы ли оба значения.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

func (c Credentials) String() string {
	return "[redacted]"
}

func (c Credentials) GoString() string {
	return "config.Credentials{[redacted]}"
}

// Config хранит настройки одного запуска. Собирается один раз при старте и передаётся компонентам параметром.
type Config struct {
	FactAPIURL     string `json:"fact_api_url"`
	SiteURL        string `json:"site_url"`
	Headless       bool   `json:"headless"`
	ScreenshotPath string `json:"screenshot_path"`

	FetchTimeout   int `json:"fetch_timeout_seconds"`
	LoginTimeout   int `json:"login_timeout_seconds"`
	PublishTimeout int `json:"publish_timeout_seconds"`
	ElementTimeout int `json:"element_timeout_seconds"`

	// NavigationTimeout ограничивает загрузку страницы вместе с ожиданием тишины в сети.
	NavigationTimeout int `json:"navigation_timeout_seconds"`

	// Selectors переопределяет CSS-селекторы по логическому имени поля (username, title, publish, ...).
	Selectors map[string]string `json:"selectors"`

	DatabaseURL    string `json:"database_url"`
	PushgatewayURL string `json:"pushgateway_url"`
	AMQPURL        string `json:"amqp_url"`
	AMQPQueue      string `json:"amqp_queue"`

	LogLevel string `json:"log_level"`

	Credentials Credentials `json:"-"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		FactAPIURL:     DefaultFactAPIURL,
		SiteURL:        DefaultSiteURL,
		Headless:       true,
		ScreenshotPath: DefaultScreenshot,
		FetchTimeout:   10,
		LoginTimeout:   15,
		PublishTimeout: 10,
		ElementTimeout: 10,
		AMQPQueue:      DefaultAMQPQueue,
		LogLevel:       "info",

		NavigationTimeout: 30,
	}
}

// Validate проверяет адреса и таймауты. Учётные данные проверяет ValidateCredentials.
func (cfg *Config) Validate() error {
	urls := []struct {
		name, raw string
	}{
		{"fact API URL", cfg.FactAPIURL},
		{"site URL", cfg.SiteURL},
	}
	for _, u := range urls {
		parsed, err := url.ParseRequestURI(u.raw)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("invalid %s: %q", u.name, u.raw)
		}
	}
	for _, t := range []int{cfg.FetchTimeout, cfg.LoginTimeout, cfg.PublishTimeout, cfg.ElementTimeout, cfg.NavigationTimeout} {
		if t < 1 {
			return errors.New("timeouts must be ≥ 1 second")
		}
	}
	if cfg.ScreenshotPath == "" {
		return errors.New("screenshot path must not be empty")
	}
	return nil
}

// ValidateCredentials требует логин и пароль перед попыткой входа на сайт.
func (cfg *Config) ValidateCredentials() error {
	if cfg.Credentials.Username == "" {
		return errors.New("GLOBARDIARY_USERNAME is required")
	}
	if cfg.Credentials.Password == "" {
		return errors.New("GLOBARDIARY_PASSWORD is required")
	}
	return nil
}

func (cfg *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(cfg.FetchTimeout) * time.Second
}

func (cfg *Config) LoginTimeoutDuration() time.Duration {
	return time.Duration(cfg.LoginTimeout) * time.Second
}

func (cfg *Config) PublishTimeoutDuration() time.Duration {
	return time.Duration(cfg.PublishTimeout) * time.Second
}

func (cfg *Config) ElementTimeoutDuration() time.Duration {
	return time.Duration(cfg.ElementTimeout) * time.Second
}

func (cfg *Config) NavigationTimeoutDuration() time.Duration {
	return time.Duration(cfg.NavigationTimeout) * time.Second
}

// LoadConfig собирает конфигурацию: значения по умолчанию, затем JSON-файл по пути path
// (отсутствующий файл не ошибка), затем .env и переменные окружения.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// LoadEnvFile подгружает переменные из .env, не перетирая уже заданные в окружении.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := lookup("GLOBARDIARY_USERNAME"); ok {
		cfg.Credentials.Username = v
	}
	if v, ok := lookup("GLOBARDIARY_PASSWORD"); ok {
		cfg.Credentials.Password = v
	}

	strs := map[string]*string{
		"FACT_API_URL":    &cfg.FactAPIURL,
		"GLOBARDIARY_URL": &cfg.SiteURL,
		"SCREENSHOT_PATH": &cfg.ScreenshotPath,
		"DATABASE_URL":    &cfg.DatabaseURL,
		"PUSHGATEWAY_URL": &cfg.PushgatewayURL,
		"AMQP_URL":        &cfg.AMQPURL,
		"AMQP_QUEUE":      &cfg.AMQPQueue,
		"LOG_LEVEL":       &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FETCH_TIMEOUT_SECONDS":   &cfg.FetchTimeout,
		"LOGIN_TIMEOUT_SECONDS":   &cfg.LoginTimeout,
		"PUBLISH_TIMEOUT_SECONDS": &cfg.PublishTimeout,
		"ELEMENT_TIMEOUT_SECONDS": &cfg.ElementTimeout,

		"NAVIGATION_TIMEOUT_SECONDS": &cfg.NavigationTimeout,
	}
	for key, dst := range ints {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %q", key, v)
			}
			*dst = n
		}
	}

	if v, ok := get("HEADLESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HEADLESS: %q", v)
		}
		cfg.Headless = b
	}

	if v, ok := get("DEBUG"); ok && v == "true" {
		cfg.LogLevel = "debug"
	}
	return nil
}
