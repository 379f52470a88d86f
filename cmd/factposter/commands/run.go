package commands

import (
	"context"
	"time"

	"factposter/internal/browser"
	"factposter/internal/config"
	"factposter/internal/db"
	"factposter/internal/fetcher"
	"factposter/internal/logger"
	"factposter/internal/metrics"
	"factposter/internal/publisher"
	"factposter/internal/queue"
	"factposter/internal/workflow"

	"github.com/spf13/cobra"
)

const pushTimeout = 5 * time.Second

var headed bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch one fact and publish it as a new post.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}
		if headed {
			cfg.Headless = false
		}
		return runOnce(cmd.Context(), cfg)
	},
}

func init() {
	runCmd.Flags().BoolVar(&headed, "headed", false, "show the browser window instead of running headless")
	rootCmd.AddCommand(runCmd)
}

func runOnce(ctx context.Context, cfg *config.Config) error {
	log := logger.Component("main")

	selectors, err := browser.DefaultSelectors().Override(cfg.Selectors)
	if err != nil {
		return err
	}

	m := metrics.New()
	launcher := browser.NewLauncher(cfg.SiteURL, cfg.Headless, selectors, cfg.ElementTimeoutDuration(), cfg.NavigationTimeoutDuration())
	pub := publisher.New(launcher, cfg.Credentials, publisher.Options{
		ScreenshotPath: cfg.ScreenshotPath,
		LoginTimeout:   cfg.LoginTimeoutDuration(),
		PublishTimeout: cfg.PublishTimeoutDuration(),
		Observer:       m,
	})

	opts := []workflow.Option{workflow.WithObserver(m)}

	// Журнал и события необязательны: если брокер или база недоступны, пост всё равно публикуется.
	if cfg.DatabaseURL != "" {
		database, err := openLedger(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warnf("Run ledger disabled: %v", err)
		} else {
			defer database.Close()
			opts = append(opts, workflow.WithRecorder(database))
		}
	}
	if cfg.AMQPURL != "" {
		producer, err := queue.NewProducer(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Warnf("Publish events disabled: %v", err)
		} else {
			defer producer.Close()
			opts = append(opts, workflow.WithNotifier(producer))
		}
	}

	runner := workflow.NewRunner(fetcher.New(cfg.FactAPIURL, cfg.FetchTimeoutDuration()), pub, opts...)
	runErr := runner.Run(ctx)

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		defer cancel()
		if err := m.Push(pushCtx, cfg.PushgatewayURL); err != nil {
			log.Warnf("Failed to push metrics: %v", err)
		}
	}
	return runErr
}

func openLedger(ctx context.Context, url string) (*db.Database, error) {
	database, err := db.NewDB(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
