package commands

import (
	"context"

	"factposter/internal/config"
	"factposter/internal/logger"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "factposter",
	Short:         "factposter fetches a random fact and publishes it as a globardiary.com post.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to an optional JSON config file")
}

// ExecuteContext запускает команду и возвращает код выхода: 0 при успехе, 1 при любой ошибке.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Log.Errorf("factposter: %v", err)
		return 1
	}
	return 0
}

// loadConfig читает и проверяет конфигурацию, затем выставляет уровень логирования из неё.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
