package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration
	Server struct {
		// Port the HTTP API listens on
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Allowed CORS origins, comma separated
		AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	// Paths configuration
	Paths struct {
		// Change ledger JSON file
		LedgerPath string `env:"LEDGER_PATH" envDefault:"data/price-changes.json"`

		// SQLite mirror store of persisted changes
		DatabasePath string `env:"DATABASE_PATH" envDefault:"data/rateminder.db"`

		// Pricing policy JSON file (strategy, thresholds, properties)
		PricingConfigPath string `env:"PRICING_CONFIG_PATH" envDefault:"config/pricing.json"`

		// External automation script that reads and applies platform prices
		AutomationScript string `env:"AUTOMATION_SCRIPT" envDefault:"scripts/platform_automation.py"`
	}

	// Schedule configuration
	Schedule struct {
		// Cron expression for periodic pricing runs
		Cron string `env:"PRICING_CRON" envDefault:"0 6 * * *"`

		// Whether to run a pricing pass immediately on startup
		RunOnStartup bool `env:"RUN_ON_STARTUP" envDefault:"false"`
	}

	// BatchProcessing configuration for the mirror-store pipeline
	BatchProcessing struct {
		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"1"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`

		// Queue buffer size in batches
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"16"`
	}

	// Telegram notification configuration
	Telegram struct {
		Enabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
