package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// HTTP server
	Host  string `env:"HOST" envDefault:"0.0.0.0"`
	Port  int    `env:"PORT" envDefault:"8000"`
	Debug bool   `env:"DEBUG" envDefault:"false"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Storage
	DataFilePath string `env:"DATA_FILE" envDefault:"data/journal.json"`

	// Reports
	ReportOutputDir string `env:"REPORT_OUTPUT_DIR" envDefault:"reports"`
	// ReportCron is a cron expression (UTC) for scheduled doctor reports;
	// empty disables the scheduler.
	ReportCron string `env:"REPORT_CRON"`

	// Sensor data
	SensorWindowHours int `env:"SENSOR_WINDOW_HOURS" envDefault:"12"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
