// Package config assembles the runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"ufunda-orchestrator/internal/application/port/output"
)

const (
	ProviderLocal  = "local"
	ProviderDocker = "docker"
	ProviderDryRun = "dryrun"
)

type Config struct {
	ArtifactDir string
	LogDir      string
	LogLevel    string

	BrowserProvider   string
	BrowserHeadless   bool
	BrowserSlowMotion time.Duration
	DockerImage       string

	BotTimeout         time.Duration
	StepTimeout        time.Duration
	RetryBackoff       time.Duration
	MaxWorkers         int
	ScreenshotEachStep bool

	HTTPAddr                string
	NotificationRatePerHour int
	NotificationBurst       int

	UJPortalURL         string
	NSFASPortalURL      string
	StellenboschBaseURL string
	WitsBaseURL         string
	UCTPortalURL        string
	UCTUsername         string
	UCTPassword         string

	CardNumber string
	CardName   string
	CardExpiry string
	CardCVV    string

	OpenRouterAPIKey string
	OpenRouterModel  string
}

// Load reads every setting, applying defaults for anything unset.
func Load(env output.ConfigPort) (Config, error) {
	cfg := Config{
		ArtifactDir: env.GetWithDefault("ARTIFACT_DIR", "artifacts"),
		LogDir:      env.GetWithDefault("LOG_DIR", "log"),
		LogLevel:    env.GetWithDefault("BOT_LOG_LEVEL", "info"),

		BrowserProvider:   strings.ToLower(env.GetWithDefault("BROWSER_PROVIDER", ProviderLocal)),
		BrowserHeadless:   env.GetBool("BROWSER_HEADLESS", true),
		BrowserSlowMotion: time.Duration(env.GetInt("BROWSER_SLOW_MOTION_MS", 250)) * time.Millisecond,
		DockerImage:       env.GetWithDefault("BROWSER_DOCKER_IMAGE", "browserless/chrome:latest"),

		BotTimeout:         env.GetDuration("BOT_TIMEOUT_SECONDS", 5*time.Minute),
		StepTimeout:        env.GetDuration("STEP_TIMEOUT_SECONDS", 15*time.Second),
		RetryBackoff:       env.GetDuration("RETRY_BACKOFF", time.Second),
		MaxWorkers:         env.GetInt("MAX_WORKERS", 3),
		ScreenshotEachStep: env.GetBool("SCREENSHOT_EACH_STEP", true),

		HTTPAddr:                env.GetWithDefault("HTTP_ADDR", ":8080"),
		NotificationRatePerHour: env.GetInt("NOTIFICATION_RATE_PER_HOUR", 100),
		NotificationBurst:       env.GetInt("NOTIFICATION_BURST", 10),

		UJPortalURL:         env.Get("UJ_PORTAL_URL"),
		NSFASPortalURL:      env.Get("NSFAS_PORTAL_URL"),
		StellenboschBaseURL: env.Get("STELLENBOSCH_BASE_URL"),
		WitsBaseURL:         env.Get("WITS_BASE_URL"),
		UCTPortalURL:        env.Get("UCT_PORTAL_URL"),
		UCTUsername:         env.Get("UCT_USERNAME"),
		UCTPassword:         env.Get("UCT_PASSWORD"),

		CardNumber: env.Get("PAYMENT_CARD_NUMBER"),
		CardName:   env.Get("PAYMENT_CARD_NAME"),
		CardExpiry: env.Get("PAYMENT_CARD_EXPIRY"),
		CardCVV:    env.Get("PAYMENT_CARD_CVV"),

		OpenRouterAPIKey: env.Get("OPENROUTER_API_KEY"),
		OpenRouterModel:  env.GetWithDefault("OPENROUTER_MODEL_NAME", "openai/gpt-4o-mini"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.BrowserProvider {
	case ProviderLocal, ProviderDocker, ProviderDryRun:
	default:
		return fmt.Errorf("BROWSER_PROVIDER must be %s, %s or %s, got %q",
			ProviderLocal, ProviderDocker, ProviderDryRun, c.BrowserProvider)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("MAX_WORKERS must be positive, got %d", c.MaxWorkers)
	}
	if c.BotTimeout <= 0 {
		return fmt.Errorf("BOT_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// ClassifierEnabled reports whether notifications may fall back to the LLM classifier.
func (c Config) ClassifierEnabled() bool {
	return c.OpenRouterAPIKey != ""
}
