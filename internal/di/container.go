package di

import (
	"context"
	"fmt"

	"ufunda-orchestrator/internal/adapter/api"
	"ufunda-orchestrator/internal/application/port/input"
	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/application/service"
	"ufunda-orchestrator/internal/infrastructure/artifact"
	"ufunda-orchestrator/internal/infrastructure/browser/docker"
	"ufunda-orchestrator/internal/infrastructure/browser/dryrun"
	"ufunda-orchestrator/internal/infrastructure/browser/rod"
	"ufunda-orchestrator/internal/infrastructure/config"
	"ufunda-orchestrator/internal/infrastructure/llm/openrouter"
	"ufunda-orchestrator/internal/infrastructure/logger"
	"ufunda-orchestrator/internal/infrastructure/userinteraction"
	"ufunda-orchestrator/internal/usecase/bots/flow"
	"ufunda-orchestrator/internal/usecase/bots/nsfas"
	"ufunda-orchestrator/internal/usecase/bots/uct"
	"ufunda-orchestrator/internal/usecase/bots/uj"
	"ufunda-orchestrator/internal/usecase/bots/university"
	"ufunda-orchestrator/internal/usecase/orchestrator"
	"ufunda-orchestrator/internal/usecase/status"
)

type Container struct {
	Config       config.Config
	Logger       output.LoggerPort
	Artifacts    *artifact.Store
	Sessions     output.SessionFactory
	Events       *service.EventBus
	Bots         input.BotRegistry
	Tracker      *status.Tracker
	Hub          *api.Hub
	Console      *userinteraction.ConsoleUserInteraction
	Orchestrator input.Dispatcher

	closers []func() error
}

// NewContainer builds the whole object graph. name becomes part of the log file name.
func NewContainer(ctx context.Context, cfg config.Config, name string) (*Container, error) {
	logCfg := logger.DefaultConfig(name)
	logCfg.Dir = cfg.LogDir
	logCfg.Level = cfg.LogLevel
	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{
		Config:    cfg,
		Logger:    log,
		Artifacts: artifact.NewStore(cfg.ArtifactDir),
		Hub:       api.NewHub(log),
		Console:   userinteraction.NewConsoleUserInteraction(),
	}

	sessions, err := c.sessionFactory(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Sessions = sessions

	var classifier output.UniversityClassifier
	if cfg.ClassifierEnabled() {
		llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
		llmCfg.Logger = log
		classifier = openrouter.NewOpenRouterAdapter(llmCfg)
	}

	c.Events = service.NewEventBus(c.Hub, c.Console)
	c.Bots = c.buildBots()
	c.Tracker = status.New(status.Config{
		Universities: universities(c.Bots),
		Classifier:   classifier,
		Events:       c.Hub,
		Logger:       log,
	})
	c.Events.Subscribe(c.Tracker)

	c.Orchestrator = orchestrator.New(c.Bots, c.Artifacts, c.Tracker, log, c.Console, cfg.MaxWorkers)

	log.Info("Container ready",
		"provider", cfg.BrowserProvider,
		"bots", c.Bots.Names(),
		"classifier", classifier != nil,
	)
	return c, nil
}

func (c *Container) sessionFactory(ctx context.Context) (output.SessionFactory, error) {
	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = c.Config.BrowserHeadless
	browserCfg.SlowMotion = c.Config.BrowserSlowMotion
	browserCfg.Timeout = c.Config.StepTimeout

	switch c.Config.BrowserProvider {
	case config.ProviderDryRun:
		return dryrun.NewFactory(nil), nil
	case config.ProviderDocker:
		engine, err := docker.NewEngine(c.Config.DockerImage)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, engine.Close)
		if err := engine.EnsureImage(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure browser image: %w", err)
		}
		return docker.NewFactory(engine, docker.Config{Browser: browserCfg}, c.Logger), nil
	default:
		return rod.NewFactory(browserCfg, c.Logger), nil
	}
}

func (c *Container) buildBots() *service.BotRegistryImpl {
	cfg := c.Config
	opts := flow.Options{
		Timeout:      cfg.BotTimeout,
		RetryBackoff: cfg.RetryBackoff,
		Screenshots:  cfg.ScreenshotEachStep,
		Sessions:     c.Sessions,
		Artifacts:    c.Artifacts,
		Events:       c.Events,
		Logger:       c.Logger,
	}
	card := flow.Card{
		Number: cfg.CardNumber,
		Name:   cfg.CardName,
		Expiry: cfg.CardExpiry,
		CVV:    cfg.CardCVV,
	}

	return service.NewBotRegistry(
		uj.New(uj.Config{PortalURL: cfg.UJPortalURL, Card: card}, opts),
		nsfas.New(nsfas.Config{PortalURL: cfg.NSFASPortalURL}, opts),
		university.NewStellenbosch(university.Config{BaseURL: cfg.StellenboschBaseURL, Card: card}, opts),
		university.NewWits(university.Config{BaseURL: cfg.WitsBaseURL, Card: card}, opts),
		uct.New(uct.Config{PortalURL: cfg.UCTPortalURL, Username: cfg.UCTUsername, Password: cfg.UCTPassword}, opts),
	)
}

// APIHandler builds the HTTP handlers over the container's tracker and orchestrator.
func (c *Container) APIHandler() *api.Handler {
	limiter := api.NewLimiter(c.Config.NotificationRatePerHour, c.Config.NotificationBurst)
	return api.NewHandler(c.Tracker, c.Orchestrator, limiter, c.Logger)
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && c.Logger != nil {
			c.Logger.Warn("Close failed", "error", err)
		}
	}
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}

func universities(bots input.BotRegistry) map[string]string {
	out := make(map[string]string)
	for _, b := range bots.All() {
		out[b.Name()] = b.University()
	}
	return out
}
