package rod

import (
	"context"

	"ufunda-orchestrator/internal/application/port/output"
)

var _ output.SessionFactory = (*Factory)(nil)

// Factory launches a fresh local Chrome for every session.
type Factory struct {
	cfg    BrowserConfig
	logger output.LoggerPort
}

func NewFactory(cfg BrowserConfig, logger output.LoggerPort) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

func (f *Factory) Open(ctx context.Context, owner string) (output.BrowserSession, error) {
	f.logger.Debug("Launching browser", "owner", owner, "headless", f.cfg.Headless)
	adapter, err := NewBrowserAdapter(ctx, f.cfg)
	if err != nil {
		f.logger.Error("Browser launch failed", "owner", owner, "error", err)
		return nil, err
	}
	return adapter, nil
}
