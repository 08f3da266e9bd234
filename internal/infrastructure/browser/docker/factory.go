package docker

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/infrastructure/browser/rod"
)

var (
	_ output.SessionFactory = (*Factory)(nil)
	_ output.BrowserSession = (*Session)(nil)
)

const (
	defaultReadyTimeout = 10 * time.Second
	readyPollInterval   = 500 * time.Millisecond
	cleanupTimeout      = 30 * time.Second
)

// Containers starts and removes browser containers. *Engine is the real implementation.
type Containers interface {
	Launch(ctx context.Context, name string, labels map[string]string) (Container, error)
	Stop(ctx context.Context, id string) error
}

// ConnectFunc attaches a browser session to a running CDP endpoint.
type ConnectFunc func(ctx context.Context, controlURL string) (output.BrowserSession, error)

type Config struct {
	Host         string
	ReadyTimeout time.Duration
	Browser      rod.BrowserConfig
	// Connect overrides how a session is attached; defaults to a rod session.
	Connect ConnectFunc
}

// Factory gives every session its own container, removed again when the session closes.
type Factory struct {
	containers   Containers
	host         string
	readyTimeout time.Duration
	connect      ConnectFunc
	httpClient   *http.Client
	logger       output.LoggerPort
}

func NewFactory(containers Containers, cfg Config, logger output.LoggerPort) *Factory {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	if cfg.Connect == nil {
		browserCfg := cfg.Browser
		cfg.Connect = func(ctx context.Context, controlURL string) (output.BrowserSession, error) {
			browserCfg.ControlURL = controlURL
			return rod.NewBrowserAdapter(ctx, browserCfg)
		}
	}
	return &Factory{
		containers:   containers,
		host:         cfg.Host,
		readyTimeout: cfg.ReadyTimeout,
		connect:      cfg.Connect,
		httpClient:   &http.Client{Timeout: readyPollInterval * 2},
		logger:       logger,
	}
}

func (f *Factory) Open(ctx context.Context, owner string) (output.BrowserSession, error) {
	sessionID := uuid.NewString()
	name := fmt.Sprintf("ufunda-%s-%s", containerSafe(owner), sessionID[:8])
	log := f.logger.WithFields(map[string]any{"owner": owner, "container": name})

	c, err := f.containers.Launch(ctx, name, map[string]string{
		"managed-by": "ufunda-orchestrator",
		"session-id": sessionID,
		"bot":        owner,
	})
	if err != nil {
		log.Error("Container launch failed", "error", err)
		return nil, err
	}

	stop := func() error {
		stopCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		return f.containers.Stop(stopCtx, c.ID)
	}

	base := fmt.Sprintf("%s:%s", f.host, c.Port)
	if err := f.waitReady(ctx, "http://"+base+"/json/version"); err != nil {
		log.Error("Browser container not ready", "error", err)
		if stopErr := stop(); stopErr != nil {
			log.Warn("Container cleanup failed", "error", stopErr)
		}
		return nil, fmt.Errorf("browser failed to become ready: %w", err)
	}

	browser, err := f.connect(ctx, "ws://"+base)
	if err != nil {
		log.Error("Browser connect failed", "error", err)
		if stopErr := stop(); stopErr != nil {
			log.Warn("Container cleanup failed", "error", stopErr)
		}
		return nil, err
	}

	log.Debug("Browser container ready", "port", c.Port)
	return &Session{BrowserSession: browser, containerID: c.ID, stop: stop}, nil
}

// waitReady polls the CDP version endpoint until it answers 200.
func (f *Factory) waitReady(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, f.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := f.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s did not answer: %w", url, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Session is a browser session whose Close also removes the backing container.
type Session struct {
	output.BrowserSession

	containerID string
	stop        func() error
	once        sync.Once
	closeErr    error
}

func (s *Session) ContainerID() string {
	return s.containerID
}

func (s *Session) Close() error {
	s.once.Do(func() {
		browserErr := s.BrowserSession.Close()
		stopErr := s.stop()
		if browserErr != nil {
			s.closeErr = browserErr
			return
		}
		s.closeErr = stopErr
	})
	return s.closeErr
}

func containerSafe(owner string) string {
	owner = strings.ToLower(owner)
	var b strings.Builder
	for _, r := range owner {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "bot"
	}
	return b.String()
}
