package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"strings"
	"sync"
	"time"

	"ufunda-orchestrator/internal/application/port/output"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserSession = (*BrowserAdapter)(nil)

var (
	ErrInvalidURL    = errors.New("invalid url")
	ErrSessionClosed = errors.New("browser session closed")
)

const (
	defaultSlowMotion   = 250 * time.Millisecond
	defaultTimeout      = 15 * time.Second
	maxScreenshotWidth  = 1024
	navigateIdleTimeout = 5 * time.Second
	interactIdleTimeout = 2 * time.Second
)

type BrowserAdapter struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	closed   bool
}

type BrowserConfig struct {
	Headless                bool
	SlowMotion              time.Duration
	Timeout                 time.Duration
	NoSandbox               bool
	DevTools                bool
	DisableSecurityFeatures bool
	// ControlURL connects to an already running browser instead of launching one.
	ControlURL string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:   false,
		SlowMotion: defaultSlowMotion,
		Timeout:    defaultTimeout,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var l *launcher.Launcher
	controlURL := cfg.ControlURL
	if controlURL == "" {
		l = launcher.New().
			Headless(cfg.Headless).
			Devtools(cfg.DevTools).
			NoSandbox(cfg.NoSandbox).
			Delete("use-mock-keychain")
		if cfg.DisableSecurityFeatures {
			l = l.Set("disable-web-security").
				Set("allow-running-insecure-content")
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		killLauncher(l)
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		killLauncher(l)
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
	}, nil
}

func (b *BrowserAdapter) pageFor(ctx context.Context) (*rod.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.page == nil {
		return nil, ErrSessionClosed
	}
	return b.page.Context(ctx), nil
}

func (b *BrowserAdapter) element(ctx context.Context, selector string) (*rod.Element, error) {
	p, err := b.pageFor(ctx)
	if err != nil {
		return nil, err
	}

	var el *rod.Element
	if isXPath(selector) {
		el, err = p.Timeout(b.timeout).ElementX(selector)
	} else {
		el, err = p.Timeout(b.timeout).Element(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	p, err := b.pageFor(ctx)
	if err != nil {
		return err
	}

	if err := p.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page did not load: %w", err)
	}
	_ = p.WaitIdle(navigateIdleTimeout)
	return nil
}

func (b *BrowserAdapter) Click(ctx context.Context, selector string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	if p, err := b.pageFor(ctx); err == nil {
		_ = p.WaitIdle(interactIdleTimeout)
	}
	return nil
}

// Fill replaces the value of an input or textarea, or picks the option with matching text
// in a select.
func (b *BrowserAdapter) Fill(ctx context.Context, selector, text string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}

	if tag, err := el.Property("tagName"); err == nil && strings.EqualFold(tag.Str(), "select") {
		if err := el.Select([]string{text}, true, rod.SelectorTypeText); err != nil {
			return fmt.Errorf("select failed: %w", err)
		}
		return nil
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) Upload(ctx context.Context, selector string, paths ...string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SetFiles(paths); err != nil {
		return fmt.Errorf("set files failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) Exists(ctx context.Context, selector string) (bool, error) {
	p, err := b.pageFor(ctx)
	if err != nil {
		return false, err
	}

	var has bool
	if isXPath(selector) {
		has, _, err = p.HasX(selector)
	} else {
		has, _, err = p.Has(selector)
	}
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", selector, err)
	}
	return has, nil
}

func (b *BrowserAdapter) WaitFor(ctx context.Context, selector string) error {
	_, err := b.element(ctx, selector)
	return err
}

func (b *BrowserAdapter) Text(ctx context.Context, selector string) (string, error) {
	el, err := b.element(ctx, selector)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (b *BrowserAdapter) HTML(ctx context.Context) (string, error) {
	p, err := b.pageFor(ctx)
	if err != nil {
		return "", err
	}
	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// Screenshot captures the full page as JPEG, downscaled to at most 1024px wide.
func (b *BrowserAdapter) Screenshot(ctx context.Context) ([]byte, error) {
	p, err := b.pageFor(ctx)
	if err != nil {
		return nil, err
	}

	imgBytes, err := p.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *BrowserAdapter) CurrentURL() string {
	p, err := b.pageFor(context.Background())
	if err != nil {
		return ""
	}
	info, err := p.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.browser != nil && b.page != nil
}

// Close is idempotent.
func (b *BrowserAdapter) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	killLauncher(b.launcher)
	return err
}

func killLauncher(l *launcher.Launcher) {
	if l == nil {
		return
	}
	l.Kill()
	l.Cleanup()
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(/")
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
