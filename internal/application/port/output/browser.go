package output

import "context"

// BrowserSession is a single browser tab a bot drives. Selectors starting with "/" are XPath,
// everything else is CSS.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	Upload(ctx context.Context, selector string, paths ...string) error

	Exists(ctx context.Context, selector string) (bool, error)
	WaitFor(ctx context.Context, selector string) error
	Text(ctx context.Context, selector string) (string, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	CurrentURL() string
	IsReady() bool
	Close() error
}

// SessionFactory opens sessions for bots that were not handed one.
type SessionFactory interface {
	Open(ctx context.Context, owner string) (BrowserSession, error)
}
