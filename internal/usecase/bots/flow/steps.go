package flow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Field pairs a selector with the value to type into it.
type Field struct {
	Selector string
	Value    string
}

// Fill types value into selector. Blank values are skipped so optional inputs stay untouched.
func Fill(ctx context.Context, st *State, selector, value string) error {
	if value == "" {
		return nil
	}
	if err := st.Session.Fill(ctx, selector, value); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

func FillAll(ctx context.Context, st *State, fields ...Field) error {
	for _, f := range fields {
		if err := Fill(ctx, st, f.Selector, f.Value); err != nil {
			return err
		}
	}
	return nil
}

// FillOptional is Fill that downgrades a missing field to a warning.
func FillOptional(ctx context.Context, st *State, phase, selector, value string) {
	if err := Fill(ctx, st, selector, value); err != nil {
		st.Warn(phase, "could not fill %s: %v", selector, err)
	}
}

func Click(ctx context.Context, st *State, selector string) error {
	if err := st.Session.Click(ctx, selector); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// RetryClick clicks selector up to three times with exponential backoff between tries.
func RetryClick(ctx context.Context, st *State, selector string) error {
	backoff := st.runner.opts.RetryBackoff
	var last error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if last = st.Session.Click(ctx, selector); last == nil {
			return nil
		}
		st.log.Warn("Click attempt failed", "selector", selector, "attempt", attempt+1, "error", last)
		if attempt == retryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff << attempt):
		}
	}
	return fmt.Errorf("could not click %s after %d attempts: %w", selector, retryAttempts, last)
}

// Exists reports whether selector is on the page. Lookup errors count as absent.
func Exists(ctx context.Context, st *State, selector string) bool {
	ok, err := st.Session.Exists(ctx, selector)
	if err != nil {
		st.log.Debug("Existence check failed", "selector", selector, "error", err)
		return false
	}
	return ok
}

// Upload attaches the document registered under kind. A missing entry or a file that is not
// on disk is a warning, not a failure.
func Upload(ctx context.Context, st *State, selector, kind, path string) error {
	if path == "" {
		st.Warn("upload", "missing upload %s", kind)
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		st.Warn("upload", "bad path for %s: %v", kind, err)
		return nil
	}
	if _, err := os.Stat(abs); err != nil {
		st.Warn("upload", "document %s not found at %s", kind, path)
		return nil
	}
	if err := st.Session.Upload(ctx, selector, abs); err != nil {
		return fmt.Errorf("upload %s: %w", kind, err)
	}
	st.Logger().Info("Uploaded document", "kind", kind)
	return nil
}

func WaitFor(ctx context.Context, st *State, selector string) error {
	if err := st.Session.WaitFor(ctx, selector); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// Card is a payment card used on fee pages.
type Card struct {
	Number string
	Name   string
	Expiry string
	CVV    string
}

// Or fills blank fields of c from fallback.
func (c Card) Or(fallback Card) Card {
	if c.Number == "" {
		c.Number = fallback.Number
	}
	if c.Name == "" {
		c.Name = fallback.Name
	}
	if c.Expiry == "" {
		c.Expiry = fallback.Expiry
	}
	if c.CVV == "" {
		c.CVV = fallback.CVV
	}
	return c
}

// Missing names the blank fields using the applicant context keys.
func (c Card) Missing(withName bool) []string {
	var out []string
	if c.Number == "" {
		out = append(out, "card_number")
	}
	if withName && c.Name == "" {
		out = append(out, "card_name")
	}
	if c.Expiry == "" {
		out = append(out, "card_expiry")
	}
	if c.CVV == "" {
		out = append(out, "card_cvv")
	}
	return out
}
