// Package uct applies to the University of Cape Town.
package uct

import (
	"context"
	"errors"
	"fmt"

	"ufunda-orchestrator/internal/application/port/input"
	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

const (
	Name             = "uct"
	DefaultPortalURL = "https://www.uct.ac.za/apply"

	loginButton  = "//button[contains(., 'Login') or contains(., 'Sign in')]"
	startLink    = "//a[contains(., 'Apply') or contains(., 'Start application')]"
	submitButton = "//button[contains(., 'Submit') or contains(., 'Finish')]"
	confirmation = "//*[contains(., 'Thank you') or contains(., 'submitted') or contains(., 'reference number')]"
	anyFileInput = "input[type='file']"
)

var _ input.Bot = (*Bot)(nil)

// candidates lists the input names each applicant field may appear under, in order of preference.
var candidates = []struct {
	key   string
	names []string
}{
	{"first_name", []string{"firstName", "given_name", "first_name"}},
	{"last_name", []string{"lastName", "family_name", "last_name"}},
	{"email", []string{"email", "emailAddress"}},
	{"phone", []string{"phone", "mobile", "phoneNumber"}},
	{"id_number", []string{"idNumber", "national_id", "id"}},
}

type Config struct {
	PortalURL string
	Username  string
	Password  string
}

type Bot struct {
	cfg    Config
	runner *flow.Runner
}

func New(cfg Config, opts flow.Options) *Bot {
	if cfg.PortalURL == "" {
		cfg.PortalURL = DefaultPortalURL
	}
	opts.Bot = Name
	return &Bot{cfg: cfg, runner: flow.NewRunner(opts)}
}

func (b *Bot) Name() string       { return Name }
func (b *Bot) University() string { return "University of Cape Town" }

func (b *Bot) Run(ctx context.Context, session output.BrowserSession, applicant entity.Context) entity.Result {
	f, err := bind(applicant, b.cfg)
	if err != nil {
		return b.runner.Fail(ctx, err)
	}
	return b.runner.Execute(ctx, session, b.steps(f))
}

func (b *Bot) steps(f form) []flow.Step {
	return []flow.Step{
		{Name: "go_to_portal", Run: func(ctx context.Context, st *flow.State) error {
			return st.Session.Navigate(ctx, b.cfg.PortalURL)
		}},
		{Name: "login", Run: func(ctx context.Context, st *flow.State) error {
			if !flow.Exists(ctx, st, "[name='username']") {
				return nil
			}
			if f.Username == "" || f.Password == "" {
				st.Warn("login", "no UCT credentials provided; skipping login")
				return nil
			}
			err := flow.FillAll(ctx, st,
				flow.Field{Selector: "[name='username']", Value: f.Username},
				flow.Field{Selector: "[name='password']", Value: f.Password},
			)
			if err == nil {
				err = flow.Click(ctx, st, loginButton)
			}
			if err != nil {
				st.Warn("login", "login failed: %v", err)
			}
			return nil
		}},
		{Name: "start_application", Run: func(ctx context.Context, st *flow.State) error {
			if !flow.Exists(ctx, st, startLink) {
				return nil
			}
			if err := flow.Click(ctx, st, startLink); err != nil {
				st.Warn("start_application", "%v", err)
			}
			return nil
		}},
		{Name: "applicant_details", Run: func(ctx context.Context, st *flow.State) error {
			for _, c := range candidates {
				value := f.Details[c.key]
				if value == "" {
					continue
				}
				for _, name := range c.names {
					selector := fmt.Sprintf("[name='%s']", name)
					if flow.Exists(ctx, st, selector) {
						if err := flow.Fill(ctx, st, selector, value); err != nil {
							return err
						}
						break
					}
				}
			}
			return nil
		}},
		{Name: "select_program", Run: func(ctx context.Context, st *flow.State) error {
			if f.Programme == "" || !flow.Exists(ctx, st, "[name='program']") {
				return nil
			}
			flow.FillOptional(ctx, st, "select_program", "[name='program']", f.Programme)
			return nil
		}},
		{Name: "upload_documents", Run: func(ctx context.Context, st *flow.State) error {
			for _, doc := range f.Documents {
				selector := fmt.Sprintf("[name='%s']", doc.field)
				if !flow.Exists(ctx, st, selector) {
					selector = anyFileInput
				}
				if err := flow.Upload(ctx, st, selector, doc.field, doc.path); err != nil {
					st.Warn("upload_documents", "upload failed for %s: %v", doc.field, err)
				}
			}
			return nil
		}},
		{Name: "submit", Run: func(ctx context.Context, st *flow.State) error {
			if !flow.Exists(ctx, st, submitButton) {
				return errors.New("submit button not found")
			}
			if err := flow.Click(ctx, st, submitButton); err != nil {
				return err
			}
			if err := flow.WaitFor(ctx, st, confirmation); err != nil {
				return fmt.Errorf("submission not confirmed: %w", err)
			}
			st.Emit(entity.EventResult, "submitted", "")
			return nil
		}},
	}
}
