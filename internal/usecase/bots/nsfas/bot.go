// Package nsfas applies for NSFAS bursary funding.
package nsfas

import (
	"context"
	"fmt"

	"ufunda-orchestrator/internal/application/port/input"
	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

const (
	Name             = "nsfas"
	DefaultPortalURL = "https://my.nsfas.org.za/"

	nextButton = "button.next, .btn-next"
)

var _ input.Bot = (*Bot)(nil)

type Config struct {
	PortalURL string
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
func (b *Bot) University() string { return "NSFAS" }

func (b *Bot) Run(ctx context.Context, session output.BrowserSession, applicant entity.Context) entity.Result {
	f, err := bind(applicant)
	if err != nil {
		return b.runner.Fail(ctx, err)
	}
	return b.runner.Execute(ctx, session, b.steps(f))
}

func (b *Bot) steps(f form) []flow.Step {
	return []flow.Step{
		{Name: "login_or_register", Run: func(ctx context.Context, st *flow.State) error {
			if err := st.Session.Navigate(ctx, b.cfg.PortalURL); err != nil {
				return fmt.Errorf("open portal: %w", err)
			}
			if f.LoginEmail != "" {
				st.Emit(entity.EventStep, "login_existing", "")
				if err := flow.FillAll(ctx, st,
					flow.Field{Selector: "#username", Value: f.LoginEmail},
					flow.Field{Selector: "#password", Value: f.LoginPassword},
				); err != nil {
					return err
				}
				return flow.Click(ctx, st, "#loginBtn")
			}

			st.Emit(entity.EventStep, "register", "")
			if err := flow.Click(ctx, st, "#register"); err != nil {
				return err
			}
			if err := flow.FillAll(ctx, st,
				flow.Field{Selector: "#email", Value: f.Email},
				flow.Field{Selector: "#id_number", Value: f.IDNumber},
				flow.Field{Selector: "#cell", Value: f.Mobile},
			); err != nil {
				return err
			}
			return flow.Click(ctx, st, "#registerSubmit")
		}},
		{Name: "profile", Run: func(ctx context.Context, st *flow.State) error {
			return fillAndNext(ctx, st,
				flow.Field{Selector: "#firstName", Value: f.FirstName},
				flow.Field{Selector: "#lastName", Value: f.LastName},
				flow.Field{Selector: "#dob", Value: f.DOB},
				flow.Field{Selector: "#address1", Value: f.Address1},
				flow.Field{Selector: "#city", Value: f.City},
				flow.Field{Selector: "#postalCode", Value: f.PostalCode},
			)
		}},
		{Name: "household", Run: func(ctx context.Context, st *flow.State) error {
			return fillAndNext(ctx, st,
				flow.Field{Selector: "#householdSize", Value: f.HouseholdSize},
				flow.Field{Selector: "#income", Value: f.HouseholdIncome},
			)
		}},
		{Name: "institution", Run: func(ctx context.Context, st *flow.State) error {
			return fillAndNext(ctx, st,
				flow.Field{Selector: "#university", Value: f.University},
				flow.Field{Selector: "#qualification", Value: f.Programme},
				flow.Field{Selector: "#studentNumber", Value: f.StudentNumber},
			)
		}},
		{Name: "documents", Run: func(ctx context.Context, st *flow.State) error {
			for _, kind := range uploadKinds {
				selector := fmt.Sprintf("input[name='%s']", kind)
				if err := flow.Upload(ctx, st, selector, kind, f.Uploads[kind]); err != nil {
					return err
				}
			}
			return flow.Click(ctx, st, nextButton)
		}},
		{Name: "otp_declaration", Run: func(ctx context.Context, st *flow.State) error {
			if f.OTP != "" {
				if err := flow.Fill(ctx, st, "#otp", f.OTP); err != nil {
					return err
				}
				if err := flow.Click(ctx, st, "#otpSubmit"); err != nil {
					return err
				}
			}
			if err := flow.Click(ctx, st, "#acceptDeclaration"); err != nil {
				return err
			}
			if err := flow.Click(ctx, st, "button.submit, #submitApplication"); err != nil {
				return err
			}
			st.Emit(entity.EventResult, "submitted", "")
			return nil
		}},
	}
}

func fillAndNext(ctx context.Context, st *flow.State, fields ...flow.Field) error {
	if err := flow.FillAll(ctx, st, fields...); err != nil {
		return err
	}
	return flow.Click(ctx, st, nextButton)
}
