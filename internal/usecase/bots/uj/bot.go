// Package uj applies to the University of Johannesburg through its online portal.
package uj

import (
	"context"
	"fmt"

	"ufunda-orchestrator/internal/application/port/input"
	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

const (
	Name             = "uj"
	DefaultPortalURL = "https://student.uj.ac.za/StayConnected/Anonymous/Login.aspx"

	nextButton = "button.next, .btn-next"
)

var _ input.Bot = (*Bot)(nil)

type Config struct {
	PortalURL string
	// Card is used when the applicant context carries no card of its own.
	Card flow.Card
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
func (b *Bot) University() string { return "University of Johannesburg" }

func (b *Bot) Run(ctx context.Context, session output.BrowserSession, applicant entity.Context) entity.Result {
	f, err := bind(applicant, b.cfg.Card)
	if err != nil {
		return b.runner.Fail(ctx, err)
	}
	return b.runner.Execute(ctx, session, b.steps(f))
}

func (b *Bot) steps(f form) []flow.Step {
	return []flow.Step{
		{Name: "login_or_create", Run: func(ctx context.Context, st *flow.State) error {
			return b.loginOrCreate(ctx, st, f)
		}},
		{Name: "personal_details", Run: func(ctx context.Context, st *flow.State) error {
			if err := flow.FillAll(ctx, st,
				flow.Field{Selector: "#firstName", Value: f.FirstName},
				flow.Field{Selector: "#lastName", Value: f.LastName},
				flow.Field{Selector: "#dob", Value: f.DOB},
				flow.Field{Selector: "#idNumber", Value: f.IDNumber},
				flow.Field{Selector: "#email", Value: f.Email},
				flow.Field{Selector: "#cell", Value: f.Mobile},
			); err != nil {
				return err
			}
			return flow.Click(ctx, st, nextButton)
		}},
		{Name: "academic_program", Run: func(ctx context.Context, st *flow.State) error {
			if err := flow.Click(ctx, st, "#applyNew"); err != nil {
				return err
			}
			if f.Programme == "" {
				st.Warn("academic_program", "no programme given, leaving the qualification search empty")
			} else {
				if err := flow.Fill(ctx, st, "#qualificationSearch", f.Programme); err != nil {
					return err
				}
				if err := flow.Click(ctx, st, ".search-results .select:first-child, .result-row .select"); err != nil {
					return err
				}
			}
			return flow.Click(ctx, st, nextButton)
		}},
		{Name: "address_background", Run: func(ctx context.Context, st *flow.State) error {
			if err := flow.FillAll(ctx, st,
				flow.Field{Selector: "#addressLine1", Value: f.Address1},
				flow.Field{Selector: "#suburb", Value: f.Suburb},
				flow.Field{Selector: "#city", Value: f.City},
				flow.Field{Selector: "#postalCode", Value: f.PostalCode},
			); err != nil {
				return err
			}
			return flow.Click(ctx, st, nextButton)
		}},
		{Name: "upload_documents", Run: func(ctx context.Context, st *flow.State) error {
			for _, kind := range uploadKinds {
				selector := fmt.Sprintf("input[type=file][name='%s']", kind)
				if err := flow.Upload(ctx, st, selector, kind, f.Uploads[kind]); err != nil {
					return err
				}
			}
			return flow.Click(ctx, st, nextButton)
		}},
		{Name: "fee_payment", Run: func(ctx context.Context, st *flow.State) error {
			return b.payFee(ctx, st, f)
		}},
		{Name: "review_submit", Run: func(ctx context.Context, st *flow.State) error {
			if err := flow.Click(ctx, st, "#terms"); err != nil {
				return err
			}
			if err := flow.Click(ctx, st, "#submitApplication"); err != nil {
				return err
			}
			ref, err := st.Session.Text(ctx, ".reference-number, #refNumber")
			if err != nil {
				st.Logger().Debug("Reference number not shown", "error", err)
			}
			st.SetReference(ref)
			st.Emit(entity.EventResult, "submitted", ref)
			return nil
		}},
	}
}

// loginOrCreate never fails the run: a portal that rejects the login or profile form
// usually still lets the applicant continue, and later steps fail loudly if it does not.
func (b *Bot) loginOrCreate(ctx context.Context, st *flow.State, f form) error {
	if err := st.Session.Navigate(ctx, b.cfg.PortalURL); err != nil {
		return fmt.Errorf("open portal: %w", err)
	}

	if f.Username != "" {
		st.Emit(entity.EventStep, "login_existing", "")
		err := flow.FillAll(ctx, st,
			flow.Field{Selector: "#txtUserName", Value: f.Username},
			flow.Field{Selector: "#txtPassword", Value: f.Password},
		)
		if err == nil {
			err = flow.Click(ctx, st, "#btnLogin")
		}
		if err != nil {
			st.Warn("login", "%v", err)
		}
		return nil
	}

	st.Emit(entity.EventStep, "create_profile", "")
	err := flow.Click(ctx, st, "#lnkCreateProfile")
	if err == nil {
		err = flow.FillAll(ctx, st,
			flow.Field{Selector: "#txtEmail", Value: f.Email},
			flow.Field{Selector: "#txtID", Value: f.IDNumber},
			flow.Field{Selector: "#txtMobile", Value: f.Mobile},
		)
	}
	if err == nil {
		err = flow.Click(ctx, st, "#btnCreate")
	}
	if err != nil {
		st.Warn("create_profile", "%v", err)
	}
	return nil
}

func (b *Bot) payFee(ctx context.Context, st *flow.State, f form) error {
	if f.FeeWaiver {
		if err := flow.Click(ctx, st, "#chkWaiver"); err != nil {
			return err
		}
		st.SetPayment(entity.PaymentWaived)
		return flow.Click(ctx, st, nextButton)
	}

	if err := flow.Click(ctx, st, "#payNow"); err != nil {
		return err
	}
	if err := flow.FillAll(ctx, st,
		flow.Field{Selector: "#cardNumber", Value: f.Card.Number},
		flow.Field{Selector: "#cardName", Value: f.Card.Name},
		flow.Field{Selector: "#expiry", Value: f.Card.Expiry},
		flow.Field{Selector: "#cvv", Value: f.Card.CVV},
	); err != nil {
		return err
	}
	if err := flow.Click(ctx, st, "#btnPay"); err != nil {
		return err
	}
	// The gateway redirects back without a verdict we can read.
	st.SetPayment(entity.PaymentPending)
	return flow.Click(ctx, st, nextButton)
}
