// Package university drives the Stellenbosch and Wits portals, which share one application
// flow and differ in base URL and in how personal fields are addressed.
package university

import (
	"context"
	"errors"
	"fmt"

	"ufunda-orchestrator/internal/application/port/input"
	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/infrastructure/browser/htmlparse"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

const (
	StellenboschName = "stellenbosch"
	WitsName         = "wits"

	DefaultStellenboschURL = "https://www.maties.com"
	DefaultWitsURL         = "https://www.wits.ac.za"

	startButton     = "//button[contains(text(), 'Start Application')]"
	nextButton      = "//button[contains(text(), 'Next')]"
	nextOrSave      = "//button[contains(text(), 'Next') or contains(text(), 'Save')]"
	payButton       = "//button[contains(text(), 'Pay') or contains(text(), 'Submit Payment')]"
	paymentOK       = "//*[contains(text(), 'Payment successful') or contains(text(), 'Payment confirmed')]"
	submitButton    = "//button[contains(text(), 'Submit Application') or contains(text(), 'Final Submit')]"
	uploadInputXPat = "//input[@type='file' and contains(@name, '%s')]"
)

var _ input.Bot = (*Bot)(nil)

type Config struct {
	BaseURL string
	Card    flow.Card
}

// portal captures the differences between the two sites.
type portal struct {
	name          string
	university    string
	personalNext  string
	personalField func(key string) string
}

var (
	stellenbosch = portal{
		name:         StellenboschName,
		university:   "Stellenbosch University",
		personalNext: nextOrSave,
		personalField: func(key string) string {
			return "#" + key
		},
	}
	wits = portal{
		name:         WitsName,
		university:   "University of the Witwatersrand",
		personalNext: nextButton,
		personalField: func(key string) string {
			return fmt.Sprintf("[name='%s']", key)
		},
	}
)

type Bot struct {
	portal portal
	cfg    Config
	runner *flow.Runner
}

func NewStellenbosch(cfg Config, opts flow.Options) *Bot {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultStellenboschURL
	}
	return newBot(stellenbosch, cfg, opts)
}

func NewWits(cfg Config, opts flow.Options) *Bot {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWitsURL
	}
	return newBot(wits, cfg, opts)
}

func newBot(p portal, cfg Config, opts flow.Options) *Bot {
	opts.Bot = p.name
	return &Bot{portal: p, cfg: cfg, runner: flow.NewRunner(opts)}
}

func (b *Bot) Name() string       { return b.portal.name }
func (b *Bot) University() string { return b.portal.university }

func (b *Bot) Run(ctx context.Context, session output.BrowserSession, applicant entity.Context) entity.Result {
	f, err := bind(applicant, b.cfg.Card)
	if err != nil {
		return b.runner.Fail(ctx, err)
	}
	return b.runner.Execute(ctx, session, b.steps(f))
}

func (b *Bot) steps(f form) []flow.Step {
	return []flow.Step{
		{Name: "navigate", Run: func(ctx context.Context, st *flow.State) error {
			return st.Session.Navigate(ctx, b.cfg.BaseURL+"/apply")
		}},
		{Name: "create_profile", Run: func(ctx context.Context, st *flow.State) error {
			if flow.Exists(ctx, st, startButton) {
				return nil
			}
			if err := flow.WaitFor(ctx, st, "#email"); err != nil {
				return err
			}
			if err := flow.Fill(ctx, st, "#email", f.Email); err != nil {
				return err
			}
			return flow.RetryClick(ctx, st, "#submit-email")
		}},
		{Name: "personal_information", Run: func(ctx context.Context, st *flow.State) error {
			for _, p := range f.Personal {
				flow.FillOptional(ctx, st, "personal_information", b.portal.personalField(p.key), p.value)
			}
			return flow.RetryClick(ctx, st, b.portal.personalNext)
		}},
		{Name: "academic_background", Run: func(ctx context.Context, st *flow.State) error {
			for _, p := range f.Academic {
				flow.FillOptional(ctx, st, "academic_background", fmt.Sprintf("[name='%s']", p.key), p.value)
			}
			return flow.RetryClick(ctx, st, nextButton)
		}},
		{Name: "select_programs", Run: func(ctx context.Context, st *flow.State) error {
			for i, prog := range f.Programmes {
				err := flow.FillAll(ctx, st,
					flow.Field{Selector: fmt.Sprintf("#faculty_%d", i), Value: prog.Faculty},
					flow.Field{Selector: fmt.Sprintf("#program_%d", i), Value: prog.Name},
				)
				if err != nil {
					st.Warn("select_programs", "could not select program %d: %v", i, err)
				}
			}
			return flow.RetryClick(ctx, st, nextButton)
		}},
		{Name: "upload_documents", Run: func(ctx context.Context, st *flow.State) error {
			for _, doc := range f.Documents {
				selector := fmt.Sprintf(uploadInputXPat, doc.key)
				if err := flow.Upload(ctx, st, selector, doc.key, doc.value); err != nil {
					st.Warn("upload_documents", "upload failed: %s", doc.key)
				}
			}
			st.Screenshot(ctx, "documents_uploaded")
			return flow.RetryClick(ctx, st, nextButton)
		}},
		{Name: "pay_fee", Run: func(ctx context.Context, st *flow.State) error {
			st.SetPayment(b.payFee(ctx, st, f))
			return nil
		}},
		{Name: "submit", Run: func(ctx context.Context, st *flow.State) error {
			return flow.RetryClick(ctx, st, submitButton)
		}},
		{Name: "capture_confirmation", Run: func(ctx context.Context, st *flow.State) error {
			b.captureConfirmation(ctx, st)
			if p := st.Payment(); p != entity.PaymentPaid {
				st.Warn("payment", "application submitted but payment is %s", p)
			}
			return nil
		}},
	}
}

// payFee never aborts the run; its outcome decides between success and partial.
func (b *Bot) payFee(ctx context.Context, st *flow.State, f form) entity.PaymentStatus {
	if f.PaymentMethod != "card" {
		st.Logger().Warn("Payment method not automated", "method", f.PaymentMethod)
		return entity.PaymentPending
	}
	if missing := f.Card.Missing(false); len(missing) > 0 {
		st.Warn("pay_fee", "no payment card configured (%v)", missing)
		return entity.PaymentFailed
	}

	err := flow.FillAll(ctx, st,
		flow.Field{Selector: "#card_number", Value: f.Card.Number},
		flow.Field{Selector: "#card_expiry", Value: f.Card.Expiry},
		flow.Field{Selector: "#card_cvv", Value: f.Card.CVV},
	)
	if err == nil {
		err = flow.RetryClick(ctx, st, payButton)
	}
	if err != nil {
		st.Warn("pay_fee", "payment error: %v", err)
		st.Screenshot(ctx, "payment_error")
		return entity.PaymentFailed
	}

	if err := flow.WaitFor(ctx, st, paymentOK); err != nil {
		st.Logger().Error("Payment confirmation not found", "error", err)
		st.Screenshot(ctx, "payment_failed")
		return entity.PaymentFailed
	}
	st.Screenshot(ctx, "payment_success")
	return entity.PaymentPaid
}

func (b *Bot) captureConfirmation(ctx context.Context, st *flow.State) {
	page, err := st.Session.HTML(ctx)
	if err != nil {
		st.Logger().Warn("Confirmation page unavailable", "error", err)
		return
	}
	conf, err := htmlparse.ParseConfirmation(page)
	if err != nil {
		if !errors.Is(err, htmlparse.ErrNoConfirmation) {
			st.Logger().Warn("Confirmation parse failed", "error", err)
		}
		return
	}
	st.SetReference(conf.ApplicationNumber)
	st.SetDetail("faculty_confirmation", conf.Faculty)
	st.SetDetail("submission_confirmation", conf.Text)
	st.Screenshot(ctx, "confirmation_captured")
}
