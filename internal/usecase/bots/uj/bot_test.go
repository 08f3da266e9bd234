package uj

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/infrastructure/artifact"
	"ufunda-orchestrator/internal/infrastructure/browser/dryrun"
	"ufunda-orchestrator/internal/infrastructure/logger"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

func newBot(t *testing.T, factory *dryrun.Factory) *Bot {
	t.Helper()
	return New(Config{PortalURL: "https://uj.test/login"}, flow.Options{
		Timeout:      5 * time.Second,
		RetryBackoff: time.Millisecond,
		Sessions:     factory,
		Artifacts:    artifact.NewStore(t.TempDir()),
		Logger:       logger.NewNop(),
	})
}

func writeDocs(t *testing.T, kinds ...string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	out := make(map[string]string, len(kinds))
	for _, k := range kinds {
		p := filepath.Join(dir, k+".pdf")
		require.NoError(t, os.WriteFile(p, []byte("%PDF"), 0o644))
		out[k] = p
	}
	return out
}

func applicant(t *testing.T) entity.Context {
	c := entity.NewContext(map[string]string{
		"first_name": "Thandi",
		"last_name":  "Mokoena",
		"email":      "thandi@example.com",
		"id_number":  "0101015800087",
		"mobile":     "0820000000",
		"programme":  "BSc Computer Science",
		"address1":   "1 Main Rd",
		"city":       "Johannesburg",
		"fee_waiver": "true",
	})
	c.Uploads = writeDocs(t, uploadKinds...)
	return c
}

func TestBot_MissingFieldsFailWithoutBrowser(t *testing.T) {
	factory := dryrun.NewFactory(nil)
	bot := newBot(t, factory)

	c := entity.NewContext(map[string]string{
		"first_name": "Thandi",
		"last_name":  "Mokoena",
		"email":      "thandi@example.com",
		"fee_waiver": "true",
	})

	res := bot.Run(context.Background(), nil, c)

	assert.Equal(t, entity.StatusFailure, res.Status)
	assert.Equal(t, "uj", res.Bot)
	assert.Contains(t, res.Message, "id_number")
	assert.Contains(t, res.Message, "mobile")
	assert.Empty(t, factory.Sessions(Name), "no session may be opened for an invalid context")
}

func TestBot_CardRequiredWithoutWaiver(t *testing.T) {
	bot := newBot(t, dryrun.NewFactory(nil))
	c := applicant(t)
	c.Fields["fee_waiver"] = "false"

	res := bot.Run(context.Background(), nil, c)

	assert.Equal(t, entity.StatusFailure, res.Status)
	assert.Contains(t, res.Message, "card_number")
	assert.Contains(t, res.Message, "card_cvv")
}

func TestBot_ConfigCardFillsGap(t *testing.T) {
	factory := dryrun.NewFactory(nil)
	bot := New(Config{
		PortalURL: "https://uj.test/login",
		Card:      flow.Card{Number: "4111111111111111", Name: "T MOKOENA", Expiry: "12/29", CVV: "123"},
	}, flow.Options{Sessions: factory, Logger: logger.NewNop()})
	c := applicant(t)
	c.Fields["fee_waiver"] = "false"

	res := bot.Run(context.Background(), nil, c)

	require.Equal(t, entity.StatusSuccess, res.Status, res.Message)
	assert.Equal(t, entity.PaymentPending, res.PaymentStatus)
	session := factory.Last(Name)
	assert.Equal(t, "4111111111111111", session.Value("#cardNumber"))
	assert.True(t, session.Did(dryrun.ActionClick, "#btnPay"))
}

func TestBot_CreateProfileFlow(t *testing.T) {
	factory := dryrun.NewFactory(func(_ string, s *dryrun.Session) {
		s.SetText(".reference-number, #refNumber", "UJ-778899")
	})
	bot := newBot(t, factory)

	res := bot.Run(context.Background(), nil, applicant(t))

	require.Equal(t, entity.StatusSuccess, res.Status, res.Message)
	assert.Equal(t, "UJ-778899", res.Reference)
	assert.Equal(t, entity.PaymentWaived, res.PaymentStatus)

	session := factory.Last(Name)
	require.NotNil(t, session)
	assert.True(t, session.Closed())
	assert.Equal(t, "https://uj.test/login", session.Actions()[0].Selector)
	assert.True(t, session.Did(dryrun.ActionClick, "#lnkCreateProfile"))
	assert.Equal(t, "0101015800087", session.Value("#txtID"))
	assert.True(t, session.Did(dryrun.ActionClick, "#chkWaiver"))
	assert.False(t, session.Did(dryrun.ActionClick, "#payNow"))
	assert.Equal(t, "BSc Computer Science", session.Value("#qualificationSearch"))
	assert.True(t, session.Did(dryrun.ActionUpload, "input[type=file][name='affidavit']"))
}

func TestBot_LoginWithExistingProfile(t *testing.T) {
	factory := dryrun.NewFactory(nil)
	bot := newBot(t, factory)

	c := entity.NewContext(map[string]string{
		"first_name":  "Thandi",
		"last_name":   "Mokoena",
		"uj_username": "thandi",
		"uj_password": "secret",
		"programme":   "BCom",
		"fee_waiver":  "true",
	})
	c.Uploads = writeDocs(t, uploadKinds...)

	res := bot.Run(context.Background(), nil, c)

	require.Equal(t, entity.StatusSuccess, res.Status, res.Message)
	session := factory.Last(Name)
	assert.Equal(t, "thandi", session.Value("#txtUserName"))
	assert.True(t, session.Did(dryrun.ActionClick, "#btnLogin"))
	assert.False(t, session.Did(dryrun.ActionClick, "#lnkCreateProfile"))
}

func TestBot_LoginFailureIsAWarning(t *testing.T) {
	factory := dryrun.NewFactory(func(_ string, s *dryrun.Session) {
		s.FailOn("#btnCreate", errors.New("captcha"))
	})
	bot := newBot(t, factory)

	res := bot.Run(context.Background(), nil, applicant(t))

	assert.Equal(t, entity.StatusPartial, res.Status)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "create_profile")
}

func TestBot_MissingUploadIsPartial(t *testing.T) {
	bot := newBot(t, dryrun.NewFactory(nil))
	c := applicant(t)
	delete(c.Uploads, "affidavit")

	res := bot.Run(context.Background(), nil, c)

	assert.Equal(t, entity.StatusPartial, res.Status)
	assert.Contains(t, res.Warnings[0], "affidavit")
}

func TestBot_StepFailure(t *testing.T) {
	factory := dryrun.NewFactory(func(_ string, s *dryrun.Session) {
		s.FailOn("#applyNew", errors.New("element not found"))
	})
	bot := newBot(t, factory)

	res := bot.Run(context.Background(), nil, applicant(t))

	assert.Equal(t, entity.StatusFailure, res.Status)
	assert.Contains(t, res.Message, "academic_program")
	assert.Equal(t, 0, factory.OpenCount())
}

func TestBot_ContextUnchanged(t *testing.T) {
	bot := newBot(t, dryrun.NewFactory(nil))
	c := applicant(t)
	before := c.Clone()

	bot.Run(context.Background(), nil, c)

	assert.Equal(t, before, c)
}
