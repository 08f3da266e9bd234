package uct

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
	"ufunda-orchestrator/internal/infrastructure/browser/dryrun"
	"ufunda-orchestrator/internal/infrastructure/logger"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

func newBot(cfg Config, factory *dryrun.Factory) *Bot {
	cfg.PortalURL = "https://uct.test/apply"
	return New(cfg, flow.Options{
		Timeout:  5 * time.Second,
		Sessions: factory,
		Logger:   logger.NewNop(),
	})
}

func applicant() entity.Context {
	return entity.NewContext(map[string]string{
		"first_name": "Ayanda",
		"last_name":  "Nkosi",
		"email":      "ayanda@example.com",
		"mobile":     "0850000000",
		"program":    "Computer Science",
	})
}

func TestBot_SubmitsWithLogin(t *testing.T) {
	factory := dryrun.NewFactory(nil)
	bot := newBot(Config{Username: "ayanda", Password: "pw"}, factory)

	res := bot.Run(context.Background(), nil, applicant())

	require.Equal(t, entity.StatusSuccess, res.Status, res.Message)
	session := factory.Last(Name)
	assert.Equal(t, "ayanda", session.Value("[name='username']"))
	assert.True(t, session.Did(dryrun.ActionClick, loginButton))
	assert.True(t, session.Did(dryrun.ActionClick, startLink))
	assert.Equal(t, "Ayanda", session.Value("[name='firstName']"), "first candidate name wins")
	assert.Equal(t, "0850000000", session.Value("[name='phone']"))
	assert.Equal(t, "Computer Science", session.Value("[name='program']"))
	assert.True(t, session.Closed())
}

func TestBot_FallsBackToLaterCandidate(t *testing.T) {
	factory := dryrun.NewFactory(func(_ string, s *dryrun.Session) {
		s.Hide("[name='firstName']").Hide("[name='given_name']")
	})
	bot := newBot(Config{Username: "a", Password: "b"}, factory)

	res := bot.Run(context.Background(), nil, applicant())

	require.Equal(t, entity.StatusSuccess, res.Status, res.Message)
	assert.Equal(t, "Ayanda", factory.Last(Name).Value("[name='first_name']"))
}

func TestBot_NoCredentialsIsWarning(t *testing.T) {
	factory := dryrun.NewFactory(nil)
	bot := newBot(Config{}, factory)

	res := bot.Run(context.Background(), nil, applicant())

	assert.Equal(t, entity.StatusPartial, res.Status)
	assert.Contains(t, res.Warnings[0], "no UCT credentials")
	assert.False(t, factory.Last(Name).Did(dryrun.ActionClick, loginButton))
}

func TestBot_NoLoginFormSkipsLogin(t *testing.T) {
	factory := dryrun.NewFactory(func(_ string, s *dryrun.Session) {
		s.Hide("[name='username']")
	})
	bot := newBot(Config{}, factory)

	res := bot.Run(context.Background(), nil, applicant())

	assert.Equal(t, entity.StatusSuccess, res.Status, res.Message)
}

func TestBot_UploadFallsBackToAnyFileInput(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "transcript.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("%PDF"), 0o644))

	factory := dryrun.NewFactory(func(_ string, s *dryrun.Session) {
		s.Hide("[name='transcript']")
	})
	bot := newBot(Config{Username: "a", Password: "b"}, factory)
	c := applicant()
	c.Uploads = map[string]string{"results": doc}

	res := bot.Run(context.Background(), nil, c)

	require.Equal(t, entity.StatusSuccess, res.Status, res.Message)
	assert.True(t, factory.Last(Name).Did(dryrun.ActionUpload, anyFileInput))
}

func TestBot_SubmitFailures(t *testing.T) {
	tests := []struct {
		name      string
		configure func(string, *dryrun.Session)
		want      string
	}{
		{"no submit button", func(_ string, s *dryrun.Session) { s.Hide(submitButton) }, "submit button not found"},
		{"no confirmation", func(_ string, s *dryrun.Session) { s.FailOn(confirmation, errors.New("timeout")) }, "submission not confirmed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := dryrun.NewFactory(tt.configure)
			bot := newBot(Config{Username: "a", Password: "b"}, factory)

			res := bot.Run(context.Background(), nil, applicant())

			assert.Equal(t, entity.StatusFailure, res.Status)
			assert.Contains(t, res.Message, "step submit failed")
			assert.Contains(t, res.Message, tt.want)
		})
	}
}

func TestBot_RequiredFields(t *testing.T) {
	factory := dryrun.NewFactory(nil)
	bot := newBot(Config{}, factory)

	res := bot.Run(context.Background(), nil, entity.NewContext(map[string]string{"first_name": "Ayanda"}))

	assert.Equal(t, entity.StatusFailure, res.Status)
	assert.Equal(t, "missing required fields: last_name, email", res.Message)
	assert.Empty(t, factory.Sessions(Name))
}
