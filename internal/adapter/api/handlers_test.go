package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/infrastructure/logger"
	"ufunda-orchestrator/internal/usecase/status"
)

type fakeDispatcher struct {
	gotApplicant entity.Context
	gotBots      []string
	report       entity.Report
	err          error
}

func (f *fakeDispatcher) RunParallelBots(_ context.Context, applicant entity.Context, bots []string) (entity.Report, error) {
	f.gotApplicant = applicant
	f.gotBots = bots
	if f.err != nil {
		return entity.Report{}, f.err
	}
	return f.report, nil
}

type fixture struct {
	router     *mux.Router
	tracker    *status.Tracker
	dispatcher *fakeDispatcher
}

func newFixture(t *testing.T, limiter *Limiter) *fixture {
	t.Helper()
	log := logger.NewNop()
	tracker := status.New(status.Config{
		Universities: map[string]string{"uj": "University of Johannesburg", "uct": "University of Cape Town"},
		Logger:       log,
	})
	dispatcher := &fakeDispatcher{}
	h := NewHandler(tracker, dispatcher, limiter, log)
	return &fixture{
		router:     h.SetupRoutes(NewHub(log), nil),
		tracker:    tracker,
		dispatcher: dispatcher,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func notification(university string) map[string]any {
	return map[string]any{
		"email_id":         "msg-1",
		"university_name":  university,
		"application_link": "https://apply.example.com",
		"subject":          "Applications are open",
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotifications_CreateAndFetch(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/v1/notifications", notification("University of Cape Town"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	app := decode[entity.Application](t, rec)
	assert.Equal(t, "uct", app.Bot)
	assert.Equal(t, entity.ApplicationPending, app.Status)

	rec = f.do(t, http.MethodGet, "/v1/applications/"+app.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.ID, decode[entity.Application](t, rec).ID)

	rec = f.do(t, http.MethodGet, "/v1/applications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]entity.Application](t, rec), 1)
}

func TestNotifications_Invalid(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/v1/notifications", map[string]any{"university_name": "UJ"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	f.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestNotifications_RateLimitedPerUniversity(t *testing.T) {
	f := newFixture(t, NewLimiter(1, 2))

	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodPost, "/v1/notifications", notification("UJ"))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := f.do(t, http.MethodPost, "/v1/notifications", notification("uj"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = f.do(t, http.MethodPost, "/v1/notifications", notification("UCT"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestApplications_FilterAndUpdate(t *testing.T) {
	f := newFixture(t, nil)
	first := decode[entity.Application](t, f.do(t, http.MethodPost, "/v1/notifications", notification("UJ")))
	f.do(t, http.MethodPost, "/v1/notifications", notification("UCT"))

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/v1/applications/%s/update?status=failed&error_message=portal+down", first.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[entity.Application](t, rec)
	assert.Equal(t, entity.ApplicationFailed, updated.Status)
	assert.Equal(t, "portal down", updated.ErrorMessage)

	rec = f.do(t, http.MethodGet, "/v1/applications?status=failed", nil)
	apps := decode[[]entity.Application](t, rec)
	require.Len(t, apps, 1)
	assert.Equal(t, first.ID, apps[0].ID)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/applications?status=bogus", nil).Code)
	assert.Equal(t, http.StatusBadRequest,
		f.do(t, http.MethodPost, "/v1/applications/"+first.ID+"/update?status=bogus", nil).Code)
	assert.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodPost, "/v1/applications/missing/update?status=completed", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/v1/applications/missing", nil).Code)
}

func TestBotStatus(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/v1/bot/status", map[string]any{
		"bot_id":       "uj",
		"status":       "running",
		"current_task": "upload_documents",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored := decode[entity.BotStatus](t, rec)
	assert.Equal(t, "University of Johannesburg", stored.UniversityName)
	assert.False(t, stored.LastUpdated.IsZero())

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/v1/bot/status", map[string]any{"status": "x"}).Code)

	rec = f.do(t, http.MethodGet, "/v1/bots", nil)
	bots := decode[[]entity.BotStatus](t, rec)
	require.Len(t, bots, 1)
	assert.Equal(t, "upload_documents", bots[0].CurrentTask)
}

func TestRuns(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/v1/runs/latest", nil).Code)

	f.dispatcher.report = entity.Report{
		RunID: "run-1",
		Results: map[string]entity.Result{
			"uj": {Bot: "uj", Status: entity.StatusSuccess, Timestamp: time.Now()},
		},
	}
	rec := f.do(t, http.MethodPost, "/v1/runs", map[string]any{
		"applicant": map[string]any{
			"personal": map[string]any{"first_name": "Thandi"},
			"uploads":  map[string]any{"id_doc": "/tmp/id.pdf"},
		},
		"bots": []string{"uj"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "run-1", decode[entity.Report](t, rec).RunID)
	assert.Equal(t, "Thandi", f.dispatcher.gotApplicant.Get("first_name"))
	assert.Equal(t, "/tmp/id.pdf", f.dispatcher.gotApplicant.Uploads["id_doc"])
	assert.Equal(t, []string{"uj"}, f.dispatcher.gotBots)

	f.tracker.RecordReport(f.dispatcher.report)
	rec = f.do(t, http.MethodGet, "/v1/runs/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", decode[entity.Report](t, rec).RunID)
}

func TestRuns_BadRequests(t *testing.T) {
	f := newFixture(t, nil)

	f.dispatcher.err = fmt.Errorf("%w: harvard", entity.ErrUnknownBot)
	rec := f.do(t, http.MethodPost, "/v1/runs", map[string]any{"applicant": map[string]any{}, "bots": []string{"harvard"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "harvard")

	rec = f.do(t, http.MethodPost, "/v1/runs", map[string]any{"bots": []string{"uj"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/runs", map[string]any{"applicant": map[string]any{"uploads": "nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
