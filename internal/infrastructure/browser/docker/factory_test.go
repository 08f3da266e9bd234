package docker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/infrastructure/browser/dryrun"
	"ufunda-orchestrator/internal/infrastructure/logger"
)

type fakeContainers struct {
	mu        sync.Mutex
	port      string
	launchErr error
	launched  []string
	labels    map[string]string
	stopped   []string
}

func (f *fakeContainers) Launch(_ context.Context, name string, labels map[string]string) (Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launchErr != nil {
		return Container{}, f.launchErr
	}
	f.launched = append(f.launched, name)
	f.labels = labels
	return Container{ID: "c-" + name, Port: f.port}, nil
}

func (f *fakeContainers) Stop(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeContainers) stoppedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stopped...)
}

func versionServer(t *testing.T, status int) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return srv, u.Port()
}

func TestFactory_OpenAndClose(t *testing.T) {
	_, port := versionServer(t, http.StatusOK)
	containers := &fakeContainers{port: port}

	var controlURL string
	browser := dryrun.NewSession()
	f := NewFactory(containers, Config{
		Host: "127.0.0.1",
		Connect: func(_ context.Context, u string) (output.BrowserSession, error) {
			controlURL = u
			return browser, nil
		},
	}, logger.NewNop())

	s, err := f.Open(context.Background(), "UJ bot")
	require.NoError(t, err)

	require.Len(t, containers.launched, 1)
	assert.Regexp(t, `^ufunda-uj-bot-[0-9a-f]{8}$`, containers.launched[0])
	assert.Equal(t, "UJ bot", containers.labels["bot"])
	assert.Equal(t, "ws://127.0.0.1:"+port, controlURL)

	require.NoError(t, s.Navigate(context.Background(), "https://example.com"))
	assert.True(t, browser.Did(dryrun.ActionNavigate, "https://example.com"))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, browser.Closed())
	assert.Equal(t, []string{"c-" + containers.launched[0]}, containers.stoppedIDs())
}

func TestFactory_LaunchError(t *testing.T) {
	boom := errors.New("docker unavailable")
	f := NewFactory(&fakeContainers{launchErr: boom}, Config{}, logger.NewNop())

	_, err := f.Open(context.Background(), "nsfas")
	assert.ErrorIs(t, err, boom)
}

func TestFactory_NotReadyStopsContainer(t *testing.T) {
	_, port := versionServer(t, http.StatusServiceUnavailable)
	containers := &fakeContainers{port: port}
	f := NewFactory(containers, Config{
		Host:         "127.0.0.1",
		ReadyTimeout: 600 * time.Millisecond,
		Connect: func(context.Context, string) (output.BrowserSession, error) {
			t.Fatal("connect must not be called before the browser is ready")
			return nil, nil
		},
	}, logger.NewNop())

	_, err := f.Open(context.Background(), "wits")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ready")
	assert.Len(t, containers.stoppedIDs(), 1)
}

func TestFactory_ConnectErrorStopsContainer(t *testing.T) {
	_, port := versionServer(t, http.StatusOK)
	containers := &fakeContainers{port: port}
	boom := errors.New("cdp refused")
	f := NewFactory(containers, Config{
		Host: "127.0.0.1",
		Connect: func(context.Context, string) (output.BrowserSession, error) {
			return nil, boom
		},
	}, logger.NewNop())

	_, err := f.Open(context.Background(), "uct")
	assert.ErrorIs(t, err, boom)
	assert.Len(t, containers.stoppedIDs(), 1)
}

func TestContainerSafe(t *testing.T) {
	assert.Equal(t, "stellenbosch", containerSafe("Stellenbosch"))
	assert.Equal(t, "a-b-c", containerSafe("a_b c"))
	assert.Equal(t, "bot", containerSafe(""))
}
