package uct

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/infrastructure/artifact"
	"ufunda-orchestrator/internal/infrastructure/browser/rod"
	"ufunda-orchestrator/internal/infrastructure/logger"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

const portalLanding = `<!DOCTYPE html>
<html><body>
	<h1>UCT Online Applications</h1>
	<a href="/form">Start application</a>
</body></html>`

const portalForm = `<!DOCTYPE html>
<html><body>
	<form onsubmit="return false;">
		<input name="firstName" />
		<input name="lastName" />
		<input name="email" />
		<select name="program">
			<option value="">Choose a programme</option>
			<option value="BSC-CS">BSc Computer Science</option>
		</select>
		<input type="file" name="idDocument" />
		<button type="button" id="go">Submit application</button>
	</form>
	<script>
		document.getElementById('go').addEventListener('click', function() {
			var files = document.querySelector("input[name='idDocument']").files.length;
			document.body.innerHTML = '<p id="done">Thank you, ' +
				document.querySelector("input[name='firstName']").value + '. ' + files + ' document(s) received.</p>';
		});
	</script>
</body></html>`

// TestBot_HeadlessPortal drives a local copy of the portal in headless Chrome.
func TestBot_HeadlessPortal(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping headless browser test in short mode")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/form", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(portalForm))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(portalLanding))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	idDoc := filepath.Join(dir, "id.pdf")
	require.NoError(t, os.WriteFile(idDoc, []byte("%PDF-1.4"), 0o644))

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = true
	browserCfg.SlowMotion = 0
	browserCfg.Timeout = 5 * time.Second
	log := logger.NewNop()
	store := artifact.NewStore(filepath.Join(dir, "artifacts"))

	bot := New(Config{PortalURL: srv.URL}, flow.Options{
		Timeout:     time.Minute,
		Screenshots: true,
		Sessions:    rod.NewFactory(browserCfg, log),
		Artifacts:   store,
		Logger:      log,
	})

	applicant := entity.NewContext(map[string]string{
		"first_name": "Ayanda",
		"last_name":  "Nkosi",
		"email":      "ayanda@example.com",
		"program":    "BSc Computer Science",
	})
	applicant.Uploads = map[string]string{"id_doc": idDoc}

	res := bot.Run(flow.WithRunID(context.Background(), "headless"), nil, applicant)

	require.Equal(t, entity.StatusSuccess, res.Status, res.Message)
	assert.Empty(t, res.Warnings)
	assert.NotEmpty(t, res.Artifacts)
	for _, a := range res.Artifacts {
		assert.FileExists(t, a)
	}
}
