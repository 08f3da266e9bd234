// Package status keeps the in-memory view served over HTTP: applications created from
// notifications, bot heartbeats and the latest run report.
package status

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
)

var (
	ErrNotFound            = errors.New("application not found")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidNotification = errors.New("invalid notification")
	ErrInvalidBotStatus    = errors.New("invalid bot status")
)

var (
	_ output.ReportSink = (*Tracker)(nil)
	_ output.EventSink  = (*Tracker)(nil)
)

// DefaultAliases maps the ways notifications name an institution onto bot names.
var DefaultAliases = map[string]string{
	"uj":                                    "uj",
	"university of johannesburg":            "uj",
	"johannesburg":                          "uj",
	"nsfas":                                 "nsfas",
	"national student financial aid scheme": "nsfas",
	"stellenbosch":                          "stellenbosch",
	"stellenbosch university":               "stellenbosch",
	"maties":                                "stellenbosch",
	"wits":                                  "wits",
	"witwatersrand":                         "wits",
	"university of the witwatersrand":       "wits",
	"uct":                                   "uct",
	"university of cape town":               "uct",
}

type Config struct {
	// Universities maps bot name to the institution it applies to.
	Universities map[string]string
	Aliases      map[string]string
	Classifier   output.UniversityClassifier
	Events       output.EventSink
	Logger       output.LoggerPort // required
}

type Tracker struct {
	mu           sync.RWMutex
	apps         map[string]entity.Application
	order        []string
	bots         map[string]entity.BotStatus
	latest       *entity.Report
	universities map[string]string
	aliases      map[string]string
	aliasOrder   []string
	classifier   output.UniversityClassifier
	events       output.EventSink
	logger       output.LoggerPort
	now          func() time.Time
}

func New(cfg Config) *Tracker {
	aliases := cfg.Aliases
	if aliases == nil {
		aliases = DefaultAliases
	}
	t := &Tracker{
		apps:         make(map[string]entity.Application),
		bots:         make(map[string]entity.BotStatus),
		universities: make(map[string]string, len(cfg.Universities)),
		aliases:      make(map[string]string, len(aliases)),
		classifier:   cfg.Classifier,
		events:       cfg.Events,
		logger:       cfg.Logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for bot, uni := range cfg.Universities {
		t.universities[bot] = uni
	}
	for alias, bot := range aliases {
		if len(t.universities) > 0 {
			if _, ok := t.universities[bot]; !ok {
				continue
			}
		}
		key := normalize(alias)
		t.aliases[key] = bot
		t.aliasOrder = append(t.aliasOrder, key)
	}
	// Longest alias first so "university of cape town" beats "town"-like short matches.
	sort.Slice(t.aliasOrder, func(i, j int) bool {
		a, b := t.aliasOrder[i], t.aliasOrder[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return t
}

// Notify records a new application opportunity as a pending Application. The bot is resolved
// from the university name, then the subject, then the classifier; it stays empty when
// nothing matches.
func (t *Tracker) Notify(ctx context.Context, n entity.Notification) (entity.Application, error) {
	if strings.TrimSpace(n.UniversityName) == "" {
		return entity.Application{}, fmt.Errorf("%w: university_name is required", ErrInvalidNotification)
	}
	if strings.TrimSpace(n.ApplicationLink) == "" {
		return entity.Application{}, fmt.Errorf("%w: application_link is required", ErrInvalidNotification)
	}

	now := t.now()
	app := entity.Application{
		ID:         uuid.NewString(),
		EmailID:    n.EmailID,
		University: strings.TrimSpace(n.UniversityName),
		Bot:        t.resolve(ctx, n),
		Link:       strings.TrimSpace(n.ApplicationLink),
		Subject:    n.Subject,
		Status:     entity.ApplicationPending,
		ReceivedAt: n.ReceivedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if app.ReceivedAt.IsZero() {
		app.ReceivedAt = now
	}

	t.mu.Lock()
	t.apps[app.ID] = app
	t.order = append(t.order, app.ID)
	t.mu.Unlock()

	t.logger.Info("Application registered", "id", app.ID, "university", app.University, "bot", app.Bot)
	t.publish(entity.Event{Bot: app.Bot, Type: entity.EventStatus, Name: string(app.Status), Message: app.ID})
	return app, nil
}

func (t *Tracker) resolve(ctx context.Context, n entity.Notification) string {
	if bot, ok := t.aliases[normalize(n.UniversityName)]; ok {
		return bot
	}

	haystack := " " + normalize(n.UniversityName+" "+n.Subject) + " "
	for _, alias := range t.aliasOrder {
		if strings.Contains(haystack, " "+alias+" ") {
			return t.aliases[alias]
		}
	}

	if t.classifier == nil {
		return ""
	}
	text := fmt.Sprintf("University: %s\nSubject: %s\nLink: %s", n.UniversityName, n.Subject, n.ApplicationLink)
	bot, err := t.classifier.Classify(ctx, text, t.botNames())
	if err != nil {
		t.logger.Warn("University classification failed", "error", err)
		return ""
	}
	return bot
}

func (t *Tracker) botNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, bot := range t.aliases {
		if !seen[bot] {
			seen[bot] = true
			names = append(names, bot)
		}
	}
	sort.Strings(names)
	return names
}

// Applications lists applications in arrival order, optionally filtered by status.
func (t *Tracker) Applications(status entity.ApplicationStatus) []entity.Application {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]entity.Application, 0, len(t.order))
	for _, id := range t.order {
		app := t.apps[id]
		if status == "" || app.Status == status {
			out = append(out, app)
		}
	}
	return out
}

func (t *Tracker) Application(id string) (entity.Application, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	app, ok := t.apps[id]
	if !ok {
		return entity.Application{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return app, nil
}

func (t *Tracker) UpdateStatus(id string, status entity.ApplicationStatus, errorMessage string) (entity.Application, error) {
	if !status.Valid() {
		return entity.Application{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	t.mu.Lock()
	app, ok := t.apps[id]
	if !ok {
		t.mu.Unlock()
		return entity.Application{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	app.Status = status
	app.ErrorMessage = errorMessage
	app.UpdatedAt = t.now()
	t.apps[id] = app
	t.mu.Unlock()

	t.logger.Info("Application status updated", "id", id, "status", status)
	t.publish(entity.Event{Bot: app.Bot, Type: entity.EventStatus, Name: string(status), Message: id})
	return app, nil
}

// SetBotStatus stores a heartbeat. LastUpdated defaults to now.
func (t *Tracker) SetBotStatus(s entity.BotStatus) (entity.BotStatus, error) {
	s.BotID = strings.TrimSpace(s.BotID)
	if s.BotID == "" {
		return entity.BotStatus{}, fmt.Errorf("%w: bot_id is required", ErrInvalidBotStatus)
	}
	if s.LastUpdated.IsZero() {
		s.LastUpdated = t.now()
	}
	if s.UniversityName == "" {
		s.UniversityName = t.universities[s.BotID]
	}

	t.mu.Lock()
	t.bots[s.BotID] = s
	t.mu.Unlock()
	return s, nil
}

func (t *Tracker) BotStatuses() []entity.BotStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]entity.BotStatus, 0, len(t.bots))
	for _, s := range t.bots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BotID < out[j].BotID })
	return out
}

// RecordReport keeps the report as the latest one and refreshes each reported bot's status.
func (t *Tracker) RecordReport(report entity.Report) {
	t.mu.Lock()
	r := report
	t.latest = &r
	t.mu.Unlock()

	for name, res := range report.Results {
		_, _ = t.SetBotStatus(entity.BotStatus{
			BotID:       name,
			Status:      string(res.Status),
			LastUpdated: res.Timestamp,
		})
	}
}

func (t *Tracker) LatestReport() (entity.Report, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.latest == nil {
		return entity.Report{}, false
	}
	return *t.latest, true
}

// Publish turns bot lifecycle events into heartbeats.
func (t *Tracker) Publish(e entity.Event) {
	if e.Bot == "" {
		return
	}
	switch e.Type {
	case entity.EventStart:
		_, _ = t.SetBotStatus(entity.BotStatus{BotID: e.Bot, Status: "running", LastUpdated: e.Time})
	case entity.EventStep:
		_, _ = t.SetBotStatus(entity.BotStatus{BotID: e.Bot, Status: "running", CurrentTask: e.Name, LastUpdated: e.Time})
	case entity.EventDone:
		_, _ = t.SetBotStatus(entity.BotStatus{BotID: e.Bot, Status: e.Name, LastUpdated: e.Time})
	}
}

func (t *Tracker) publish(e entity.Event) {
	if t.events == nil {
		return
	}
	e.Time = t.now()
	t.events.Publish(e)
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
