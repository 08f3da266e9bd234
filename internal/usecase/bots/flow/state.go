package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/infrastructure/browser/htmlparse"
)

// State is what a step sees: the session plus the run's audit trail. Once the Result is built
// the state is sealed and late writes from a timed-out step are dropped.
type State struct {
	Session output.BrowserSession

	runner *Runner
	runID  string
	log    output.LoggerPort

	mu        sync.Mutex
	sealed    bool
	step      string
	warnings  []string
	artifacts []string
	events    []entity.Event
	reference string
	payment   entity.PaymentStatus
	details   map[string]string
}

func (s *State) Logger() output.LoggerPort {
	return s.log
}

func (s *State) Emit(typ entity.EventType, name, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(typ, name, message)
}

func (s *State) emitLocked(typ entity.EventType, name, message string) {
	if s.sealed {
		return
	}
	evt := entity.Event{
		Bot:     s.runner.opts.Bot,
		RunID:   s.runID,
		Type:    typ,
		Name:    name,
		Message: message,
		Time:    time.Now().UTC(),
	}
	s.events = append(s.events, evt)
	if s.runner.opts.Events != nil {
		s.runner.opts.Events.Publish(evt)
	}
}

// Warn records a non-fatal problem. A run that finishes with warnings is partial.
func (s *State) Warn(phase, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.log.Warn("Bot warning", "phase", phase, "warning", msg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	s.warnings = append(s.warnings, phase+": "+msg)
	s.emitLocked(entity.EventWarning, phase, msg)
}

func (s *State) SetReference(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sealed {
		s.reference = ref
	}
}

// SetDetail records extra confirmation data, such as the faculty a portal echoed back.
func (s *State) SetDetail(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed || value == "" {
		return
	}
	if s.details == nil {
		s.details = make(map[string]string)
	}
	s.details[key] = value
}

func (s *State) SetPayment(p entity.PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sealed {
		s.payment = p
	}
}

func (s *State) Payment() entity.PaymentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payment
}

// Screenshot stores the current page as an artifact. Failures are logged and otherwise ignored.
func (s *State) Screenshot(ctx context.Context, name string) {
	if s.Session == nil || s.runner.opts.Artifacts == nil {
		return
	}
	data, err := s.Session.Screenshot(ctx)
	if err != nil {
		s.log.Warn("Screenshot failed", "name", name, "error", err)
		return
	}
	file := fmt.Sprintf("%d_%s.jpg", time.Now().UnixNano(), name)
	path, err := s.runner.opts.Artifacts.WriteFile(s.runID, s.runner.opts.Bot, file, data)
	if err != nil {
		s.log.Warn("Screenshot not saved", "name", name, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sealed {
		s.artifacts = append(s.artifacts, path)
	}
}

// snapshotHTML stores the cleaned page markup next to the screenshots.
func (s *State) snapshotHTML(ctx context.Context, name string) {
	if s.Session == nil || s.runner.opts.Artifacts == nil {
		return
	}
	raw, err := s.Session.HTML(ctx)
	if err != nil {
		s.log.Debug("Page HTML unavailable", "error", err)
		return
	}
	file := fmt.Sprintf("%d_%s.html", time.Now().UnixNano(), name)
	path, err := s.runner.opts.Artifacts.WriteFile(s.runID, s.runner.opts.Bot, file, []byte(htmlparse.Clean(raw, nil)))
	if err != nil {
		s.log.Warn("HTML snapshot not saved", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sealed {
		s.artifacts = append(s.artifacts, path)
	}
}

func (s *State) currentStep() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == "" {
		return "setup"
	}
	return s.step
}

func (s *State) runSteps(ctx context.Context, steps []Step) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &entity.AutomationError{Step: s.currentStep(), Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	for _, step := range steps {
		if cerr := ctx.Err(); cerr != nil {
			return &entity.AutomationError{Step: step.Name, Err: cerr}
		}

		s.mu.Lock()
		s.step = step.Name
		s.emitLocked(entity.EventStep, step.Name, "")
		s.mu.Unlock()
		s.log.Debug("Running step", "step", step.Name)

		if serr := step.Run(ctx, s); serr != nil {
			var automation *entity.AutomationError
			var missing *entity.MissingFieldError
			if errors.As(serr, &automation) || errors.As(serr, &missing) {
				return serr
			}
			return &entity.AutomationError{Step: step.Name, Err: serr}
		}

		if s.runner.opts.Screenshots {
			s.Screenshot(ctx, step.Name)
		}
	}
	return nil
}

func (s *State) result(err error, started time.Time) entity.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := entity.Result{
		Bot:           s.runner.opts.Bot,
		Timestamp:     time.Now().UTC(),
		Reference:     s.reference,
		PaymentStatus: s.payment,
		DurationMS:    time.Since(started).Milliseconds(),
	}

	switch {
	case err != nil:
		res.Status = entity.StatusFailure
		res.Message = err.Error()
		s.emitLocked(entity.EventError, s.step, err.Error())
		s.emitLocked(entity.EventDone, "failed", err.Error())
	case len(s.warnings) > 0:
		res.Status = entity.StatusPartial
		res.Message = fmt.Sprintf("completed with %d warning(s)", len(s.warnings))
		s.emitLocked(entity.EventDone, "partial", res.Message)
	default:
		res.Status = entity.StatusSuccess
		res.Message = "application submitted"
		s.emitLocked(entity.EventDone, "ok", res.Message)
	}
	if err == nil && s.reference != "" {
		res.Message += " (reference " + s.reference + ")"
	}

	res.Artifacts = append([]string{}, s.artifacts...)
	if len(s.warnings) > 0 {
		res.Warnings = append([]string(nil), s.warnings...)
	}
	res.Events = append([]entity.Event(nil), s.events...)
	if len(s.details) > 0 {
		res.Details = make(map[string]string, len(s.details))
		for k, v := range s.details {
			res.Details[k] = v
		}
	}

	s.sealed = true
	return res
}
