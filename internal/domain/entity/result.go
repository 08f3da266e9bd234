package entity

import (
	"sort"
	"time"
)

type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusFailure ResultStatus = "failure"
	StatusPartial ResultStatus = "partial"
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
	PaymentPending PaymentStatus = "PENDING"
	PaymentWaived  PaymentStatus = "WAIVED"
)

// Result is one bot's outcome. It is built once at the end of a run and never mutated.
type Result struct {
	Bot           string            `json:"bot_name"`
	Status        ResultStatus      `json:"status"`
	Message       string            `json:"message"`
	Artifacts     []string          `json:"artifacts"`
	Timestamp     time.Time         `json:"timestamp"`
	Reference     string            `json:"reference,omitempty"`
	PaymentStatus PaymentStatus     `json:"payment_status,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
	Events        []Event           `json:"events,omitempty"`
	DurationMS    int64             `json:"duration_ms"`
}

func (r Result) Failed() bool {
	return r.Status == StatusFailure
}

// FailureResult is the Result for a bot that could not run or crashed.
func FailureResult(bot string, err error) Result {
	return Result{
		Bot:       bot,
		Status:    StatusFailure,
		Message:   err.Error(),
		Artifacts: []string{},
		Timestamp: time.Now().UTC(),
	}
}

// Report aggregates the Results of one orchestration call, keyed by bot name.
type Report struct {
	RunID     string            `json:"run_id"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
	Results   map[string]Result `json:"results"`
}

func (r Report) Bots() []string {
	names := make([]string, 0, len(r.Results))
	for name := range r.Results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r Report) Failed() []string {
	var names []string
	for _, name := range r.Bots() {
		if r.Results[name].Failed() {
			names = append(names, name)
		}
	}
	return names
}
