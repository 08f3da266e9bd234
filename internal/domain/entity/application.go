package entity

import "time"

// Notification announces an application opportunity, usually parsed from an email.
type Notification struct {
	EmailID         string    `json:"email_id"`
	UniversityName  string    `json:"university_name"`
	ApplicationLink string    `json:"application_link"`
	Subject         string    `json:"subject"`
	ReceivedAt      time.Time `json:"received_at"`
}

type ApplicationStatus string

const (
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationProcessing ApplicationStatus = "processing"
	ApplicationCompleted  ApplicationStatus = "completed"
	ApplicationFailed     ApplicationStatus = "failed"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationProcessing, ApplicationCompleted, ApplicationFailed:
		return true
	}
	return false
}

type Application struct {
	ID           string            `json:"id"`
	EmailID      string            `json:"email_id"`
	University   string            `json:"university_name"`
	Bot          string            `json:"bot,omitempty"`
	Link         string            `json:"application_link"`
	Subject      string            `json:"subject,omitempty"`
	Status       ApplicationStatus `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	ReceivedAt   time.Time         `json:"received_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// BotStatus is the last heartbeat a bot reported.
type BotStatus struct {
	BotID          string    `json:"bot_id"`
	UniversityName string    `json:"university_name"`
	Status         string    `json:"status"`
	CurrentTask    string    `json:"current_task,omitempty"`
	LastUpdated    time.Time `json:"last_updated"`
}
