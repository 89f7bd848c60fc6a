package models

import (
	"errors"
	"net/url"
	"time"
)

// TrackedQuestion is the persistent record for one watched market. Rows are
// created by an operator; the watcher only mutates the notification
// bookkeeping after a successful send.
type TrackedQuestion struct {
	ID                 string     `json:"id"`
	URL                string     `json:"url"`
	Tracked            bool       `json:"tracked"`
	LastNotifiedAt     *time.Time `json:"last_notified_at,omitempty"`     // nil = never notified
	LastNotifiedWindow *int       `json:"last_notified_window,omitempty"` // hours
	LastReport         string     `json:"last_report,omitempty"`
	LastAnnouncedAt    *time.Time `json:"last_announced_at,omitempty"` // nil = "now tracking" not yet announced
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Validate checks tracked-question field constraints.
func (q *TrackedQuestion) Validate() error {
	if q.ID == "" {
		return errors.New("question ID must not be empty")
	}
	if q.URL == "" {
		return errors.New("question URL must not be empty")
	}
	u, err := url.Parse(q.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("question URL must be absolute")
	}
	if q.LastNotifiedWindow != nil && *q.LastNotifiedWindow <= 0 {
		return errors.New("last notified window must be positive")
	}
	if q.LastNotifiedAt != nil && q.LastNotifiedAt.After(time.Now()) {
		return errors.New("last notified at must not be in the future")
	}
	return nil
}

// NotificationRecord is one row of the notification audit trail.
type NotificationRecord struct {
	ID          string    `json:"id"`
	QuestionID  string    `json:"question_id"`
	SentAt      time.Time `json:"sent_at"`
	WindowHours int       `json:"window_hours"`
	Report      string    `json:"report"`
}

// Notification is the structured payload handed to a notifier. Composition
// happens in the report package; notifiers only deliver.
type Notification struct {
	MarketURL  string `json:"url"`
	MarketName string `json:"market_name"`
	MarketID   string `json:"market_id"`
	Report     string `json:"report"`
	Comments   string `json:"comments,omitempty"`
	MoreInfo   string `json:"more_info,omitempty"`
	ChannelID  string `json:"channel_id,omitempty"`
}
