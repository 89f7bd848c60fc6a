package monitor

import (
	"time"

	"github.com/foldwatch/foldwatch/internal/models"
)

// IsTimeForNewUpdate reports whether a question is past its notification
// cooldown for the given detection window. A question that has never been
// notified is always due; otherwise strictly more than windowHours must have
// elapsed since the last notification.
func IsTimeForNewUpdate(q *models.TrackedQuestion, windowHours int, now time.Time) bool {
	if q.LastNotifiedAt == nil {
		return true
	}
	return now.Sub(*q.LastNotifiedAt) > time.Duration(windowHours)*time.Hour
}

// NeedsTrackingAnnouncement reports whether a question has not yet been
// announced as tracked.
func NeedsTrackingAnnouncement(q *models.TrackedQuestion) bool {
	return q.LastAnnouncedAt == nil
}
