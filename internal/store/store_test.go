package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxNotifications int) *Store {
	t.Helper()
	s, err := New(maxNotifications, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddQuestionIdempotent(t *testing.T) {
	s := newTestStore(t, 100)

	q1, err := s.AddQuestion("https://manifold.markets/alice/will-x-happen")
	require.NoError(t, err)
	assert.NotEmpty(t, q1.ID)
	assert.True(t, q1.Tracked)
	assert.Nil(t, q1.LastNotifiedAt)

	q2, err := s.AddQuestion("https://manifold.markets/alice/will-x-happen")
	require.NoError(t, err)
	assert.Equal(t, q1.ID, q2.ID)

	tracked, err := s.ListTracked()
	require.NoError(t, err)
	assert.Len(t, tracked, 1)
}

func TestAddQuestionRejectsRelativeURL(t *testing.T) {
	s := newTestStore(t, 100)

	_, err := s.AddQuestion("not-a-url")
	assert.Error(t, err)
}

func TestSetTracked(t *testing.T) {
	s := newTestStore(t, 100)

	q, err := s.AddQuestion("https://manifold.markets/alice/will-x-happen")
	require.NoError(t, err)

	require.NoError(t, s.SetTracked(q.ID, false))
	tracked, err := s.ListTracked()
	require.NoError(t, err)
	assert.Empty(t, tracked)

	require.NoError(t, s.SetTracked(q.ID, true))
	tracked, err = s.ListTracked()
	require.NoError(t, err)
	assert.Len(t, tracked, 1)

	assert.Error(t, s.SetTracked("missing", true))
}

func TestRecordNotification(t *testing.T) {
	s := newTestStore(t, 100)

	q, err := s.AddQuestion("https://manifold.markets/alice/will-x-happen")
	require.NoError(t, err)

	sentAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report := "\U0001F4C8 Up 15% in the last day"
	require.NoError(t, s.RecordNotification(q.ID, 24, report, sentAt))

	got, err := s.GetQuestion(q.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastNotifiedAt)
	assert.True(t, got.LastNotifiedAt.Equal(sentAt))
	require.NotNil(t, got.LastNotifiedWindow)
	assert.Equal(t, 24, *got.LastNotifiedWindow)
	assert.Equal(t, report, got.LastReport)

	records, err := s.RecentNotifications(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, q.ID, records[0].QuestionID)
	assert.Equal(t, 24, records[0].WindowHours)
	assert.Equal(t, report, records[0].Report)
}

func TestRecordNotificationUnknownQuestion(t *testing.T) {
	s := newTestStore(t, 100)

	err := s.RecordNotification("missing", 24, "report", time.Now())
	assert.Error(t, err)

	records, err := s.RecentNotifications(10)
	require.NoError(t, err)
	assert.Empty(t, records, "failed stamp must not leave an audit row")
}

func TestNotificationCap(t *testing.T) {
	s := newTestStore(t, 3)

	q, err := s.AddQuestion("https://manifold.markets/alice/will-x-happen")
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		sentAt := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.RecordNotification(q.ID, 24, "report", sentAt))
	}

	records, err := s.RecentNotifications(10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first, oldest two trimmed.
	assert.True(t, records[0].SentAt.Equal(base.Add(4*time.Hour)))
	assert.True(t, records[2].SentAt.Equal(base.Add(2*time.Hour)))
}

func TestRecordTrackingAnnouncement(t *testing.T) {
	s := newTestStore(t, 100)

	q, err := s.AddQuestion("https://manifold.markets/alice/will-x-happen")
	require.NoError(t, err)
	require.Nil(t, q.LastAnnouncedAt)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordTrackingAnnouncement(q.ID, at))

	got, err := s.GetQuestion(q.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastAnnouncedAt)
	assert.True(t, got.LastAnnouncedAt.Equal(at))

	assert.Error(t, s.RecordTrackingAnnouncement("missing", at))
}

func TestPing(t *testing.T) {
	s := newTestStore(t, 100)
	assert.NoError(t, s.Ping())
}
