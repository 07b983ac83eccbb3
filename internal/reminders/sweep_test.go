package reminders

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

type chatRecorder struct {
	messages map[int64][]string
	fail     bool
}

func newChatRecorder() *chatRecorder {
	return &chatRecorder{messages: map[int64][]string{}}
}

func (c *chatRecorder) SendText(chatID int64, text string) error {
	if c.fail {
		return errors.New("telegram unavailable")
	}
	c.messages[chatID] = append(c.messages[chatID], text)
	return nil
}

type mailRecorder struct {
	sent []string
	fail bool
}

func (m *mailRecorder) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("sendgrid unavailable")
	}
	m.sent = append(m.sent, fmt.Sprintf("%s: %s", to, subject))
	return nil
}

func clockAt(day string) func() time.Time {
	t, err := time.Parse(storage.DateLayout, day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(9 * time.Hour) }
}

func agreementEnding(endDate string) *storage.Document {
	return &storage.Document{
		Users: []storage.User{{TelegramID: 42, FullName: "Иван Иванов", Email: "ivan@example.com"}},
		Cells: []storage.Cell{{Number: "A1", CellSizeCode: "s", IsOccupied: true}},
		RentalAgreements: []storage.RentalAgreement{{
			QRCode:         "SS-1-42-A1-20250101",
			UserTelegramID: 42,
			CellNumber:     "A1",
			EndDate:        endDate,
			Status:         storage.AgreementActive,
		}},
	}
}

func TestSweepPreExpiryMilestone(t *testing.T) {
	store := storage.NewMemStore(agreementEnding("2025-03-03"))
	chat := newChatRecorder()
	mail := &mailRecorder{}
	s := NewWithClock(store, chat, mail, 0, clockAt("2025-02-01"))

	stats := s.Run()
	assert.Equal(t, Stats{Sent: 1, EmailSent: 1}, stats)
	require.Len(t, chat.messages[42], 1)
	assert.Contains(t, chat.messages[42][0], "остался 1 месяц")
	assert.Contains(t, chat.messages[42][0], "Иван Иванов")
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0], "ivan@example.com")

	doc, err := store.Read()
	require.NoError(t, err)
	require.Len(t, doc.Reminders, 1)
	assert.Equal(t, "1m", doc.Reminders[0].ReminderType)
}

func TestSweepSameDayIsNoOp(t *testing.T) {
	store := storage.NewMemStore(agreementEnding("2025-03-03"))
	chat := newChatRecorder()
	s := NewWithClock(store, chat, &mailRecorder{}, 0, clockAt("2025-02-01"))

	first := s.Run()
	assert.Equal(t, 1, first.Sent)

	// Second trigger the same day hits the last-run guard.
	second := s.Run()
	assert.Equal(t, Stats{}, second)
	assert.Len(t, chat.messages[42], 1)

	// A fresh sweeper (say, after a restart) is stopped by the reminder log.
	fresh := NewWithClock(store, chat, &mailRecorder{}, 0, clockAt("2025-02-01"))
	assert.Equal(t, Stats{}, fresh.Run())
	assert.Len(t, chat.messages[42], 1)
}

func TestSweepOverdueWithTariff(t *testing.T) {
	doc := agreementEnding("2025-01-31")
	doc.OverdueTariffs = []storage.OverdueTariff{
		{CellSizeCode: "s", ValidFrom: "2025-01-01", ValidUntil: "2025-12-31", DailyRate: 50},
	}
	store := storage.NewMemStore(doc)
	chat := newChatRecorder()
	s := NewWithClock(store, chat, &mailRecorder{}, 0, clockAt("2025-02-01"))

	stats := s.Run()
	assert.Equal(t, 1, stats.Sent)
	require.Len(t, chat.messages[42], 1)
	assert.Contains(t, chat.messages[42][0], "Срок аренды истёк")
	assert.Contains(t, chat.messages[42][0], "Повышенный тариф: 50 руб./день.")

	saved, _ := store.Read()
	require.Len(t, saved.Reminders, 1)
	assert.Equal(t, "overdue_start", saved.Reminders[0].ReminderType)
}

func TestSweepOverdueMonthlyPoint(t *testing.T) {
	store := storage.NewMemStore(agreementEnding("2025-01-02"))
	chat := newChatRecorder()
	s := NewWithClock(store, chat, &mailRecorder{}, 0, clockAt("2025-02-01"))

	stats := s.Run()
	assert.Equal(t, 1, stats.Sent)

	saved, _ := store.Read()
	require.Len(t, saved.Reminders, 1)
	assert.Equal(t, "overdue_m1", saved.Reminders[0].ReminderType)
}

func TestSweepSixMonthEscalation(t *testing.T) {
	store := storage.NewMemStore(agreementEnding("2024-08-05"))
	chat := newChatRecorder()
	s := NewWithClock(store, chat, &mailRecorder{}, 0, clockAt("2025-02-01"))

	stats := s.Run()
	assert.Equal(t, 1, stats.Sent)
	assert.Contains(t, chat.messages[42][0], "6 месяцев")

	saved, _ := store.Read()
	require.Len(t, saved.Reminders, 1)
	assert.Equal(t, "overdue_6m", saved.Reminders[0].ReminderType)
}

func TestSweepSkipsQuietDays(t *testing.T) {
	// 20 days left matches no milestone.
	store := storage.NewMemStore(agreementEnding("2025-02-21"))
	chat := newChatRecorder()
	s := NewWithClock(store, chat, &mailRecorder{}, 0, clockAt("2025-02-01"))

	assert.Equal(t, Stats{}, s.Run())
	assert.Empty(t, chat.messages)

	saved, _ := store.Read()
	assert.Empty(t, saved.Reminders)
}

func TestSweepSkipsEndedAgreements(t *testing.T) {
	doc := agreementEnding("2025-03-03")
	doc.RentalAgreements[0].Status = storage.AgreementEnded
	store := storage.NewMemStore(doc)
	chat := newChatRecorder()
	s := NewWithClock(store, chat, &mailRecorder{}, 0, clockAt("2025-02-01"))

	assert.Equal(t, Stats{}, s.Run())
	assert.Empty(t, chat.messages)
}

func TestSweepRecordsReminderOnFailedDelivery(t *testing.T) {
	store := storage.NewMemStore(agreementEnding("2025-03-03"))
	chat := newChatRecorder()
	chat.fail = true
	s := NewWithClock(store, chat, &mailRecorder{fail: true}, 0, clockAt("2025-02-01"))

	stats := s.Run()
	assert.Equal(t, Stats{Errors: 2}, stats)

	// Failures still count as handled: the reminder is logged and will not
	// be re-sent on the next sweep.
	saved, _ := store.Read()
	require.Len(t, saved.Reminders, 1)
}

func TestSweepReportsFailuresToOperator(t *testing.T) {
	store := storage.NewMemStore(agreementEnding("2025-03-03"))
	chat := newChatRecorder()
	s := NewWithClock(store, chat, &mailRecorder{fail: true}, 777, clockAt("2025-02-01"))

	stats := s.Run()
	assert.Equal(t, Stats{Sent: 1, Errors: 1}, stats)
	require.Len(t, chat.messages[777], 1)
	assert.Contains(t, chat.messages[777][0], "ivan@example.com")
}
