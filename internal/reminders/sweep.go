// Package reminders implements the daily sweep over active rental
// agreements: pre-expiry milestones, overdue milestones with tariff text,
// and the 6-month escalation. Each milestone fires at most once per
// agreement per calendar day.
package reminders

import (
	"fmt"
	"sync"
	"time"

	"github.com/KamenskiyIlya/Self-Storage/internal/logger"
	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

// TextSender delivers a chat message. Failures are reported, never retried.
type TextSender interface {
	SendText(chatID int64, text string) error
}

// EmailSender delivers an email. A missing configuration shows up as an
// error here and is treated the same as any other delivery failure.
type EmailSender interface {
	Send(to, subject, body string) error
}

// Stats summarizes one sweep.
type Stats struct {
	Sent      int
	EmailSent int
	Errors    int
}

type milestone struct {
	offset int
	code   string
	text   string
}

var preExpiryPlan = []milestone{
	{30, "1m", "До окончания аренды остался 1 месяц."},
	{14, "2w", "До окончания аренды осталось 2 недели."},
	{7, "1w", "До окончания аренды осталась 1 неделя."},
	{3, "3d", "До окончания аренды осталось 3 дня."},
}

var overduePoints = map[int]bool{1: true, 30: true, 60: true, 90: true, 120: true, 150: true}

// Sweeper runs the reminder sweep. A mutex plus a last-run-date marker
// collapse overlapping or repeated same-day triggers into no-ops.
type Sweeper struct {
	store          storage.Store
	chat           TextSender
	mail           EmailSender
	operatorChatID int64
	now            func() time.Time

	mu      sync.Mutex
	lastRun string
}

func New(store storage.Store, chat TextSender, mail EmailSender, operatorChatID int64) *Sweeper {
	return &Sweeper{store: store, chat: chat, mail: mail, operatorChatID: operatorChatID, now: time.Now}
}

func NewWithClock(store storage.Store, chat TextSender, mail EmailSender, operatorChatID int64, now func() time.Time) *Sweeper {
	return &Sweeper{store: store, chat: chat, mail: mail, operatorChatID: operatorChatID, now: now}
}

// Run performs one sweep. A trigger while another sweep is in flight, or a
// second trigger on the same calendar day, does nothing.
func (s *Sweeper) Run() Stats {
	if !s.mu.TryLock() {
		return Stats{}
	}
	defer s.mu.Unlock()

	today := s.today()
	if s.lastRun == storage.FormatDate(today) {
		return Stats{}
	}

	stats := s.sweep(today)
	s.lastRun = storage.FormatDate(today)
	logger.Info("reminder sweep finished",
		"sent", stats.Sent, "email_sent", stats.EmailSent, "errors", stats.Errors)
	return stats
}

func (s *Sweeper) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Sweeper) sweep(today time.Time) Stats {
	doc, err := s.store.Read()
	if err != nil {
		logger.Error("reminder sweep: failed to read store", "error", err)
		return Stats{Errors: 1}
	}

	stats := Stats{}
	changed := false

	for _, rent := range doc.RentalAgreements {
		if rent.Status != storage.AgreementActive {
			continue
		}
		end, ok := storage.ParseDate(rent.EndDate)
		if !ok || rent.QRCode == "" || rent.UserTelegramID == 0 {
			continue
		}

		daysLeft := int(end.Sub(today).Hours() / 24)
		message, reminderType, subject := s.pickReminder(doc, rent, daysLeft, today)
		if message == "" {
			continue
		}

		fullName := "Клиент"
		email := ""
		if user := doc.FindUser(rent.UserTelegramID); user != nil {
			if user.FullName != "" {
				fullName = user.FullName
			}
			email = user.Email
		}
		body := fmt.Sprintf("%s,\n\n%s", fullName, message)

		if err := s.chat.SendText(rent.UserTelegramID, body); err != nil {
			stats.Errors++
			s.reportToOperator(fmt.Sprintf("Не удалось отправить Telegram-напоминание пользователю %d (%s).",
				rent.UserTelegramID, rent.QRCode))
		} else {
			stats.Sent++
		}

		if email != "" {
			if err := s.mail.Send(email, subject, body); err != nil {
				stats.Errors++
				s.reportToOperator(fmt.Sprintf("Не удалось отправить email на %s (%s).", email, rent.QRCode))
			} else {
				stats.EmailSent++
			}
		}

		// Recorded regardless of channel outcome: non-duplication beats
		// retrying a failed delivery.
		doc.AppendReminder(rent.QRCode, reminderType, s.now())
		changed = true
	}

	if changed {
		if err := s.store.Write(doc); err != nil {
			logger.Error("reminder sweep: failed to save reminder log", "error", err)
			stats.Errors++
		}
	}
	return stats
}

// pickReminder applies the milestone rules in priority order: pre-expiry
// offsets first, then overdue points, then the 6-month escalation. An empty
// message means nothing is due today for this agreement.
func (s *Sweeper) pickReminder(doc *storage.Document, rent storage.RentalAgreement, daysLeft int, today time.Time) (message, reminderType, subject string) {
	for _, m := range preExpiryPlan {
		if daysLeft != m.offset || doc.ReminderSentToday(rent.QRCode, m.code, today) {
			continue
		}
		message = fmt.Sprintf("%s\nДоговор: %s\nЯчейка: %s\nДата окончания: %s",
			m.text, rent.QRCode, rent.CellNumber, rent.EndDate)
		return message, m.code, fmt.Sprintf("SelfStorage: напоминание по договору %s", rent.QRCode)
	}

	daysOverdue := -daysLeft
	if overduePoints[daysOverdue] {
		overdueType := "overdue_start"
		if daysOverdue != 1 {
			overdueType = fmt.Sprintf("overdue_m%d", daysOverdue/30)
		}
		if !doc.ReminderSentToday(rent.QRCode, overdueType, today) {
			tariffText := "Повышенный тариф применяется согласно вашему договору."
			if cell := doc.CellByNumber(rent.CellNumber); cell != nil {
				if rate, ok := doc.OverdueDailyRate(cell.CellSizeCode, today); ok {
					tariffText = fmt.Sprintf("Повышенный тариф: %.0f руб./день.", rate)
				}
			}
			message = fmt.Sprintf(
				"Срок аренды истёк.\nДоговор: %s\nДата окончания: %s\nВещи хранятся до 6 месяцев после окончания срока аренды.\n%s\nПожалуйста, заберите вещи как можно скорее.",
				rent.QRCode, rent.EndDate, tariffText)
			return message, overdueType, fmt.Sprintf("SelfStorage: просрочка по договору %s", rent.QRCode)
		}
	}

	if daysOverdue == 180 && !doc.ReminderSentToday(rent.QRCode, "overdue_6m", today) {
		message = fmt.Sprintf(
			"Срок просроченного хранения достиг 6 месяцев.\nДоговор: %s\nСвяжитесь с нами срочно, чтобы согласовать дальнейшие действия.",
			rent.QRCode)
		return message, "overdue_6m", fmt.Sprintf("SelfStorage: 6 месяцев просрочки по договору %s", rent.QRCode)
	}

	return "", "", ""
}

func (s *Sweeper) reportToOperator(text string) {
	if s.operatorChatID == 0 {
		return
	}
	if err := s.chat.SendText(s.operatorChatID, text); err != nil {
		logger.Warn("failed to notify operator", "error", err)
	}
}
