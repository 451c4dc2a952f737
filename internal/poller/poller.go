// Package poller обходит привязанных пользователей, сверяет свежие
// снимки с сохранёнными и рассылает уведомления об изменениях.
package poller

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/meowhiks/kbp-app/internal/db"
	"github.com/meowhiks/kbp-app/internal/diff"
	"github.com/meowhiks/kbp-app/internal/models"
)

// Fetcher получает свежие снимки из журнала и расписания.
type Fetcher interface {
	Journal(ctx context.Context, cookies string) (*models.JournalSnapshot, error)
	Timetable(ctx context.Context, groupID string) (*models.TimetableSnapshot, error)
}

// Store — операции хранилища, нужные поллеру.
type Store interface {
	BoundUsers() ([]models.UserRecord, error)
	UpdateSnapshots(token string, upd db.SnapshotUpdate) error
}

// Sender отправляет уведомление пользователю.
type Sender interface {
	Send(chatID int64, text string) error
}

// В сообщение попадает не больше стольких строк на категорию,
// остальное сворачивается в счётчик.
const maxChangeLines = 10

// UserResult — итог обработки одного пользователя за цикл.
type UserResult struct {
	Token  string
	OK     bool
	Detail string
}

// Orchestrator выполняет один цикл опроса. Пользователи обходятся
// строго последовательно с паузой между ними: это намеренное
// ограничение нагрузки на журнал, а не недосмотр.
type Orchestrator struct {
	Fetcher Fetcher
	Store   Store
	Sender  Sender
	Delay   time.Duration
}

// RunBatch обходит всех привязанных пользователей. Ошибка одного
// пользователя записывается в результат и не прерывает остальных.
func (o *Orchestrator) RunBatch(ctx context.Context) []UserResult {
	users, err := o.Store.BoundUsers()
	if err != nil {
		log.Printf("Ошибка чтения пользователей: %v", err)
		return nil
	}

	results := make([]UserResult, 0, len(users))
	for i, user := range users {
		if i > 0 && o.Delay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(o.Delay):
			}
		}

		if err := o.pollUser(ctx, &user); err != nil {
			log.Printf("Ошибка опроса пользователя %s: %v", user.Token, err)
			results = append(results, UserResult{Token: user.Token, OK: false, Detail: err.Error()})
			continue
		}
		results = append(results, UserResult{Token: user.Token, OK: true})
	}
	return results
}

// pollUser — цикл одного пользователя: получить снимки, сравнить
// отпечатки, при изменениях отправить уведомление, сохранить состояние.
func (o *Orchestrator) pollUser(ctx context.Context, user *models.UserRecord) error {
	journal, journalErr := o.Fetcher.Journal(ctx, user.Cookies)
	if journalErr != nil {
		log.Printf("Журнал пользователя %s недоступен: %v", user.Token, journalErr)
	}
	timetable, timetableErr := o.Fetcher.Timetable(ctx, user.GroupID)
	if timetableErr != nil {
		log.Printf("Расписание пользователя %s недоступно: %v", user.Token, timetableErr)
	}
	if journal == nil && timetable == nil {
		return fmt.Errorf("обе загрузки не удались: журнал: %v; расписание: %v", journalErr, timetableErr)
	}

	newJournalHash := user.LastJournalHash
	if journal != nil {
		newJournalHash = diff.Fingerprint(journal)
	}
	newTimetableHash := user.LastTimetableHash
	if timetable != nil {
		newTimetableHash = diff.Fingerprint(timetable.Pairs)
	}

	// Диффы считаются только против уже сохранённого снимка: на первом
	// круге уведомлять не о чем, снимок лишь становится базой.
	var journalChanges, timetableChanges []string
	if journal != nil && user.JournalSnapshot != nil {
		journalChanges = diff.Journal(user.JournalSnapshot, journal)
	}
	if timetable != nil && user.TimetableSnapshot != nil {
		timetableChanges = diff.Timetable(user.TimetableSnapshot.Pairs, timetable.Pairs)
	}

	journalChanged := journal != nil && (user.LastJournalHash == "" || newJournalHash != user.LastJournalHash)
	timetableChanged := timetable != nil && (user.LastTimetableHash == "" || newTimetableHash != user.LastTimetableHash)

	if journalChanged || timetableChanged {
		if text := formatMessage(user, journalChanges, timetableChanges); text != "" {
			if err := o.Sender.Send(user.TelegramUserID, text); err != nil {
				return fmt.Errorf("отправка уведомления: %w", err)
			}
		}
	}

	// Состояние сохраняется после каждой успешной загрузки, даже если
	// уведомление не отправлялось.
	upd := db.SnapshotUpdate{Journal: journal, Timetable: timetable}
	if journal != nil {
		upd.JournalHash = newJournalHash
	}
	if timetable != nil {
		upd.TimetableHash = newTimetableHash
	}
	if err := o.Store.UpdateSnapshots(user.Token, upd); err != nil {
		return err
	}
	return nil
}

// formatMessage собирает текст уведомления из изменений журнала и
// расписания. Пустые изменения дают пустую строку — слать нечего.
func formatMessage(user *models.UserRecord, journalChanges, timetableChanges []string) string {
	var parts []string
	if section := formatSection("📘 Журнал:", journalChanges); section != "" {
		parts = append(parts, section)
	}
	if section := formatSection("📅 Расписание:", timetableChanges); section != "" {
		parts = append(parts, section)
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("Обновления для %s (%s):\n\n%s", user.StudentName, user.GroupID, strings.Join(parts, "\n\n"))
}

func formatSection(title string, changes []string) string {
	if len(changes) == 0 {
		return ""
	}
	shown := changes
	if len(shown) > maxChangeLines {
		shown = shown[:maxChangeLines]
	}
	section := title + "\n" + strings.Join(shown, "\n")
	if rest := len(changes) - maxChangeLines; rest > 0 {
		section += fmt.Sprintf("\n… еще %d изменений", rest)
	}
	return section
}
