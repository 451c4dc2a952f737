package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meowhiks/kbp-app/internal/models"
)

const userColumns = `id, token, student_name, group_id, birth_day, cookies, created_at,
        telegram_user_id, telegram_username, telegram_first_name, bound_at,
        last_journal_hash, last_timetable_hash, journal_snapshot, timetable_snapshot`

// CreateLinkRecord создаёт запись привязки с новым токеном. Токен потом
// приходит боту через старт-ссылку t.me/...?start=<token>.
func CreateLinkRecord(studentName, groupID, birthDay, cookies string) (*models.UserRecord, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	createdAt := time.Now().UTC().Format(time.RFC3339)

	res, err := DB.Exec(`
        INSERT INTO users (token, student_name, group_id, birth_day, cookies, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, token, studentName, groupID, birthDay, cookies, createdAt)
	if err != nil {
		return nil, fmt.Errorf("создание записи привязки: %w", err)
	}
	id, _ := res.LastInsertId()

	return &models.UserRecord{
		ID:          id,
		Token:       token,
		StudentName: studentName,
		GroupID:     groupID,
		BirthDay:    birthDay,
		Cookies:     cookies,
		CreatedAt:   createdAt,
	}, nil
}

// FindByToken ищет запись привязки по токену.
func FindByToken(token string) (*models.UserRecord, bool) {
	row := DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE token = ?`, token)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Printf("Ошибка поиска пользователя по токену: %v", err)
		return nil, false
	}
	return u, true
}

// BindTelegram привязывает Telegram-аккаунт к записи. Повторная привязка
// того же токена просто перезаписывает поля.
func BindTelegram(token string, tgUserID int64, username, firstName string) (*models.UserRecord, error) {
	_, err := DB.Exec(`
        UPDATE users
        SET telegram_user_id = ?, telegram_username = ?, telegram_first_name = ?, bound_at = ?
        WHERE token = ?
    `, tgUserID, username, firstName, time.Now().UTC().Format(time.RFC3339), token)
	if err != nil {
		return nil, fmt.Errorf("привязка Telegram: %w", err)
	}
	u, ok := FindByToken(token)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

// BoundUsers возвращает все записи с привязанным Telegram-аккаунтом —
// именно их обходит поллер.
func BoundUsers() ([]models.UserRecord, error) {
	rows, err := DB.Query(`SELECT ` + userColumns + ` FROM users WHERE telegram_user_id != 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SnapshotUpdate — новые значения снимков и отпечатков. Пустой хэш и
// nil-снимок означают "оставить как было".
type SnapshotUpdate struct {
	JournalHash   string
	TimetableHash string
	Journal       *models.JournalSnapshot
	Timetable     *models.TimetableSnapshot
}

// UpdateSnapshots сохраняет состояние пользователя после цикла опроса.
// Поля привязки не трогает, писать их может только обработчик /start.
func UpdateSnapshots(token string, upd SnapshotUpdate) error {
	u, ok := FindByToken(token)
	if !ok {
		return fmt.Errorf("пользователь с токеном %s не найден", token)
	}

	journalHash := u.LastJournalHash
	if upd.JournalHash != "" {
		journalHash = upd.JournalHash
	}
	timetableHash := u.LastTimetableHash
	if upd.TimetableHash != "" {
		timetableHash = upd.TimetableHash
	}

	journal := u.JournalSnapshot
	if upd.Journal != nil {
		journal = upd.Journal
	}
	timetable := u.TimetableSnapshot
	if upd.Timetable != nil {
		timetable = upd.Timetable
	}

	journalJSON, err := marshalSnapshot(journal)
	if err != nil {
		return err
	}
	timetableJSON, err := marshalSnapshot(timetable)
	if err != nil {
		return err
	}

	_, err = DB.Exec(`
        UPDATE users
        SET last_journal_hash = ?, last_timetable_hash = ?, journal_snapshot = ?, timetable_snapshot = ?
        WHERE token = ?
    `, journalHash, timetableHash, journalJSON, timetableJSON, token)
	if err != nil {
		return fmt.Errorf("сохранение снимков: %w", err)
	}
	return nil
}

// marshalSnapshot сериализует снимок в JSON; типизированный nil-указатель
// даёт пустую строку, а не строку "null".
func marshalSnapshot(v any) (string, error) {
	switch vv := v.(type) {
	case *models.JournalSnapshot:
		if vv == nil {
			return "", nil
		}
	case *models.TimetableSnapshot:
		if vv == nil {
			return "", nil
		}
	case nil:
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("сериализация снимка: %w", err)
	}
	return string(data), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.UserRecord, error) {
	var u models.UserRecord
	var journalJSON, timetableJSON string
	err := row.Scan(
		&u.ID, &u.Token, &u.StudentName, &u.GroupID, &u.BirthDay, &u.Cookies, &u.CreatedAt,
		&u.TelegramUserID, &u.TelegramUsername, &u.TelegramFirstName, &u.BoundAt,
		&u.LastJournalHash, &u.LastTimetableHash, &journalJSON, &timetableJSON,
	)
	if err != nil {
		return nil, err
	}

	if journalJSON != "" {
		var snap models.JournalSnapshot
		if err := json.Unmarshal([]byte(journalJSON), &snap); err == nil {
			u.JournalSnapshot = &snap
		} else {
			log.Printf("Повреждённый снимок журнала у %s: %v", u.Token, err)
		}
	}
	if timetableJSON != "" {
		var snap models.TimetableSnapshot
		if err := json.Unmarshal([]byte(timetableJSON), &snap); err == nil {
			u.TimetableSnapshot = &snap
		} else {
			log.Printf("Повреждённый снимок расписания у %s: %v", u.Token, err)
		}
	}
	return &u, nil
}
