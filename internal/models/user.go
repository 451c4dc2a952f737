package models

// UserRecord — привязка пользователя: токен со страницы сайта, данные
// для входа в журнал и последнее известное состояние снимков.
// Поля привязки пишет обработчик /start, поля снимков — только поллер.
type UserRecord struct {
	ID          int64
	Token       string
	StudentName string
	GroupID     string
	BirthDay    string
	Cookies     string
	CreatedAt   string

	TelegramUserID    int64
	TelegramUsername  string
	TelegramFirstName string
	BoundAt           string

	LastJournalHash   string
	LastTimetableHash string
	JournalSnapshot   *JournalSnapshot
	TimetableSnapshot *TimetableSnapshot
}

// Bound сообщает, привязан ли к записи Telegram-аккаунт.
func (u *UserRecord) Bound() bool {
	return u.TelegramUserID != 0
}
