package bot

import (
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/meowhiks/kbp-app/internal/models"
)

// Binder — операции хранилища, нужные обработчику привязки.
type Binder interface {
	FindByToken(token string) (*models.UserRecord, bool)
	BindTelegram(token string, tgUserID int64, username, firstName string) (*models.UserRecord, error)
}

// Sender — отправка текста пользователю.
type Sender interface {
	Send(chatID int64, text string) error
}

// Токен привязки, присланный просто текстом без /start.
var tokenRe = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)

// Handler обрабатывает входящие сообщения: единственный сценарий —
// привязка аккаунта по токену со старт-ссылки сайта.
type Handler struct {
	store  Binder
	sender Sender
}

func NewHandler(store Binder, sender Sender) *Handler {
	return &Handler{store: store, sender: sender}
}

// HandleUpdate разбирает одно обновление. Обновления без текста
// игнорируются молча.
func (h *Handler) HandleUpdate(update tgbotapi.Update) error {
	if update.Message == nil || update.Message.Text == "" {
		return nil
	}
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	if strings.HasPrefix(text, "/start") {
		parts := strings.Fields(text)
		if len(parts) < 2 {
			return h.sender.Send(chatID, "Нужна стартовая ссылка или токен из сайта, чтобы привязать уведомления.")
		}
		return h.bindToken(chatID, parts[1], update.Message.From)
	}

	if tokenRe.MatchString(text) {
		return h.bindToken(chatID, text, update.Message.From)
	}

	return h.sender.Send(chatID,
		"Я шлю уведомления об изменениях. Чтобы привязать аккаунт, нажмите «Включить уведомления» на сайте и пришлите мне токен или старт-ссылку.")
}

// bindToken привязывает Telegram-аккаунт к записи с данным токеном.
// Повторная привязка того же токена безвредна.
func (h *Handler) bindToken(chatID int64, token string, from *tgbotapi.User) error {
	record, ok := h.store.FindByToken(token)
	if !ok {
		return h.sender.Send(chatID, "Ссылка устарела или неверна. Сгенерируйте новую на сайте.")
	}

	var username, firstName string
	if from != nil {
		username = from.UserName
		firstName = from.FirstName
	}
	if _, err := h.store.BindTelegram(token, chatID, username, firstName); err != nil {
		return fmt.Errorf("привязка токена %s: %w", token, err)
	}

	return h.sender.Send(chatID, fmt.Sprintf(
		"✅ Уведомления включены.\nГруппа: %s\nФамилия: %s\nТеперь я буду присылать изменения оценок и расписания.",
		record.GroupID, record.StudentName))
}
