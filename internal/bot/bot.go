// Package bot — обвязка Telegram: отправка уведомлений, привязка
// пользователей по токену и идемпотентное потребление апдейтов.
package bot

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier отправляет готовый текст пользователю.
type Notifier struct {
	api *tgbotapi.BotAPI
}

// New создаёт экземпляр бота по токену.
func New(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Printf("Бот авторизован как @%s", api.Self.UserName)
	return api, nil
}

// NewNotifier оборачивает API в отправителя уведомлений.
func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

// Send отправляет текст в чат. Разметка HTML, превью ссылок выключено.
func (n *Notifier) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := n.api.Send(msg)
	return err
}
