package bot

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/meowhiks/kbp-app/internal/models"
)

type fakeBinder struct {
	records map[string]*models.UserRecord
	bound   []string
}

func (f *fakeBinder) FindByToken(token string) (*models.UserRecord, bool) {
	rec, ok := f.records[token]
	return rec, ok
}

func (f *fakeBinder) BindTelegram(token string, tgUserID int64, username, firstName string) (*models.UserRecord, error) {
	f.bound = append(f.bound, token)
	rec := f.records[token]
	rec.TelegramUserID = tgUserID
	rec.TelegramUsername = username
	return rec, nil
}

type fakeSender struct {
	messages []string
	chatIDs  []int64
}

func (f *fakeSender) Send(chatID int64, text string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.messages = append(f.messages, text)
	return nil
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, UserName: "ivanov", FirstName: "Иван"},
	}}
}

func newTestHandler() (*Handler, *fakeBinder, *fakeSender) {
	binder := &fakeBinder{records: map[string]*models.UserRecord{
		"a1b2c3d4e5f6": {Token: "a1b2c3d4e5f6", StudentName: "Иванов", GroupID: "62"},
	}}
	sender := &fakeSender{}
	return NewHandler(binder, sender), binder, sender
}

func TestHandleUpdate_StartWithToken(t *testing.T) {
	h, binder, sender := newTestHandler()

	if err := h.HandleUpdate(textUpdate(100, "/start a1b2c3d4e5f6")); err != nil {
		t.Fatal(err)
	}
	if len(binder.bound) != 1 || binder.bound[0] != "a1b2c3d4e5f6" {
		t.Errorf("bound = %v", binder.bound)
	}
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0], "Уведомления включены") {
		t.Fatalf("messages = %v", sender.messages)
	}
	if !strings.Contains(sender.messages[0], "Группа: 62") || !strings.Contains(sender.messages[0], "Иванов") {
		t.Errorf("message = %q", sender.messages[0])
	}
	if binder.records["a1b2c3d4e5f6"].TelegramUserID != 100 {
		t.Error("telegram id не сохранён")
	}
}

func TestHandleUpdate_BareTokenText(t *testing.T) {
	h, binder, _ := newTestHandler()

	if err := h.HandleUpdate(textUpdate(100, "a1b2c3d4e5f6")); err != nil {
		t.Fatal(err)
	}
	if len(binder.bound) != 1 {
		t.Errorf("bound = %v", binder.bound)
	}
}

func TestHandleUpdate_StaleToken(t *testing.T) {
	h, binder, sender := newTestHandler()

	if err := h.HandleUpdate(textUpdate(100, "/start wrongtoken123")); err != nil {
		t.Fatal(err)
	}
	if len(binder.bound) != 0 {
		t.Errorf("привязка по неверному токену: %v", binder.bound)
	}
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0], "устарела") {
		t.Errorf("messages = %v", sender.messages)
	}
}

func TestHandleUpdate_BareStartAsksForLink(t *testing.T) {
	h, _, sender := newTestHandler()

	if err := h.HandleUpdate(textUpdate(100, "/start")); err != nil {
		t.Fatal(err)
	}
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0], "токен") {
		t.Errorf("messages = %v", sender.messages)
	}
}

func TestHandleUpdate_ChatterGetsHint(t *testing.T) {
	h, binder, sender := newTestHandler()

	if err := h.HandleUpdate(textUpdate(100, "привет, что ты умеешь?")); err != nil {
		t.Fatal(err)
	}
	if len(binder.bound) != 0 {
		t.Errorf("случайный текст привязал токен: %v", binder.bound)
	}
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0], "привязать") {
		t.Errorf("messages = %v", sender.messages)
	}
}

func TestHandleUpdate_IgnoresNonMessage(t *testing.T) {
	h, _, sender := newTestHandler()

	if err := h.HandleUpdate(tgbotapi.Update{}); err != nil {
		t.Fatal(err)
	}
	if len(sender.messages) != 0 {
		t.Errorf("messages = %v", sender.messages)
	}
}
