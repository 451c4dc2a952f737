package bot

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// OffsetStore — персистентный курсор последнего обработанного апдейта.
type OffsetStore interface {
	GetOffset() (int, error)
	SetOffset(offset int) error
}

// Tracker один раз за вызов забирает пачку апдейтов и проводит каждый
// через обработчик ровно один раз. Идемпотентность держится на курсоре:
// запрашиваем с offset = курсор + 1, апдейты с id не выше курсора
// пропускаем даже при повторной доставке.
type Tracker struct {
	Store  OffsetStore
	Fetch  func(offset, limit int) ([]tgbotapi.Update, error)
	Handle func(update tgbotapi.Update) error
	Limit  int
}

// NewTracker собирает трекер поверх getUpdates живого бота.
func NewTracker(api *tgbotapi.BotAPI, store OffsetStore, handle func(tgbotapi.Update) error) *Tracker {
	return &Tracker{
		Store: store,
		Fetch: func(offset, limit int) ([]tgbotapi.Update, error) {
			return api.GetUpdates(tgbotapi.UpdateConfig{Offset: offset, Limit: limit, Timeout: 0})
		},
		Handle: handle,
		Limit:  50,
	}
}

// Poll забирает и обрабатывает одну пачку. Возвращает число полученных
// апдейтов и новое значение курсора.
//
// Курсор двигается только по успешно обработанным апдейтам до первой
// ошибки: упавший апдейт не перешагивается и на следующем цикле придёт
// снова. Апдейты после ошибки в той же пачке всё равно обрабатываются,
// их повторная доставка безопасна, обработчик идемпотентен.
func (t *Tracker) Poll() (received, newOffset int, err error) {
	cursor, err := t.Store.GetOffset()
	if err != nil {
		return 0, 0, err
	}

	updates, err := t.Fetch(cursor+1, t.Limit)
	if err != nil {
		return 0, cursor, err
	}

	newOffset = cursor
	failed := false
	for _, upd := range updates {
		if upd.UpdateID <= cursor {
			continue
		}
		if herr := t.Handle(upd); herr != nil {
			log.Printf("Ошибка обработки апдейта %d: %v", upd.UpdateID, herr)
			failed = true
			continue
		}
		if !failed && upd.UpdateID > newOffset {
			newOffset = upd.UpdateID
		}
	}

	if newOffset != cursor {
		if err := t.Store.SetOffset(newOffset); err != nil {
			return len(updates), cursor, err
		}
	}
	return len(updates), newOffset, nil
}
