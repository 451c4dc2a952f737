package poller

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/meowhiks/kbp-app/internal/bells"
)

// Trigger запускает цикл опроса в окне после конца каждой пары.
// Повторные тики внутри одного окна гасятся множеством уже сработавших
// слотов; ключ слота содержит дату, так что смена суток начинает всё
// заново.
type Trigger struct {
	Bells  bells.Table
	Window time.Duration
	Now    func() time.Time
	Fire   func()

	fired     map[string]bool
	firedDate string
}

// NewTrigger собирает триггер с боевыми часами.
func NewTrigger(b bells.Table, window time.Duration, fire func()) *Trigger {
	return &Trigger{
		Bells:  b,
		Window: window,
		Now:    time.Now,
		Fire:   fire,
		fired:  make(map[string]bool),
	}
}

// Tick проверяет, попало ли "сейчас" в окно после конца какой-нибудь
// пары сегодняшнего дня, и если слот ещё не срабатывал — запускает
// один цикл. Возвращает число запусков за тик.
func (t *Trigger) Tick() int {
	now := t.Now()

	// Воскресенье пар не имеет.
	dayIndex := int(now.Weekday()) - 1
	if now.Weekday() == time.Sunday {
		dayIndex = 6
	}
	if dayIndex < 0 || dayIndex > 5 {
		return 0
	}

	daySchedule, ok := t.Bells[dayIndex]
	if !ok {
		return 0
	}

	date := now.Format("2006-01-02")
	if date != t.firedDate {
		// Новый день — прошлые слоты больше не понадобятся.
		t.fired = make(map[string]bool)
		t.firedDate = date
	}

	minutesNow := now.Hour()*60 + now.Minute()
	windowMinutes := int(t.Window / time.Minute)

	firedCount := 0
	for pairNumber, span := range daySchedule {
		endMinutes := bells.ToMinutes(span.End)
		if minutesNow < endMinutes || minutesNow > endMinutes+windowMinutes {
			continue
		}
		slotID := fmt.Sprintf("%s-%d-%d", date, dayIndex, pairNumber)
		if t.fired[slotID] {
			continue
		}
		t.fired[slotID] = true
		t.Fire()
		firedCount++
	}
	return firedCount
}

// Run тикает с заданным интервалом до отмены контекста. Каждый запуск
// выполняется синхронно внутри тика, пачки не перекрываются.
func (t *Trigger) Run(ctx context.Context, interval time.Duration) {
	log.Printf("Триггер опроса запущен (окна после пар, интервал %s)", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}
