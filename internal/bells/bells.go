// Package bells хранит расписание звонков колледжа: отображение
// (день недели, номер пары) -> интервал времени. Таблица одна на всё
// приложение и передаётся явно и парсеру расписания, и триггеру опроса.
package bells

import (
	"strconv"
	"strings"

	"github.com/meowhiks/kbp-app/internal/models"
)

// Table — звонки по дням: день (0=Пн..5=Сб) -> номер пары -> интервал.
type Table map[int]map[int]models.TimeSpan

// PairTime возвращает интервал пары или пустой интервал, если такой
// пары в сетке дня нет.
func (t Table) PairTime(day, pairNumber int) models.TimeSpan {
	if d, ok := t[day]; ok {
		if span, ok := d[pairNumber]; ok {
			return span
		}
	}
	return models.TimeSpan{}
}

// ToMinutes переводит время вида "8.55" в минуты от полуночи.
// Некорректная строка даёт 0.
func ToMinutes(timeStr string) int {
	parts := strings.SplitN(timeStr, ".", 2)
	if len(parts) != 2 {
		return 0
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0
	}
	return h*60 + m
}

func weekday(spans ...models.TimeSpan) map[int]models.TimeSpan {
	day := make(map[int]models.TimeSpan, len(spans))
	for i, s := range spans {
		day[i+1] = s
	}
	return day
}

func span(start, end string) models.TimeSpan {
	return models.TimeSpan{Start: start, End: end}
}

// commonDay — сетка обычного дня (Пн, Вт, Ср, Пт).
func commonDay() map[int]models.TimeSpan {
	return weekday(
		span("8.00", "8.45"), span("8.55", "9.40"), span("9.50", "10.35"),
		span("10.45", "11.30"), span("12.00", "12.45"), span("12.55", "13.40"),
		span("14.00", "14.45"), span("14.55", "15.40"), span("16.00", "16.45"),
		span("16.55", "17.40"), span("17.50", "18.35"), span("18.45", "19.30"),
		span("19.40", "20.25"),
	)
}

// Default — действующее расписание звонков. Четверг сдвинут из-за
// классного часа, суббота короче из-за сокращённых перемен.
func Default() Table {
	return Table{
		0: commonDay(),
		1: commonDay(),
		2: commonDay(),
		3: weekday(
			span("8.00", "8.45"), span("8.55", "9.40"), span("9.50", "10.35"),
			span("10.45", "11.30"), span("12.00", "12.45"), span("12.55", "13.40"),
			span("14.40", "15.25"), span("15.35", "16.20"), span("16.30", "17.15"),
			span("17.25", "18.10"), span("18.20", "19.05"), span("19.15", "20.00"),
			span("20.10", "20.55"),
		),
		4: commonDay(),
		5: weekday(
			span("8.00", "8.45"), span("8.55", "9.40"), span("9.50", "10.35"),
			span("10.45", "11.30"), span("11.40", "12.25"), span("12.35", "13.20"),
			span("13.40", "14.25"), span("14.35", "15.20"), span("15.30", "16.15"),
			span("16.25", "17.10"), span("17.20", "18.05"), span("18.15", "19.00"),
			span("19.10", "19.55"),
		),
	}
}
