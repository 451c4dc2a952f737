package models

import "fmt"

// Статусы пары из класса блока в расписании.
const (
	StatusNormal    = "normal"
	StatusAdded     = "added"
	StatusReplaced  = "replaced"
	StatusRemoved   = "removed"
	StatusCancelled = "cancelled"
)

// Pair — одна пара в сетке расписания. День недели: 0=Пн .. 5=Сб.
// В одной клетке (день, номер пары) может стоять несколько пар сразу,
// например у подгрупп.
type Pair struct {
	PairNumber int    `json:"pairNumber"`
	Day        int    `json:"day"`
	DayName    string `json:"dayName"`
	Subject    string `json:"subject"`
	Teacher    string `json:"teacher"`
	Room       string `json:"room"`
	Status     string `json:"status"`
}

// TimeSpan — интервал занятий "от и до" в формате страницы ("8.00").
type TimeSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimetableSnapshot — разобранное расписание группы на неделю.
// DayStartTimes[d] — интервал от начала первой до конца последней
// видимой пары дня d; день без видимых пар остаётся с пустыми строками.
type TimetableSnapshot struct {
	GroupID       string      `json:"groupId"`
	GroupName     string      `json:"groupName"`
	Pairs         []Pair      `json:"pairs"`
	DayStartTimes [6]TimeSpan `json:"dayStartTimes"`
}

// WeekDayNames — названия дней недели в порядке индексов Pair.Day.
var WeekDayNames = [6]string{"Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота"}

// DayShortName возвращает короткое название дня для текстов уведомлений.
func DayShortName(day int) string {
	names := [6]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}
	if day >= 0 && day < len(names) {
		return names[day]
	}
	return fmt.Sprintf("День %d", day)
}
