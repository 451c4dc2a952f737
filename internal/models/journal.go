package models

// GradeEntry — одна оценка и тип работы, за которую она выставлена
// (контрольная, практическая и т.п.). После парсинга не изменяется.
type GradeEntry struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Subject — строка журнала: предмет и его оценки по датам.
// Ключ GradesMatrix — индекс в общем списке дат снимка (с нуля).
// Ячейки без оценок в матрицу не попадают.
type Subject struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	GradesMatrix map[int][]GradeEntry `json:"gradesMatrix"`
	Average      string               `json:"average"`
}

// JournalSnapshot — полный разобранный снимок журнала на момент одной загрузки.
// Снимок всегда заменяется целиком, частичных обновлений нет.
type JournalSnapshot struct {
	Subjects      []Subject `json:"subjects"`
	Months        []string  `json:"months"`
	Dates         []string  `json:"dates"`
	MonthColspans []int     `json:"monthColspans"`
}

// MonthStartPositions возвращает индекс первой даты каждого месяца:
// позиция i-го месяца — сумма colspan всех предыдущих.
func (s *JournalSnapshot) MonthStartPositions() []int {
	positions := make([]int, 0, len(s.MonthColspans))
	pos := 0
	for _, span := range s.MonthColspans {
		positions = append(positions, pos)
		pos += span
	}
	return positions
}
