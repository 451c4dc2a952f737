package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/meowhiks/kbp-app/internal/bells"
	"github.com/meowhiks/kbp-app/internal/models"
)

var (
	tableRe      = regexp.MustCompile(`(?i)<table[^>]*>([\s\S]*?)</table>`)
	rowRe        = regexp.MustCompile(`<tr[^>]*>([\s\S]*?)</tr>`)
	pairNumberRe = regexp.MustCompile(`<td[^>]*class="[^"]*number[^"]*"[^>]*>(\d+)</td>`)
	dayCommentRe = regexp.MustCompile(`<!--[^>]*day="(\d+)"[^>]*-->`)
	cellLinkRe   = regexp.MustCompile(`(?i)<a[^>]*>([^<]+)</a>`)
)

// ParseTimetable разбирает недельную сетку расписания группы.
// Таблица находится по одновременному наличию номеров пар и дневных
// меток; если такой таблицы нет, возвращается пустой снимок.
// Расписание звонков передаётся снаружи и нужно только для вычисления
// интервалов занятости по дням.
func ParseTimetable(html, groupID, groupName string, b bells.Table) *models.TimetableSnapshot {
	snap := &models.TimetableSnapshot{
		GroupID:   groupID,
		GroupName: groupName,
		Pairs:     []models.Pair{},
	}

	tableContent := ""
	for _, m := range tableRe.FindAllStringSubmatch(html, -1) {
		if strings.Contains(m[1], "pair-number") && strings.Contains(m[1], "day=") {
			tableContent = m[1]
			break
		}
	}
	if tableContent == "" {
		return snap
	}

	for _, rowMatch := range rowRe.FindAllStringSubmatch(tableContent, -1) {
		rowContent := rowMatch[1]

		numMatch := pairNumberRe.FindStringSubmatch(rowContent)
		if numMatch == nil {
			continue
		}
		pairNumber, _ := strconv.Atoi(numMatch[1])

		dayCells := cellRe.FindAllStringSubmatch(rowContent, -1)
		// Первая и последняя колонки — номера пар, между ними шесть дней.
		if len(dayCells) < 8 {
			continue
		}

		for cellIndex := 1; cellIndex < len(dayCells)-1; cellIndex++ {
			cellContent := dayCells[cellIndex][1]

			dayIndex := resolveDayIndex(cellContent, cellIndex)
			if dayIndex < 0 || dayIndex > 5 {
				continue
			}

			snap.Pairs = append(snap.Pairs, parseCellPairs(cellContent, pairNumber, dayIndex)...)
		}
	}

	snap.DayStartTimes = dayStartTimes(snap.Pairs, b)
	return snap
}

// resolveDayIndex берёт день из встроенного комментария (1..6), а при его
// отсутствии — из позиции ячейки в строке.
func resolveDayIndex(cellContent string, cellIndex int) int {
	if m := dayCommentRe.FindStringSubmatch(cellContent); m != nil {
		if day, err := strconv.Atoi(m[1]); err == nil && day >= 1 && day <= 6 {
			return day - 1
		}
	}
	return cellIndex - 1
}

// parseCellPairs вытаскивает из одной клетки все блоки пар: их может быть
// ноль, одна или несколько (подгруппы, замены поверх снятых пар).
func parseCellPairs(cellContent string, pairNumber, dayIndex int) []models.Pair {
	var pairs []models.Pair

	pos := 0
	for iter := 0; iter < maxBlockScans && pos < len(cellContent); iter++ {
		block, ok := ExtractBlock(cellContent, pos, "pair")
		if !ok {
			break
		}
		pos = block.End

		if strings.TrimSpace(block.Content) == "" {
			continue
		}

		pair := models.Pair{
			PairNumber: pairNumber,
			Day:        dayIndex,
			DayName:    models.WeekDayNames[dayIndex],
			Status:     pairStatus(block.Class),
		}

		if subj, ok := ExtractBlock(block.Content, 0, "subject"); ok {
			if m := cellLinkRe.FindStringSubmatch(subj.Content); m != nil {
				pair.Subject = strings.TrimSpace(m[1])
			}
		}
		pair.Teacher = parseTeachers(block.Content)
		pair.Room = parseRoom(block.Content)

		// Блок без предмета — пустая или служебная клетка, пропускаем.
		if pair.Subject != "" {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// parseTeachers собирает всех преподавателей из левой колонки блока пары.
func parseTeachers(pairContent string) string {
	left, ok := ExtractBlock(pairContent, 0, "left-column")
	if !ok {
		return ""
	}

	var teachers []string
	pos := 0
	for iter := 0; iter < maxBlockScans && pos < len(left.Content); iter++ {
		teacherBlock, ok := ExtractBlock(left.Content, pos, "teacher")
		if !ok {
			break
		}
		pos = teacherBlock.End
		for _, link := range cellLinkRe.FindAllStringSubmatch(teacherBlock.Content, -1) {
			name := strings.TrimSpace(link[1])
			if name != "" && name != "&nbsp;" {
				teachers = append(teachers, name)
			}
		}
	}
	return strings.Join(teachers, ", ")
}

// parseRoom берёт первую непустую аудиторию из правой колонки блока пары.
func parseRoom(pairContent string) string {
	right, ok := ExtractBlock(pairContent, 0, "right-column")
	if !ok {
		return ""
	}
	place, ok := ExtractBlock(right.Content, 0, "place")
	if !ok {
		return ""
	}
	for _, link := range cellLinkRe.FindAllStringSubmatch(place.Content, -1) {
		room := strings.TrimSpace(link[1])
		if room != "" && room != "&nbsp;" {
			return room
		}
	}
	return ""
}

// pairStatus определяет статус пары по классам её блока.
func pairStatus(class string) string {
	switch {
	case strings.Contains(class, "added"):
		return models.StatusAdded
	case strings.Contains(class, "replaced"):
		return models.StatusReplaced
	case strings.Contains(class, "removed"):
		return models.StatusRemoved
	case strings.Contains(class, "cancelled"):
		return models.StatusCancelled
	}
	return models.StatusNormal
}

// pairVisible отсекает пары, не идущие по факту: снятые и отменённые.
func pairVisible(p models.Pair) bool {
	subject := strings.TrimSpace(p.Subject)
	if subject == "" {
		return false
	}
	if strings.Contains(strings.ToLower(subject), "урок снят") {
		return false
	}
	if p.Status == models.StatusRemoved || p.Status == models.StatusCancelled {
		return false
	}
	return true
}

// dayStartTimes считает для каждого дня интервал от начала первой до
// конца последней видимой пары по таблице звонков.
func dayStartTimes(pairs []models.Pair, b bells.Table) [6]models.TimeSpan {
	var spans [6]models.TimeSpan
	for day := 0; day < 6; day++ {
		first, last := 0, 0
		for _, p := range pairs {
			if p.Day != day || !pairVisible(p) {
				continue
			}
			if first == 0 || p.PairNumber < first {
				first = p.PairNumber
			}
			if p.PairNumber > last {
				last = p.PairNumber
			}
		}
		if first == 0 {
			continue
		}
		spans[day] = models.TimeSpan{
			Start: b.PairTime(day, first).Start,
			End:   b.PairTime(day, last).End,
		}
	}
	return spans
}
