package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/meowhiks/kbp-app/internal/models"
)

// Маркер, по которому журнал отличим от страницы с истёкшей сессией.
var journalMarkers = []string{"pupilName", "dateOfMonth", "mark mar row"}

// JournalAvailable проверяет, что страница вообще содержит журнал.
// Отсутствие всех маркеров означает, что сессия истекла.
func JournalAvailable(html string) bool {
	for _, marker := range journalMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}

var (
	monthsRowRe  = regexp.MustCompile(`<tr[^>]*id="months"[^>]*>([\s\S]*?)</tr>`)
	monthCellRe  = regexp.MustCompile(`<td[^>]*colspan="(\d+)"[^>]*>[\s\S]*?<div[^>]*title="([^"]+)"[^>]*class="nameMonth"[^>]*>([^<]+)</div>`)
	datesRowRe   = regexp.MustCompile(`<tr[^>]*id="dateOfMonth"[^>]*>([\s\S]*?)</tr>`)
	dateCellRe   = regexp.MustCompile(`<td[^>]*><div>(\d+)</div></td>`)
	subjectRowRe = regexp.MustCompile(`<tr[^>]*class="row(\d+)"[^>]*>[\s\S]*?<div[^>]*class="pupilName"[^>]*>([\s\S]*?)</div>`)
	markRowRe    = regexp.MustCompile(`<tr[^>]*class="mark mar row(\d+)"[^>]*>([\s\S]*?)</tr>`)
	cellRe       = regexp.MustCompile(`<td[^>]*>([\s\S]*?)</td>`)
	markDivRe    = regexp.MustCompile(`<div[^>]*data-count-mark="(\d+)"[^>]*>([\s\S]*?)</div>`)
	openTagRe    = regexp.MustCompile(`<div[^>]*>`)
	titleAttrRe  = regexp.MustCompile(`title\s*=\s*["']([^"']*)["']`)
	markSpanRe   = regexp.MustCompile(`<span[^>]*class="mar"[^>]*>([^<]+)</span>`)
	averageRe    = regexp.MustCompile(`<td[^>]*style="border-left: 3px solid #CCC;"[^>]*><div>([^<]+)</div></td>`)

	linkRe   = regexp.MustCompile(`(?i)<a[^>]*>([\s\S]*?)</a>`)
	spanRe   = regexp.MustCompile(`(?i)<span[^>]*>[\s\S]*?</span>`)
	anyTagRe = regexp.MustCompile(`<[^>]+>`)
)

// Ячейка со сплошной левой границей отделяет матрицу дат от колонки
// со средним значением.
const dividerMarker = "border-left: 3px solid #CCC"

// ParseJournal разбирает страницу родительского журнала: строку месяцев,
// строку дат и по строке оценок на каждый предмет. Строки с неизвестным
// id предмета не выбрасываются, а получают синтезированное имя.
func ParseJournal(html string) *models.JournalSnapshot {
	snap := &models.JournalSnapshot{
		Subjects:      []models.Subject{},
		Months:        []string{},
		Dates:         []string{},
		MonthColspans: []int{},
	}

	if row := monthsRowRe.FindStringSubmatch(html); row != nil {
		for _, m := range monthCellRe.FindAllStringSubmatch(row[1], -1) {
			colspan, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			snap.Months = append(snap.Months, strings.TrimSpace(m[3]))
			snap.MonthColspans = append(snap.MonthColspans, colspan)
		}
	}

	if row := datesRowRe.FindStringSubmatch(html); row != nil {
		for _, m := range dateCellRe.FindAllStringSubmatch(row[1], -1) {
			snap.Dates = append(snap.Dates, m[1])
		}
	}

	subjectNames := parseSubjectNames(html)

	for _, rowMatch := range markRowRe.FindAllStringSubmatch(html, -1) {
		subjectID := rowMatch[1]
		rowContent := rowMatch[2]

		name, ok := subjectNames[subjectID]
		if !ok {
			name = "Предмет " + subjectID
		}

		subject := models.Subject{
			ID:           subjectID,
			Name:         name,
			GradesMatrix: map[int][]models.GradeEntry{},
			Average:      "-",
		}

		for cellIndex, cell := range cellRe.FindAllStringSubmatch(rowContent, -1) {
			// Дальше идёт колонка среднего значения, матрица дат закончилась.
			// Маркер живёт в атрибутах самой ячейки, поэтому проверяется
			// всё совпадение, а не только содержимое.
			if strings.Contains(cell[0], dividerMarker) {
				break
			}
			cellContent := cell[1]

			divMatch := markDivRe.FindStringSubmatch(cellContent)
			if divMatch == nil {
				continue
			}
			markCount, _ := strconv.Atoi(divMatch[1])
			if markCount <= 0 || cellIndex >= len(snap.Dates) {
				continue
			}

			title := ""
			if openTag := openTagRe.FindString(divMatch[0]); openTag != "" {
				if t := titleAttrRe.FindStringSubmatch(openTag); t != nil {
					title = strings.TrimSpace(t[1])
				}
			}

			var cellGrades []models.GradeEntry
			for _, span := range markSpanRe.FindAllStringSubmatch(divMatch[2], -1) {
				value := strings.TrimSpace(span[1])
				if value == "" {
					continue
				}
				cellGrades = append(cellGrades, models.GradeEntry{Value: value, Type: title})
			}
			if len(cellGrades) > 0 {
				subject.GradesMatrix[cellIndex] = cellGrades
			}
		}

		if avg := averageRe.FindStringSubmatch(rowContent); avg != nil {
			if v := strings.TrimSpace(avg[1]); v != "" {
				subject.Average = v
			}
		}

		snap.Subjects = append(snap.Subjects, subject)
	}

	return snap
}

// parseSubjectNames собирает соответствие id строки -> название предмета
// из левой таблицы журнала.
func parseSubjectNames(html string) map[string]string {
	names := make(map[string]string)
	for _, m := range subjectRowRe.FindAllStringSubmatch(html, -1) {
		id := m[1]
		if name := cleanSubjectName(m[2]); name != "" {
			names[id] = name
		}
	}
	return names
}

// cleanSubjectName приводит содержимое ячейки с названием к простому
// тексту: ссылки раскрываются, служебные span выбрасываются.
func cleanSubjectName(raw string) string {
	s := linkRe.ReplaceAllString(raw, "$1")
	s = spanRe.ReplaceAllString(s, "")
	s = anyTagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.TrimSpace(s)
}
