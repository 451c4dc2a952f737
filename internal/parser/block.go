// Package parser разбирает страницы электронного журнала и расписания.
// Страницы не обещают валидной разметки, поэтому вместо полного DOM
// используется минимальный сканер границ тегов со счётчиком вложенности.
package parser

import (
	"regexp"
	"strings"
)

// Потолки итераций: вход может быть каким угодно, поиск обязан завершаться.
const (
	maxBlockScans = 100
	maxDepthSteps = 1000
)

var openDivRe = regexp.MustCompile(`(?i)<div[^>]*class="([^"]*)"[^>]*>`)

// Block — найденный фрагмент: содержимое между тегами контейнера
// (сами теги не включаются), значение class открывающего тега и позиция
// сразу за закрывающим тегом.
type Block struct {
	Content string
	Class   string
	End     int
}

// ExtractBlock ищет, начиная с startPos, ближайший div, в class которого
// входит подстрока classNeedle, и возвращает его содержимое с учётом
// вложенных div. Совпадение по подстроке, не по целому токену класса —
// так размечены исходные страницы, и это поведение сохраняется намеренно
// (needle "pair" находит и "empty-pair"). Вложенные контейнеры с тем же
// классом остаются в содержимом как есть, внутрь них поиск не заходит.
func ExtractBlock(text string, startPos int, classNeedle string) (Block, bool) {
	if startPos < 0 || startPos > len(text) {
		return Block{}, false
	}

	pos := startPos
	for scan := 0; scan < maxBlockScans && pos < len(text); scan++ {
		loc := openDivRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return Block{}, false
		}

		tagEnd := pos + loc[1]
		class := text[pos+loc[2] : pos+loc[3]]

		if !strings.Contains(class, classNeedle) {
			// Не тот контейнер — продолжаем сразу за его открывающим тегом.
			pos = tagEnd + 1
			continue
		}

		contentEnd, ok := findBlockEnd(text, tagEnd)
		if !ok {
			return Block{}, false
		}
		return Block{
			Content: text[tagEnd:contentEnd],
			Class:   class,
			End:     contentEnd + len("</div>"),
		}, true
	}
	return Block{}, false
}

// findBlockEnd находит закрывающий тег, возвращающий глубину вложенности
// к нулю, считая от позиции сразу за открывающим тегом контейнера.
func findBlockEnd(text string, from int) (int, bool) {
	depth := 1
	pos := from
	for step := 0; step < maxDepthSteps && pos < len(text) && depth > 0; step++ {
		nextOpen := strings.Index(text[pos:], "<div")
		nextClose := strings.Index(text[pos:], "</div>")
		if nextClose == -1 {
			return 0, false
		}
		if nextOpen != -1 && nextOpen < nextClose {
			depth++
			pos += nextOpen + len("<div")
			continue
		}
		depth--
		if depth == 0 {
			return pos + nextClose, true
		}
		pos += nextClose + len("</div>")
	}
	return 0, false
}
