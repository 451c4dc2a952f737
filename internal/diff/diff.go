// Package diff сравнивает снимки журнала и расписания и формирует
// человекочитаемые строки изменений для уведомлений.
package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/meowhiks/kbp-app/internal/models"
)

// Fingerprint — стабильный отпечаток содержимого для дешёвой проверки
// "изменилось ли что-то": sha256 от JSON-сериализации.
func Fingerprint(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Снимки сериализуемы всегда; сюда попадает только мусор.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type gradeKey struct {
	Subject   string
	DateIndex int
}

// flattenGrades раскладывает снимок в (предмет, индекс даты) -> значения
// оценок, чтобы сравнивать по ключам независимо от порядка строк.
func flattenGrades(snap *models.JournalSnapshot) map[gradeKey][]string {
	flat := make(map[gradeKey][]string)
	if snap == nil {
		return flat
	}
	for _, subject := range snap.Subjects {
		for idx, grades := range subject.GradesMatrix {
			values := make([]string, 0, len(grades))
			for _, g := range grades {
				values = append(values, g.Value)
			}
			flat[gradeKey{subject.Name, idx}] = values
		}
	}
	return flat
}

// Journal сообщает только о новых оценках: значения, появившиеся в new
// по какому-то ключу и отсутствующие в old по нему же. Исчезнувшие
// оценки не упоминаются. На равных снимках список пуст.
func Journal(old, new *models.JournalSnapshot) []string {
	var changes []string
	if new == nil {
		return changes
	}
	oldFlat := flattenGrades(old)

	// Обход в порядке нового снимка: предметы как в документе,
	// даты по возрастанию.
	for _, subject := range new.Subjects {
		for _, idx := range sortedIndexes(subject.GradesMatrix) {
			prev := oldFlat[gradeKey{subject.Name, idx}]
			var added []string
			for _, g := range subject.GradesMatrix[idx] {
				if !contains(prev, g.Value) {
					added = append(added, g.Value)
				}
			}
			if len(added) == 0 {
				continue
			}

			line := subject.Name
			if idx >= 0 && idx < len(new.Dates) {
				line += " (" + new.Dates[idx] + ")"
			}
			changes = append(changes, line+": новые оценки — "+strings.Join(added, ", "))
		}
	}
	return changes
}

func sortedIndexes(matrix map[int][]models.GradeEntry) []int {
	idx := make([]int, 0, len(matrix))
	for i := range matrix {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

type pairKey struct {
	Day        int
	PairNumber int
}

// mapPairs берёт по одному представителю на клетку (день, номер пары).
// Несколько пар в одной клетке различаются только как "клетка изменилась",
// известное ограничение.
func mapPairs(pairs []models.Pair) map[pairKey]models.Pair {
	m := make(map[pairKey]models.Pair)
	for _, p := range pairs {
		m[pairKey{p.Day, p.PairNumber}] = p
	}
	return m
}

// Timetable сравнивает пары по ключу (день, номер): добавленные,
// изменённые (предмет/статус/преподаватель/аудитория) и удалённые.
func Timetable(oldPairs, newPairs []models.Pair) []string {
	var changes []string
	oldMap := mapPairs(oldPairs)
	newMap := mapPairs(newPairs)

	for _, key := range sortedPairKeys(newMap) {
		pair := newMap[key]
		prev, ok := oldMap[key]
		if !ok {
			changes = append(changes, fmt.Sprintf("%s, пара %d: добавлено %q (%s)",
				models.DayShortName(pair.Day), pair.PairNumber, orDash(pair.Subject, "Без названия"), pair.Status))
			continue
		}
		if prev.Subject != pair.Subject || prev.Status != pair.Status ||
			prev.Teacher != pair.Teacher || prev.Room != pair.Room {
			changes = append(changes, fmt.Sprintf("%s, пара %d: было %q (%s) → стало %q (%s)",
				models.DayShortName(pair.Day), pair.PairNumber,
				orDash(prev.Subject, "-"), orDash(prev.Status, "-"),
				orDash(pair.Subject, "-"), orDash(pair.Status, "-")))
		}
	}

	for _, key := range sortedPairKeys(oldMap) {
		if _, ok := newMap[key]; ok {
			continue
		}
		pair := oldMap[key]
		changes = append(changes, fmt.Sprintf("%s, пара %d: удалено %q (%s)",
			models.DayShortName(pair.Day), pair.PairNumber, orDash(pair.Subject, "Без названия"), orDash(pair.Status, "-")))
	}
	return changes
}

func sortedPairKeys(m map[pairKey]models.Pair) []pairKey {
	keys := make([]pairKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Day != keys[j].Day {
			return keys[i].Day < keys[j].Day
		}
		return keys[i].PairNumber < keys[j].PairNumber
	})
	return keys
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func orDash(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
