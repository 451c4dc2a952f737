package diff

import (
	"strings"
	"testing"

	"github.com/meowhiks/kbp-app/internal/models"
)

func journalSnap(marks map[int][]string) *models.JournalSnapshot {
	matrix := make(map[int][]models.GradeEntry)
	for idx, values := range marks {
		for _, v := range values {
			matrix[idx] = append(matrix[idx], models.GradeEntry{Value: v, Type: "Опрос"})
		}
	}
	return &models.JournalSnapshot{
		Subjects: []models.Subject{{ID: "7", Name: "Физика", GradesMatrix: matrix, Average: "-"}},
		Dates:    []string{"1", "5", "12", "3", "10"},
	}
}

func TestJournal_Idempotent(t *testing.T) {
	snap := journalSnap(map[int][]string{2: {"8"}, 4: {"9", "7"}})
	if changes := Journal(snap, snap); len(changes) != 0 {
		t.Errorf("diff(S, S) = %v, want empty", changes)
	}
}

func TestJournal_ReportsOnlyNewValues(t *testing.T) {
	old := journalSnap(map[int][]string{2: {"8"}})
	new := journalSnap(map[int][]string{2: {"8", "9"}, 4: {"10"}})

	changes := Journal(old, new)
	if len(changes) != 2 {
		t.Fatalf("changes = %v, want 2 lines", changes)
	}
	if !strings.Contains(changes[0], "Физика (12): новые оценки — 9") {
		t.Errorf("line 0 = %q", changes[0])
	}
	if !strings.Contains(changes[1], "Физика (10): новые оценки — 10") {
		t.Errorf("line 1 = %q", changes[1])
	}
}

func TestJournal_RemovedMarksNotReported(t *testing.T) {
	old := journalSnap(map[int][]string{2: {"8", "9"}})
	new := journalSnap(map[int][]string{2: {"8"}})
	if changes := Journal(old, new); len(changes) != 0 {
		t.Errorf("changes = %v, want none (исчезнувшие оценки молчат)", changes)
	}
}

func TestJournal_NilOldMeansEverythingNew(t *testing.T) {
	new := journalSnap(map[int][]string{0: {"6"}})
	changes := Journal(nil, new)
	if len(changes) != 1 || !strings.Contains(changes[0], "новые оценки — 6") {
		t.Errorf("changes = %v", changes)
	}
}

func pair(day, number int, subject, status string) models.Pair {
	return models.Pair{
		Day: day, PairNumber: number, Subject: subject, Status: status,
		Teacher: "Иванов И.И.", Room: "305",
	}
}

func TestTimetable_AddedOnly(t *testing.T) {
	old := []models.Pair{pair(0, 1, "Математика", models.StatusNormal)}
	new := []models.Pair{
		pair(0, 1, "Математика", models.StatusNormal),
		pair(0, 2, "Рисование", models.StatusAdded),
	}

	changes := Timetable(old, new)
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want exactly 1", changes)
	}
	if !strings.Contains(changes[0], "Пн, пара 2: добавлено") || !strings.Contains(changes[0], "Рисование") {
		t.Errorf("line = %q", changes[0])
	}
}

func TestTimetable_Changed(t *testing.T) {
	old := []models.Pair{pair(1, 3, "Физика", models.StatusNormal)}
	new := []models.Pair{pair(1, 3, "Химия", models.StatusReplaced)}

	changes := Timetable(old, new)
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want 1", changes)
	}
	line := changes[0]
	if !strings.Contains(line, "Вт, пара 3") || !strings.Contains(line, "было") || !strings.Contains(line, "стало") {
		t.Errorf("line = %q", line)
	}
	if !strings.Contains(line, "Физика") || !strings.Contains(line, "Химия") {
		t.Errorf("line = %q", line)
	}
}

func TestTimetable_TeacherChangeDetected(t *testing.T) {
	old := []models.Pair{pair(2, 1, "Физика", models.StatusNormal)}
	changed := pair(2, 1, "Физика", models.StatusNormal)
	changed.Teacher = "Петров П.П."

	if changes := Timetable(old, []models.Pair{changed}); len(changes) != 1 {
		t.Errorf("changes = %v, want 1 (смена преподавателя)", changes)
	}
}

func TestTimetable_Removed(t *testing.T) {
	old := []models.Pair{pair(5, 6, "Экономика", models.StatusNormal)}

	changes := Timetable(old, nil)
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want 1", changes)
	}
	if !strings.Contains(changes[0], "Сб, пара 6: удалено") {
		t.Errorf("line = %q", changes[0])
	}
}

func TestTimetable_Idempotent(t *testing.T) {
	pairs := []models.Pair{pair(0, 1, "Математика", models.StatusNormal), pair(3, 2, "Химия", models.StatusAdded)}
	if changes := Timetable(pairs, pairs); len(changes) != 0 {
		t.Errorf("diff(S, S) = %v, want empty", changes)
	}
}

func TestFingerprint_StableAndSensitive(t *testing.T) {
	a := journalSnap(map[int][]string{2: {"8"}})
	b := journalSnap(map[int][]string{2: {"8"}})
	c := journalSnap(map[int][]string{2: {"9"}})

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("равные снимки должны давать равный отпечаток")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("разные снимки должны давать разный отпечаток")
	}
	if Fingerprint(a) == "" {
		t.Error("отпечаток не должен быть пустым")
	}
}
