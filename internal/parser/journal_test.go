package parser

import (
	"reflect"
	"testing"
)

// Страница журнала в миниатюре: два месяца на пять дат, один предмет
// с одной оценкой в пятой колонке.
const journalHTML = `
<table>
<tr id="months">
<td colspan="3"><div title="Сентябрь" class="nameMonth">Сен</div></td>
<td colspan="2"><div title="Октябрь" class="nameMonth">Окт</div></td>
</tr>
<tr id="dateOfMonth">
<td><div>1</div></td><td><div>5</div></td><td><div>12</div></td><td><div>3</div></td><td><div>10</div></td>
</tr>
</table>
<table>
<tr class="row7"><td><div class="pupilName"><a href="/subj/7">Физика</a><span class="danger">!</span></div></td></tr>
</table>
<table>
<tr class="mark mar row7">
<td><div data-count-mark="0"></div></td>
<td></td>
<td></td>
<td></td>
<td><div class="cell" data-count-mark="1" title="Контрольная"><span class="mar">9</span></div></td>
<td style="border-left: 3px solid #CCC;"><div>9</div></td>
</tr>
</table>
`

func TestParseJournal_EndToEnd(t *testing.T) {
	snap := ParseJournal(journalHTML)

	if got, want := snap.Months, []string{"Сен", "Окт"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Months = %v, want %v", got, want)
	}
	if got, want := snap.MonthColspans, []int{3, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("MonthColspans = %v, want %v", got, want)
	}
	if got, want := snap.Dates, []string{"1", "5", "12", "3", "10"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Dates = %v, want %v", got, want)
	}
	if got, want := snap.MonthStartPositions(), []int{0, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("MonthStartPositions = %v, want %v", got, want)
	}

	if len(snap.Subjects) != 1 {
		t.Fatalf("Subjects = %d, want 1", len(snap.Subjects))
	}
	subj := snap.Subjects[0]
	if subj.ID != "7" {
		t.Errorf("ID = %q, want %q", subj.ID, "7")
	}
	if subj.Name != "Физика" {
		t.Errorf("Name = %q, want %q (ссылка развёрнута, span выброшен)", subj.Name, "Физика")
	}
	if subj.Average != "9" {
		t.Errorf("Average = %q, want %q", subj.Average, "9")
	}

	// Матрица разреженная: только колонка с оценкой.
	if len(subj.GradesMatrix) != 1 {
		t.Fatalf("GradesMatrix keys = %d, want 1 (%v)", len(subj.GradesMatrix), subj.GradesMatrix)
	}
	grades, ok := subj.GradesMatrix[4]
	if !ok {
		t.Fatalf("GradesMatrix missing key 4: %v", subj.GradesMatrix)
	}
	if len(grades) != 1 || grades[0].Value != "9" || grades[0].Type != "Контрольная" {
		t.Errorf("grades[4] = %+v", grades)
	}
}

func TestParseJournal_UnknownSubjectGetsSynthesizedName(t *testing.T) {
	html := `
<tr id="dateOfMonth"><td><div>1</div></td></tr>
<tr class="mark mar row42">
<td><div data-count-mark="1" title=""><span class="mar">5</span></div></td>
</tr>`

	snap := ParseJournal(html)
	if len(snap.Subjects) != 1 {
		t.Fatalf("Subjects = %d, want 1", len(snap.Subjects))
	}
	if got, want := snap.Subjects[0].Name, "Предмет 42"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
	if got := snap.Subjects[0].Average; got != "-" {
		t.Errorf("Average = %q, want %q", got, "-")
	}
}

func TestParseJournal_StopsAtDivider(t *testing.T) {
	// После разделителя стоит ячейка с оценкой — она не должна попасть
	// в матрицу.
	html := `
<tr id="dateOfMonth"><td><div>1</div></td><td><div>2</div></td><td><div>3</div></td></tr>
<tr class="mark mar row1">
<td><div data-count-mark="1" title="Опрос"><span class="mar">7</span></div></td>
<td style="border-left: 3px solid #CCC;"><div>7</div></td>
<td><div data-count-mark="1" title="Опрос"><span class="mar">8</span></div></td>
</tr>`

	snap := ParseJournal(html)
	matrix := snap.Subjects[0].GradesMatrix
	if len(matrix) != 1 {
		t.Fatalf("GradesMatrix = %v, want only key 0", matrix)
	}
	if _, ok := matrix[0]; !ok {
		t.Errorf("GradesMatrix missing key 0: %v", matrix)
	}
}

func TestParseJournal_ZeroMarksCellContributesNothing(t *testing.T) {
	html := `
<tr id="dateOfMonth"><td><div>1</div></td><td><div>2</div></td></tr>
<tr class="mark mar row1">
<td><div data-count-mark="0"></div></td>
<td><div data-count-mark="2" title="Практика"><span class="mar">6</span><span class="mar">8</span></div></td>
</tr>`

	snap := ParseJournal(html)
	matrix := snap.Subjects[0].GradesMatrix
	if len(matrix) != 1 {
		t.Fatalf("GradesMatrix = %v, want only key 1", matrix)
	}
	grades := matrix[1]
	if len(grades) != 2 || grades[0].Value != "6" || grades[1].Value != "8" {
		t.Errorf("grades[1] = %+v", grades)
	}
	for _, g := range grades {
		if g.Type != "Практика" {
			t.Errorf("type = %q, want %q (title ячейки общий для всех оценок)", g.Type, "Практика")
		}
	}
}

func TestParseJournal_EmptyPage(t *testing.T) {
	snap := ParseJournal("<html><body>ничего</body></html>")
	if len(snap.Subjects) != 0 || len(snap.Dates) != 0 || len(snap.Months) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestJournalAvailable(t *testing.T) {
	if JournalAvailable("<html>страница входа</html>") {
		t.Error("page without markers must mean expired session")
	}
	if !JournalAvailable(`<div class="pupilName">Физика</div>`) {
		t.Error("marker page must be available")
	}
}
