package timesheet

import (
	"fmt"
	"sort"
	"time"

	"dienstplan/internal/models"
)

var monthNames = [...]string{
	"", "Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

var weekdayShort = [...]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}

// MonthKey идентифицирует группу отчёта: календарный месяц одного года.
type MonthKey struct {
	Year  int
	Month time.Month
}

// Label возвращает немецкую подпись месяца, например "März 2024".
func (k MonthKey) Label() string {
	return fmt.Sprintf("%s %d", monthNames[k.Month], k.Year)
}

// MonthGroup — записи одного месяца с суммарной длительностью и примечаниями.
type MonthGroup struct {
	Key           MonthKey
	Entries       []models.Schedule
	Remarks       []models.Schedule // записи с непустым Remark
	TotalDuration time.Duration
}

// TotalLabel форматирует сумму один раз, по накопленной длительности.
// Складывать уже отформатированные строки нельзя.
func (g MonthGroup) TotalLabel() string {
	return FormatDuration(g.TotalDuration)
}

// GroupByMonth разбивает записи по месяцам TimeFrom. Порядок групп — порядок
// первого появления месяца во входных данных, без общей пересортировки:
// одна секция отчёта на каждый встреченный месяц.
func GroupByMonth(entries []models.Schedule) []MonthGroup {
	var groups []MonthGroup
	index := make(map[MonthKey]int)

	for _, e := range entries {
		key := MonthKey{Year: e.TimeFrom.Year(), Month: e.TimeFrom.Month()}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{Key: key})
		}
		groups[i].Entries = append(groups[i].Entries, e)
		groups[i].TotalDuration += Interval{From: e.TimeFrom, To: e.TimeTo}.Duration()
		if e.Remark != "" {
			groups[i].Remarks = append(groups[i].Remarks, e)
		}
	}
	return groups
}

// Row — одна строка печатного отчёта. В пустых строках полного месяца
// заполнена только дата.
type Row struct {
	Date      string `json:"date"` // "Di 05.03."
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	Duration  string `json:"duration,omitempty"`
	TaskTitle string `json:"taskTitle,omitempty"`
	IsSunday  bool   `json:"isSunday"` // подсказка рендереру для выделения цветом
	Empty     bool   `json:"empty"`
}

// BuildRows строит строки отчёта для записей одного месяца.
//
// Компактный режим: одна строка на запись, по возрастанию TimeFrom.
// Полный месяц: одна строка на каждый календарный день месяца; день без брони
// даёт пустую строку. На день показывается не больше одной записи: первая
// найденная, остальные брони того же дня в полном режиме не выводятся.
//
// Месяц определяется по самим записям, поэтому пустой вход даёт пустой
// результат и в полном режиме. Группы из GroupByMonth всегда содержат хотя бы
// одну запись, так что месяц без броней до строк не доходит.
func BuildRows(entries []models.Schedule, showFullMonth bool) []Row {
	if !showFullMonth {
		sorted := make([]models.Schedule, len(entries))
		copy(sorted, entries)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].TimeFrom.Before(sorted[j].TimeFrom)
		})

		rows := make([]Row, 0, len(sorted))
		for _, e := range sorted {
			rows = append(rows, entryRow(e))
		}
		return rows
	}

	if len(entries) == 0 {
		return nil
	}

	first := entries[0].TimeFrom
	// Последний день месяца: нулевой день следующего месяца.
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, first.Location()).Day()

	rows := make([]Row, 0, lastDay)
	for d := 1; d <= lastDay; d++ {
		day := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, first.Location())

		found := false
		for _, e := range entries {
			if truncateDay(e.TimeFrom).Equal(day) {
				rows = append(rows, entryRow(e))
				found = true
				break
			}
		}
		if !found {
			rows = append(rows, Row{
				Date:     formatDate(day),
				IsSunday: day.Weekday() == time.Sunday,
				Empty:    true,
			})
		}
	}
	return rows
}

func entryRow(e models.Schedule) Row {
	return Row{
		Date:      formatDate(e.TimeFrom),
		Start:     e.TimeFrom.Format("15:04"),
		End:       e.TimeTo.Format("15:04"),
		Duration:  FormatDuration(Interval{From: e.TimeFrom, To: e.TimeTo}.Duration()),
		TaskTitle: e.Task.Title,
		IsSunday:  e.TimeFrom.Weekday() == time.Sunday,
	}
}

func formatDate(t time.Time) string {
	return fmt.Sprintf("%s %02d.%02d.", weekdayShort[t.Weekday()], t.Day(), int(t.Month()))
}

// truncateDay обрезает время до полуночи в зоне самой метки. Вся цепочка
// работает в локальном времени, без перевода в UTC.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay проверяет, что обе метки приходятся на один календарный день.
// Используется валидацией при создании и изменении брони.
func SameDay(a, b time.Time) bool {
	return truncateDay(a).Equal(truncateDay(b))
}
