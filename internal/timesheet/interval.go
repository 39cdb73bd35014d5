package timesheet

import (
	"fmt"
	"time"
)

// Interval — полуоткрытый временной диапазон [From, To).
type Interval struct {
	From time.Time
	To   time.Time
}

// Empty сообщает, что диапазон вырожденный: отсутствуют границы или From >= To.
// Такие диапазоны исключаются из всех проверок пересечения.
func (i Interval) Empty() bool {
	return i.From.IsZero() || i.To.IsZero() || !i.From.Before(i.To)
}

func (i Interval) Duration() time.Duration {
	if i.Empty() {
		return 0
	}
	return i.To.Sub(i.From)
}

// Overlaps проверяет пересечение двух полуоткрытых диапазонов.
// Диапазоны, соприкасающиеся границами (a.To == b.From), не пересекаются.
func (i Interval) Overlaps(o Interval) bool {
	if i.Empty() || o.Empty() {
		return false
	}
	return i.From.Before(o.To) && o.From.Before(i.To)
}

// FormatDuration выводит длительность в немецком формате отчёта:
// "H:mm Std." при часе и более, иначе "m Min."
func FormatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 {
		return fmt.Sprintf("%d:%02d Std.", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%d Min.", minutes)
}
