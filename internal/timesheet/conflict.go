package timesheet

import (
	"dienstplan/internal/models"
)

// DetectConflicts помечает каждую запись, чей диапазон пересекается с другой
// записью того же аккаунта. Пересечения между разными аккаунтами конфликтом
// не считаются: в одном месте одновременно могут работать несколько людей.
//
// Флаг HasConflict вычисляется заново при каждом вызове и не сохраняется.
func DetectConflicts(entries []models.Schedule) []models.Schedule {
	for i := range entries {
		iv := Interval{From: entries[i].TimeFrom, To: entries[i].TimeTo}
		entries[i].HasConflict = false
		if iv.Empty() {
			continue
		}
		for j := range entries {
			if j == i || entries[j].AccountID != entries[i].AccountID {
				continue
			}
			other := Interval{From: entries[j].TimeFrom, To: entries[j].TimeTo}
			if iv.Overlaps(other) {
				entries[i].HasConflict = true
				break
			}
		}
	}
	return entries
}
