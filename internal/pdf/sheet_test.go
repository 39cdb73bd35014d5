package pdf

import (
	"testing"
	"time"

	"dienstplan/internal/models"
	"dienstplan/internal/timesheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroups(months int) []timesheet.MonthGroup {
	var entries []models.Schedule
	for m := 0; m < months; m++ {
		from := time.Date(2024, time.March+time.Month(m), 5, 9, 0, 0, 0, time.Local)
		entries = append(entries, models.Schedule{
			AccountID: 1,
			TimeFrom:  from,
			TimeTo:    from.Add(3 * time.Hour),
			Remark:    "Schlüssel abgeholt",
			Task:      models.Task{Title: "Gartenpflege"},
		})
	}
	return timesheet.GroupByMonth(entries)
}

func TestSheetRender(t *testing.T) {
	sheet := Sheet{
		Employer: "Gemeinde Musterstadt",
		Account:  models.Account{FirstName: "Jürgen", LastName: "Müller"},
		Location: models.Location{Title: "Gemeindehaus"},
		Groups:   testGroups(1),
	}

	data, err := sheet.Render()
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestSheetRenderFullMonth(t *testing.T) {
	sheet := Sheet{
		Account:  models.Account{FirstName: "Anna", LastName: "Schmidt"},
		Location: models.Location{Title: "Sporthalle", ShowCompleteMonth: true},
		Groups:   testGroups(1),
	}

	data, err := sheet.Render()
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestSheetRenderPagePerMonth(t *testing.T) {
	one := Sheet{Account: models.Account{LastName: "Müller"}, Groups: testGroups(1)}
	two := Sheet{Account: models.Account{LastName: "Müller"}, Groups: testGroups(2)}

	first, err := one.Render()
	require.NoError(t, err)
	second, err := two.Render()
	require.NoError(t, err)

	// Каждый месяц добавляет свою страницу.
	assert.Greater(t, len(second), len(first))
}
