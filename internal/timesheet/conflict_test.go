package timesheet

import (
	"testing"
	"time"

	"dienstplan/internal/models"

	"github.com/stretchr/testify/assert"
)

func entry(accountID uint, from, to time.Time) models.Schedule {
	return models.Schedule{AccountID: accountID, TimeFrom: from, TimeTo: to}
}

func TestDetectConflictsMarksBoth(t *testing.T) {
	entries := []models.Schedule{
		entry(1, at(9, 0), at(12, 0)),
		entry(1, at(11, 0), at(14, 0)),
		entry(1, at(15, 0), at(16, 0)),
	}

	entries = DetectConflicts(entries)

	assert.True(t, entries[0].HasConflict)
	assert.True(t, entries[1].HasConflict)
	assert.False(t, entries[2].HasConflict)
}

func TestDetectConflictsDifferentAccounts(t *testing.T) {
	// Одинаковое время у разных аккаунтов конфликтом не считается.
	entries := []models.Schedule{
		entry(1, at(9, 0), at(12, 0)),
		entry(2, at(9, 0), at(12, 0)),
	}

	entries = DetectConflicts(entries)

	assert.False(t, entries[0].HasConflict)
	assert.False(t, entries[1].HasConflict)
}

func TestDetectConflictsTouchingBoundaries(t *testing.T) {
	entries := []models.Schedule{
		entry(1, at(9, 0), at(10, 0)),
		entry(1, at(10, 0), at(11, 0)),
	}

	entries = DetectConflicts(entries)

	assert.False(t, entries[0].HasConflict)
	assert.False(t, entries[1].HasConflict)
}

func TestDetectConflictsIgnoresEmptyIntervals(t *testing.T) {
	entries := []models.Schedule{
		entry(1, at(10, 0), at(10, 0)),
		entry(1, at(9, 0), at(12, 0)),
	}

	entries = DetectConflicts(entries)

	assert.False(t, entries[0].HasConflict)
	assert.False(t, entries[1].HasConflict)
}

func TestDetectConflictsResetsStaleFlag(t *testing.T) {
	stale := entry(1, at(9, 0), at(10, 0))
	stale.HasConflict = true

	entries := DetectConflicts([]models.Schedule{stale})

	assert.False(t, entries[0].HasConflict, "флаг должен пересчитываться заново")
}
