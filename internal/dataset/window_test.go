package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowProducesDistinctDescendingDates(t *testing.T) {
	today := time.Date(2024, 3, 2, 15, 4, 5, 0, time.UTC)

	for n := 1; n <= 400; n++ {
		dates := Window(today, n)
		assert.Len(t, dates, n)
		assert.Equal(t, "2024-03-02", dates[0])

		seen := make(map[string]bool, n)
		for i, d := range dates {
			assert.False(t, seen[d], "duplicate date %s", d)
			seen[d] = true
			if i > 0 {
				assert.Less(t, d, dates[i-1])
			}
		}
	}
}

func TestWindowCrossesMonthAndLeapDay(t *testing.T) {
	today := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2024-03-01", "2024-02-29", "2024-02-28"}, Window(today, 3))
}

func TestWindowUsesUTCDay(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	today := time.Date(2024, 1, 3, 1, 0, 0, 0, kst) // = 2024-01-02T16:00Z
	assert.Equal(t, []string{"2024-01-02"}, Window(today, 1))
}

func TestWindowNonPositive(t *testing.T) {
	assert.Nil(t, Window(time.Now(), 0))
	assert.Nil(t, Window(time.Now(), -3))
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, []string{"2024-01-03.csv", "2024-01-02.csv"}, Filenames([]string{"2024-01-03", "2024-01-02"}))
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	got, ok := Latest([]string{"2024-01-01.csv"})
	assert.True(t, ok)
	assert.Equal(t, "2024-01-01", got)

	got, ok = Latest([]string{"2023-12-31.csv", "data/x/train/2024-01-03.csv", "2024-01-01.csv"})
	assert.True(t, ok)
	assert.Equal(t, "2024-01-03", got)
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2024-02-29"))
	assert.False(t, ValidDate("2023-02-29"))
	assert.False(t, ValidDate("2024-1-3"))
	assert.False(t, ValidDate(""))
}
