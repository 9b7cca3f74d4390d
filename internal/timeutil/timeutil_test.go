package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTimeNativeDate(t *testing.T) {
	now := time.Now()

	got := ToTime(now)
	require.NotNil(t, got)
	assert.True(t, got.Equal(now))

	got = ToTime(&now)
	require.NotNil(t, got)
	assert.True(t, got.Equal(now))
}

func TestToTimeZeroAndNil(t *testing.T) {
	assert.Nil(t, ToTime(nil))
	assert.Nil(t, ToTime(time.Time{}))

	var null *time.Time
	assert.Nil(t, ToTime(null))
}

func TestToTimeEpochMillis(t *testing.T) {
	ref := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	millis := ref.UnixMilli()

	for _, v := range []any{millis, int(millis), float64(millis)} {
		got := ToTime(v)
		require.NotNil(t, got)
		assert.Equal(t, ref.Unix(), got.Unix())
	}

	assert.Nil(t, ToTime(int64(0)))
	assert.Nil(t, ToTime(int64(-5)))
}

func TestToTimeISOStrings(t *testing.T) {
	got := ToTime("2024-03-15T12:30:00Z")
	require.NotNil(t, got)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.March, got.Month())

	got = ToTime("2024-03-15")
	require.NotNil(t, got)
	assert.Equal(t, 15, got.Day())

	assert.Nil(t, ToTime("not a date"))
	assert.Nil(t, ToTime(""))
}

func TestToTimeStructuredTimestamp(t *testing.T) {
	ref := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	got := ToTime(Timestamp{Seconds: ref.Unix()})
	require.NotNil(t, got)
	assert.Equal(t, ref.Unix(), got.Unix())

	got = ToTime(map[string]any{"seconds": ref.Unix(), "nanoseconds": int64(0)})
	require.NotNil(t, got)
	assert.Equal(t, ref.Unix(), got.Unix())

	// JSON decoding yields float64 seconds
	got = ToTime(map[string]any{"seconds": float64(ref.Unix())})
	require.NotNil(t, got)
	assert.Equal(t, ref.Unix(), got.Unix())

	assert.Nil(t, ToTime(map[string]any{"nanoseconds": int64(5)}))
}

func TestToTimeUnknownShape(t *testing.T) {
	assert.Nil(t, ToTime(struct{ X int }{1}))
	assert.Nil(t, ToTime([]string{"2024-03-15"}))
}

func TestSameMonth(t *testing.T) {
	a := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	c := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameMonth(a, b))
	assert.False(t, SameMonth(a, c))
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "2024-03-05", DayKey(time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)))
}
