package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultSlots(t *testing.T) {
	require.Equal(t, []int{9, 10, 11, 12, 13, 14, 15, 16}, DefaultHours.Slots())
	require.Equal(t, 16, DefaultHours.LastSlot())
	require.True(t, DefaultHours.Contains(9))
	require.True(t, DefaultHours.Contains(16))
	require.False(t, DefaultHours.Contains(8))
	require.False(t, DefaultHours.Contains(17))
}

func TestFormatSlot(t *testing.T) {
	cases := map[int]string{
		0:  "12:00 AM",
		9:  "9:00 AM",
		11: "11:00 AM",
		12: "12:00 PM",
		13: "1:00 PM",
		16: "4:00 PM",
		23: "11:00 PM",
	}
	for hour, want := range cases {
		require.Equal(t, want, FormatSlot(hour), "hour %d", hour)
	}
}

func TestIsWeekday(t *testing.T) {
	friday := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	require.True(t, IsWeekday(friday))
	require.False(t, IsWeekday(friday.AddDate(0, 0, 1)))
	require.False(t, IsWeekday(friday.AddDate(0, 0, 2)))
	require.True(t, IsWeekday(friday.AddDate(0, 0, 3)))
}

func TestTwoHourSlots(t *testing.T) {
	hours := BusinessHours{Start: 8, End: 16, SlotDuration: 2 * time.Hour}
	require.Equal(t, []int{8, 10, 12, 14}, hours.Slots())
	require.Equal(t, 14, hours.LastSlot())
}
