// Package timeslot provides wall-clock time-of-day helpers for appointment
// scheduling. Times are "HH:MM" 24-hour strings on a single calendar day,
// handled internally as minutes since midnight.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" string to minutes since midnight.
// "24:00" is accepted as the exclusive end of the day (1440 minutes):
// a slot ending exactly at midnight carries that value, and interval
// ends are exclusive so it never collides with a next-day start.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", clock)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}

	if hours == 24 && minutes == 0 {
		return minutesPerDay, nil
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q out of range", clock)
	}

	return hours*60 + minutes, nil
}

// MustClock is like ParseClock but panics on invalid input.
// Intended for fixed values in tests and seed data.
func MustClock(clock string) int {
	m, err := ParseClock(clock)
	if err != nil {
		panic(err)
	}
	return m
}

// FormatClock converts minutes since midnight back to an "HH:MM" string.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether two half-open intervals [startA, endA) and
// [startB, endB) intersect. Touching endpoints (endA == startB) do not
// count as an overlap. All values are minutes since midnight on the
// same calendar day.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && endA > startB
}

// ClocksOverlap is Overlaps over "HH:MM" strings.
func ClocksOverlap(startA, endA, startB, endB string) (bool, error) {
	sa, err := ParseClock(startA)
	if err != nil {
		return false, err
	}
	ea, err := ParseClock(endA)
	if err != nil {
		return false, err
	}
	sb, err := ParseClock(startB)
	if err != nil {
		return false, err
	}
	eb, err := ParseClock(endB)
	if err != nil {
		return false, err
	}
	return Overlaps(sa, ea, sb, eb), nil
}

// EndOfSlot derives the end time of a slot from its start time and a
// duration in minutes. The slot must not cross midnight.
func EndOfSlot(start string, durationMin int) (string, error) {
	if durationMin <= 0 {
		return "", fmt.Errorf("invalid duration %d", durationMin)
	}

	startMin, err := ParseClock(start)
	if err != nil {
		return "", err
	}

	endMin := startMin + durationMin
	if endMin > minutesPerDay {
		return "", fmt.Errorf("slot starting at %s with duration %d crosses midnight", start, durationMin)
	}

	return FormatClock(endMin), nil
}
