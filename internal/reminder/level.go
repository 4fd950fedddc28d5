// internal/reminder/level.go
package reminder

import "fmt"

// Level is the escalation severity tier of a reminder. The set is closed:
// every level must have a built-in template and ParseLevel rejects anything
// outside it.
type Level string

const (
	// LevelFirstMessage is the initial contact for a customer that has never
	// been sent a form link. It does not advance the reminder count.
	LevelFirstMessage Level = "first_message"

	LevelFirst      Level = "first"
	LevelSecond     Level = "second"
	LevelFirstWeek  Level = "first_week"
	LevelSecondWeek Level = "second_week"
	LevelThirdWeek  Level = "third_week"
	LevelFourthWeek Level = "fourth_week"
)

// KnownLevels returns every valid level in escalation order.
func KnownLevels() []Level {
	return []Level{
		LevelFirstMessage,
		LevelFirst,
		LevelSecond,
		LevelFirstWeek,
		LevelSecondWeek,
		LevelThirdWeek,
		LevelFourthWeek,
	}
}

// ParseLevel validates a raw level string from batch input or job variables.
func ParseLevel(s string) (Level, error) {
	for _, l := range KnownLevels() {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown escalation level: %q", s)
}

// weeklyLevel maps the weekly ladder index (reminder_count - 1) to a level,
// clamped so everything past the fourth week keeps repeating fourth_week.
func weeklyLevel(index int) Level {
	switch {
	case index <= 1:
		return LevelFirstWeek
	case index == 2:
		return LevelSecondWeek
	case index == 3:
		return LevelThirdWeek
	default:
		return LevelFourthWeek
	}
}

// nextCount returns the reminder count a successful send at the given level
// must persist. first and second pin the count to their ladder position so a
// manual resend cannot skip tiers; weekly levels simply increment.
func nextCount(level Level, current int) int {
	switch level {
	case LevelFirstMessage:
		return 0
	case LevelFirst:
		return 1
	case LevelSecond:
		return 2
	default:
		return current + 1
	}
}
