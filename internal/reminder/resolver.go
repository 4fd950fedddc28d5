// internal/reminder/resolver.go
package reminder

import (
	"time"

	"docflow-workers/internal/common/config"
	"docflow-workers/internal/models"
)

// Thresholds carries the escalation timing constants. Defaults: 48h before
// the first reminder, 72h before the second, 168h between weekly nudges, and
// a 30-day inactivity window after which a submission is considered abandoned.
type Thresholds struct {
	First         time.Duration
	Second        time.Duration
	Weekly        time.Duration
	MaxInactivity time.Duration
}

// ThresholdsFromConfig converts the reminders config section into resolver
// thresholds.
func ThresholdsFromConfig(cfg config.RemindersConfig) Thresholds {
	return Thresholds{
		First:         time.Duration(cfg.FirstThresholdHours) * time.Hour,
		Second:        time.Duration(cfg.SecondThresholdHours) * time.Hour,
		Weekly:        time.Duration(cfg.WeeklyThresholdHours) * time.Hour,
		MaxInactivity: time.Duration(cfg.MaxInactivityDays) * 24 * time.Hour,
	}
}

// Resolve is the escalation resolver: given a submission's timestamps and
// counters it returns the reminder level due at now, or ok=false when nothing
// should fire. It is a pure function; requiredFields is the submission's form
// type required-field count used to derive completion.
//
// Levels past the second gate on elapsed time since BOTH the last reminder
// and the last customer interaction, so a send never lands right after the
// customer acted.
func Resolve(sub models.Submission, requiredFields int, now time.Time, t Thresholds) (Level, bool) {
	if sub.ReminderPaused {
		return "", false
	}
	if sub.Status(requiredFields) == models.SubmissionCompleted {
		return "", false
	}
	if sub.FirstSentAt == nil {
		return "", false
	}

	lastAction := sub.LastActionAt()
	if lastAction == nil || now.Sub(*lastAction) > t.MaxInactivity {
		// Abandoned: past the inactivity window nothing fires anymore.
		return "", false
	}

	switch {
	case sub.ReminderCount == 0:
		if now.Sub(*sub.FirstSentAt) >= t.First {
			return LevelFirst, true
		}

	case sub.ReminderCount == 1:
		if sinceBoth(sub, now) >= t.Second {
			return LevelSecond, true
		}

	default: // ReminderCount >= 2
		if sinceBoth(sub, now) >= t.Weekly {
			return weeklyLevel(sub.ReminderCount - 1), true
		}
	}

	return "", false
}

// sinceBoth returns the elapsed time since the MOST RECENT of the last
// reminder and the last interaction, i.e. the duration both conditions have
// held for.
func sinceBoth(sub models.Submission, now time.Time) time.Duration {
	latest := sub.FirstSentAt
	if sub.LastReminderSentAt != nil && (latest == nil || sub.LastReminderSentAt.After(*latest)) {
		latest = sub.LastReminderSentAt
	}
	if sub.LastInteractionAt != nil && sub.LastInteractionAt.After(*latest) {
		latest = sub.LastInteractionAt
	}
	return now.Sub(*latest)
}
