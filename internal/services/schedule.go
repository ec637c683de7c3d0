package services

import (
	"fmt"
	"strings"
	"time"

	"hangspot/internal/models"
)

var clockLayouts = []string{"15:04", "15:04:05"}

// To12Hour converts a 24-hour "HH:MM" value into the display form "H:MMAM|PM".
// 00:15 -> 12:15AM, 12:00 -> 12:00PM, 13:05 -> 1:05PM.
func To12Hour(value string) (string, error) {
	t, err := parseClock(value, clockLayouts)
	if err != nil {
		return "", err
	}
	return t.Format("3:04PM"), nil
}

// To24Hour reverses To12Hour so stored times can prefill <input type="time">.
// Values that are already 24-hour pass through normalised.
func To24Hour(value string) string {
	t, err := parseClock(value, append([]string{"3:04PM"}, clockLayouts...))
	if err != nil {
		return ""
	}
	return t.Format("15:04")
}

func parseClock(value string, layouts []string) (time.Time, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", value)
}

// ParseWeekdays keeps known weekday codes only, deduplicated, in calendar order.
func ParseWeekdays(selected []string) models.Weekdays {
	picked := make(map[string]bool, len(selected))
	for _, s := range selected {
		picked[strings.ToUpper(strings.TrimSpace(s))] = true
	}

	var days models.Weekdays
	for _, code := range models.WeekdayCodes {
		if picked[code] {
			days = append(days, code)
		}
	}
	return days
}
