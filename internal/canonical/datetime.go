package canonical

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"devevent/internal/domain"
)

const dateLayout = "2006-01-02"

var (
	twelveHourRe     = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(AM|PM)$`)
	twentyFourHourRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// NormalizeDate parses a free-form date and returns it as YYYY-MM-DD in UTC.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", domain.NewValidationError("date", "invalid date")
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return "", domain.NewValidationError("date", "invalid date")
	}
	return t.UTC().Format(dateLayout), nil
}

// NormalizeTime accepts "H:MM AM|PM" (H 1-12) or "H:MM"/"HH:MM" (H 0-23)
// and returns the 24-hour "HH:MM" form.
func NormalizeTime(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))

	if m := twelveHourRe.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		if hours < 1 || hours > 12 || minutes > 59 {
			return "", invalidTime()
		}
		switch {
		case m[3] == "PM" && hours != 12:
			hours += 12
		case m[3] == "AM" && hours == 12:
			hours = 0
		}
		return formatClock(hours, minutes), nil
	}

	if m := twentyFourHourRe.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		if hours > 23 || minutes > 59 {
			return "", invalidTime()
		}
		return formatClock(hours, minutes), nil
	}

	return "", invalidTime()
}

func formatClock(hours, minutes int) string {
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func invalidTime() error {
	return domain.NewValidationError("time", "invalid time")
}
