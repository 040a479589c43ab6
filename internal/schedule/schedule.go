// Package schedule parses schedule expressions into triggers.
//
// Two syntaxes are accepted: cron expressions (six fields with a leading
// seconds field, five classic fields, or @descriptors like @hourly and
// @every 90s) and a small set of english recurrence phrases ("every 5
// minutes", "hourly", "every day at 06:30"). Both compile down to the same
// trigger capability so the runner never sees the difference.
package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger yields the time of the next fire strictly after the given
// instant. Implementations must be safe for concurrent use.
type Trigger interface {
	Next(after time.Time) time.Time
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

var (
	everyIntervalRe = regexp.MustCompile(`^every\s+(\d+)\s+(second|minute|hour)s?$`)
	everyUnitRe     = regexp.MustCompile(`^every\s+(second|minute|hour|day|week)$`)
	dailyAtRe       = regexp.MustCompile(`^every\s+day\s+at\s+(\d{1,2}):(\d{2})$`)
)

// Parse compiles a schedule expression. Cron syntax is tried first, then
// the english phrases. Parse failures are configuration errors and fatal
// at startup.
func Parse(spec string) (Trigger, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return nil, fmt.Errorf("empty schedule expression")
	}

	sched, cronErr := cronParser.Parse(trimmed)
	if cronErr == nil {
		return sched, nil
	}

	if translated, ok := translatePhrase(trimmed); ok {
		sched, err := cronParser.Parse(translated)
		if err != nil {
			return nil, fmt.Errorf("parsing schedule %q (as %q): %w", spec, translated, err)
		}
		return sched, nil
	}

	return nil, fmt.Errorf("parsing schedule %q: %w", spec, cronErr)
}

// translatePhrase maps an english recurrence phrase onto cron syntax.
func translatePhrase(spec string) (string, bool) {
	phrase := strings.ToLower(strings.TrimSpace(spec))
	phrase = strings.Join(strings.Fields(phrase), " ")

	switch phrase {
	case "hourly":
		return "@hourly", true
	case "daily":
		return "@daily", true
	case "weekly":
		return "@weekly", true
	case "monthly":
		return "@monthly", true
	case "yearly", "annually":
		return "@yearly", true
	}

	if m := everyUnitRe.FindStringSubmatch(phrase); m != nil {
		switch m[1] {
		case "second":
			return "@every 1s", true
		case "minute":
			return "@every 1m", true
		case "hour":
			return "@hourly", true
		case "day":
			return "@daily", true
		case "week":
			return "@weekly", true
		}
	}

	if m := everyIntervalRe.FindStringSubmatch(phrase); m != nil {
		unit := map[string]string{"second": "s", "minute": "m", "hour": "h"}[m[2]]
		return fmt.Sprintf("@every %s%s", m[1], unit), true
	}

	if m := dailyAtRe.FindStringSubmatch(phrase); m != nil {
		return fmt.Sprintf("0 %s %s * * *", m[2], m[1]), true
	}

	return "", false
}
