package catalog

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule parses a standard 5-field cron expression evaluated in timezone (UTC when
// empty).
func ParseSchedule(expression, timezone string) (cron.Schedule, error) {
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", timezone, err)
		}

		expression = "CRON_TZ=" + timezone + " " + expression
	}

	return scheduleParser.Parse(expression)
}

// NextRuns previews the next n activations of a schedule trigger after from.
func NextRuns(expression, timezone string, from time.Time, n int) ([]time.Time, error) {
	schedule, err := ParseSchedule(expression, timezone)
	if err != nil {
		return nil, err
	}

	runs := make([]time.Time, 0, n)
	next := from

	for range n {
		next = schedule.Next(next)
		runs = append(runs, next)
	}

	return runs, nil
}
