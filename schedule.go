package assetsync

import (
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/schedule"
)

// Schedule decides when the timer trigger fires next.
type Schedule = schedule.Schedule

// Every creates a schedule that fires at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that fires at a specific time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly creates a schedule that fires at a specific day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron creates a schedule from a cron expression. It panics on an invalid
// expression; use ParseSchedule for untrusted input.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}

// ParseSchedule parses a duration, "daily HH:MM" or a cron expression.
func ParseSchedule(spec string) (Schedule, error) {
	return schedule.Parse(spec)
}
