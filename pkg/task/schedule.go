package task

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Constraint reports whether a schedule allows running at t.
type Constraint func(t time.Time) bool

// Schedule is a set of constraints combined with AND. An empty schedule
// matches every minute. Builder methods record the first invalid argument
// and return the receiver so calls chain; check Err once at the end.
type Schedule struct {
	err         error
	constraints []Constraint
}

// Every returns an empty schedule.
func Every() *Schedule {
	return &Schedule{}
}

// Err returns the first error recorded while building the schedule.
func (s *Schedule) Err() error {
	return s.err
}

// Matches reports whether every constraint holds at t.
func (s *Schedule) Matches(t time.Time) bool {
	for _, c := range s.constraints {
		if !c(t) {
			return false
		}
	}
	return true
}

// Where adds a custom constraint.
func (s *Schedule) Where(c Constraint) *Schedule {
	if c != nil {
		s.constraints = append(s.constraints, c)
	}
	return s
}

func (s *Schedule) fail(err error) *Schedule {
	if s.err == nil {
		s.err = err
	}
	return s
}

func (s *Schedule) inRange(what string, n, lo, hi int) bool {
	if n < lo || n > hi {
		s.fail(fmt.Errorf("%w: %s %d not in [%d, %d]", ErrInvalidSchedule, what, n, lo, hi))
		return false
	}
	return true
}

// Minute matches minute n of the hour.
func (s *Schedule) Minute(n int) *Schedule {
	if !s.inRange("minute", n, 0, 59) {
		return s
	}
	return s.Where(func(t time.Time) bool { return t.Minute() == n })
}

// Hour matches hour n of the day.
func (s *Schedule) Hour(n int) *Schedule {
	if !s.inRange("hour", n, 0, 23) {
		return s
	}
	return s.Where(func(t time.Time) bool { return t.Hour() == n })
}

// Weekday matches day d of the week.
func (s *Schedule) Weekday(d time.Weekday) *Schedule {
	if !s.inRange("weekday", int(d), 0, 6) {
		return s
	}
	return s.Where(func(t time.Time) bool { return t.Weekday() == d })
}

// Day matches day n of the month.
func (s *Schedule) Day(n int) *Schedule {
	if !s.inRange("day", n, 1, 31) {
		return s
	}
	return s.Where(func(t time.Time) bool { return t.Day() == n })
}

// Month matches month m.
func (s *Schedule) Month(m time.Month) *Schedule {
	if !s.inRange("month", int(m), 1, 12) {
		return s
	}
	return s.Where(func(t time.Time) bool { return t.Month() == m })
}

// EveryMinute leaves the schedule unconstrained.
func (s *Schedule) EveryMinute() *Schedule {
	return s
}

// Hourly runs at minute 0 of every hour.
func (s *Schedule) Hourly() *Schedule {
	return s.Minute(0)
}

// Daily runs at 00:00.
func (s *Schedule) Daily() *Schedule {
	return s.Minute(0).Hour(0)
}

// DailyAt runs every day at clock, given as "HH:MM".
func (s *Schedule) DailyAt(clock string) *Schedule {
	return s.at(clock)
}

// Weekly runs on Sunday at 00:00.
func (s *Schedule) Weekly() *Schedule {
	return s.Weekday(time.Sunday).Hour(0).Minute(0)
}

// WeeklyOn runs on day d at clock.
func (s *Schedule) WeeklyOn(d time.Weekday, clock string) *Schedule {
	return s.Weekday(d).at(clock)
}

// Monthly runs on the first day of the month at 00:00.
func (s *Schedule) Monthly() *Schedule {
	return s.Day(1).Hour(0).Minute(0)
}

// MonthlyOn runs on day n of the month at clock.
func (s *Schedule) MonthlyOn(n int, clock string) *Schedule {
	return s.Day(n).at(clock)
}

// Yearly runs on January 1 at 00:00.
func (s *Schedule) Yearly() *Schedule {
	return s.Month(time.January).Day(1).Hour(0).Minute(0)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Cron matches the minutes selected by a standard five-field cron
// expression or a descriptor such as "@hourly".
func (s *Schedule) Cron(expr string) *Schedule {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return s.fail(errors.Join(ErrInvalidCron, err))
	}
	return s.Where(func(t time.Time) bool {
		minute := t.Truncate(time.Minute)
		return sched.Next(minute.Add(-time.Second)).Equal(minute)
	})
}

func (s *Schedule) at(clock string) *Schedule {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return s.fail(err)
	}
	return s.Hour(hour).Minute(minute)
}

// ParseClock parses "HH:MM" in 24-hour form. The minute part may be
// omitted, as in "9".
func ParseClock(clock string) (hour, minute int, err error) {
	h, m, found := strings.Cut(strings.TrimSpace(clock), ":")
	if found && m == "" {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	if found {
		minute, err = strconv.Atoi(m)
		if err != nil || minute < 0 || minute > 59 {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
		}
	}
	return hour, minute, nil
}
