// Package task runs periodic work on a minute-resolution schedule.
//
// A Schedule is a list of constraints over the current time (minute, hour,
// weekday, day of month, month) that must all hold. Convenience builders
// cover the usual cadences, and Cron accepts a five-field cron expression:
//
//	m := task.NewManager(task.WithLogger(log))
//	err := m.Schedule(task.New("cleanup", cleanup), task.Every().DailyAt("03:30"))
//	err = m.Schedule(report, task.Every().WeeklyOn(time.Monday, "09:00"))
//	err = m.Schedule(sync, task.Every().Cron("*/15 * * * *"))
//
// The application calls Process once a minute with the tick time. Every due
// task is started through the deferred hook in the context, so due tasks run
// concurrently and Process does not wait for them.
package task
