// Package schedule re-runs the annotation job on a cron schedule.
//
// Schedules use the standard five-field cron syntax or the descriptors
// understood by github.com/robfig/cron/v3 ("@hourly", "@every 30m").
// An activation that fires while the previous job is still running is
// skipped.
package schedule
