package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Validate reports whether spec is a schedule Run accepts.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("schedule: parse %q: %w", spec, err)
	}
	return nil
}

// Run calls job on every activation of spec until ctx is cancelled, then
// waits for a running job to return.
func Run(ctx context.Context, spec string, job func(context.Context)) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(slogLogger{})))
	id, err := c.AddFunc(spec, func() { job(ctx) })
	if err != nil {
		return fmt.Errorf("schedule: parse %q: %w", spec, err)
	}

	c.Start()
	slog.Info("schedule: started", "spec", spec, "next", c.Entry(id).Next)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("schedule: stopped", "spec", spec)
	return nil
}

// slogLogger adapts cron's logger to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("schedule: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("schedule: "+msg, append(keysAndValues, "err", err)...)
}
