package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nikhilbhutani/neuralnarrative/internal/config"
)

var ErrInvalidTime = errors.New("invalid scheduled time")

// Runner is the work triggered on every firing.
type Runner interface {
	Run(ctx context.Context)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context)

func (f RunnerFunc) Run(ctx context.Context) { f(ctx) }

// Daily fires a Runner once a day at a fixed wall-clock time. A firing that
// comes due while the previous one is still running is skipped.
type Daily struct {
	cron  *cron.Cron
	entry cron.EntryID
	spec  string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDaily schedules r at clock ("HH:MM") in loc. A nil loc means local time.
func NewDaily(clock string, loc *time.Location, r Runner) (*Daily, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}
	return newDaily(fmt.Sprintf("%d %d * * *", minute, hour), loc, r)
}

func newDaily(spec string, loc *time.Location, r Runner) (*Daily, error) {
	if loc == nil {
		loc = time.Local
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	d := &Daily{cron: c, spec: spec, ctx: ctx, cancel: cancel}

	id, err := c.AddFunc(spec, func() {
		slog.Info("scheduled episode generation started", "spec", spec)
		r.Run(d.ctx)
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}
	d.entry = id
	return d, nil
}

// Spec returns the cron expression in use.
func (d *Daily) Spec() string { return d.spec }

// Next reports the next firing time, or the zero time if the scheduler is
// not running.
func (d *Daily) Next() time.Time {
	return d.cron.Entry(d.entry).Next
}

// Start begins firing in the background.
func (d *Daily) Start() {
	d.cron.Start()
	slog.Info("daily scheduler started", "spec", d.spec, "next_run", d.Next())
}

// Stop prevents further firings and waits for a running one to finish or for
// ctx to expire, whichever comes first. A running job sees its context
// canceled only when ctx expires.
func (d *Daily) Stop(ctx context.Context) error {
	done := d.cron.Stop()
	select {
	case <-done.Done():
		d.cancel()
		slog.Info("daily scheduler stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		return fmt.Errorf("waiting for scheduled run: %w", ctx.Err())
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
