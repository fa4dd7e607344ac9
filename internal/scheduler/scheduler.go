package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSpec is how often limiter state is pruned.
const DefaultSweepSpec = "@every 10m"

// Sweeper forgets state for clients that have gone quiet. It returns how many entries were removed.
type Sweeper interface {
	Name() string
	Sweep() int
}

// SweeperFunc adapts a function to Sweeper.
type SweeperFunc struct {
	Label string
	Fn    func() int
}

func (s SweeperFunc) Name() string { return s.Label }
func (s SweeperFunc) Sweep() int   { return s.Fn() }

// Run prunes every sweeper on spec until ctx is cancelled. It blocks; start it in a goroutine.
// An invalid spec is returned immediately.
func Run(ctx context.Context, spec string, sweepers ...Sweeper) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() { sweepAll(sweepers) })
	if err != nil {
		return err
	}

	c.Start()
	slog.Info("scheduler: started", "spec", spec, "jobs", len(sweepers))

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	slog.Info("scheduler: stopped")
	return nil
}

func sweepAll(sweepers []Sweeper) {
	for _, s := range sweepers {
		if n := s.Sweep(); n > 0 {
			slog.Debug("scheduler: swept idle clients", "limiter", s.Name(), "removed", n)
		}
	}
}
