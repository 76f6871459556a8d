package lighting

import (
	"context"
	"time"
)

// Pruner removes readings and brightness records older than a retention
// window. Without it both history tables grow without bound; one reading
// per sensor per minute is over half a million rows a year.
type Pruner struct {
	repo     Repository
	maxAge   time.Duration
	interval time.Duration
	logger   Logger
}

// NewPruner creates a retention pruner.
//
// Parameters:
//   - repo: Repository holding the history tables
//   - maxAge: Retention window; rows older than now-maxAge are removed.
//     Zero disables pruning entirely.
//   - interval: How often the pruner runs
func NewPruner(repo Repository, maxAge, interval time.Duration) *Pruner {
	return &Pruner{
		repo:     repo,
		maxAge:   maxAge,
		interval: interval,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the pruner.
func (p *Pruner) SetLogger(logger Logger) {
	p.logger = logger
}

// Enabled reports whether a retention window is configured.
func (p *Pruner) Enabled() bool {
	return p.maxAge > 0
}

// Run prunes on the configured interval until the context is cancelled.
// An initial prune happens immediately so restarts don't defer cleanup by
// a full interval. Intended to be started as a goroutine from main.
func (p *Pruner) Run(ctx context.Context) {
	if !p.Enabled() {
		return
	}

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

// prune removes one batch of expired rows from both history tables.
func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.maxAge)

	readings, err := p.repo.PruneReadings(ctx, cutoff)
	if err != nil {
		p.logger.Error("pruning readings failed", "error", err)
	}

	brightness, err := p.repo.PruneBrightness(ctx, cutoff)
	if err != nil {
		p.logger.Error("pruning brightness failed", "error", err)
	}

	if readings > 0 || brightness > 0 {
		p.logger.Info("history pruned",
			"readings_removed", readings,
			"brightness_removed", brightness,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
}
